package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingPurger struct {
	calls int32
	err   error
}

func (p *countingPurger) PurgeStale(ctx context.Context) (int64, error) {
	atomic.AddInt32(&p.calls, 1)
	if _, ok := ctx.Deadline(); !ok {
		return 0, errors.New("missing deadline")
	}
	return 3, p.err
}

func TestPurgeOTPs(t *testing.T) {
	p := &countingPurger{}
	s := New(p)
	s.PurgeOTPs()
	assert.Equal(t, int32(1), atomic.LoadInt32(&p.calls))

	p.err = errors.New("db down")
	s.PurgeOTPs()
	assert.Equal(t, int32(2), atomic.LoadInt32(&p.calls))
}

func TestStartRegistersHourlyJob(t *testing.T) {
	s := New(&countingPurger{})
	require.NoError(t, s.Start())
	defer s.Stop()

	jobs := s.scheduler.Jobs()
	require.Len(t, jobs, 1)
	assert.True(t, s.scheduler.IsRunning())
}
