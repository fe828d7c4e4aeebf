package service

import (
	"errors"
	"memodeck_backend/internal/model"
	"memodeck_backend/internal/util"
	"time"

	"gorm.io/gorm"
)

// dbError 将 gorm 错误转换为业务错误，已是业务错误的原样返回
func dbError(err error, notFound *util.AppError) error {
	if err == nil {
		return nil
	}
	var appErr *util.AppError
	if errors.As(err, &appErr) {
		return err
	}
	if notFound != nil && errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound
	}
	return util.NewPersistenceError(err)
}

// Clock “今天”按配置时区计算，测试中可替换 now
type Clock struct {
	now func() time.Time
	loc *time.Location
}

func NewClock(loc *time.Location) *Clock {
	return NewClockAt(time.Now, loc)
}

func NewClockAt(now func() time.Time, loc *time.Location) *Clock {
	if loc == nil {
		loc = time.Local
	}
	return &Clock{now: now, loc: loc}
}

func (c *Clock) Now() time.Time {
	return c.now().In(c.loc)
}

func (c *Clock) DateOf(t time.Time) string {
	return t.In(c.loc).Format(util.DateFormat)
}

func (c *Clock) Today() string {
	return c.DaysAgo(0)
}

// DaysAgo 取正午计算避免夏令时跳变
func (c *Clock) DaysAgo(n int) string {
	y, m, d := c.Now().Date()
	return time.Date(y, m, d-n, 12, 0, 0, 0, c.loc).Format(util.DateFormat)
}

// ApplyStreak 每个完成的会话调用一次
// 上次学习为昨天则连续天数加一，为今天不变，否则重置为 1
func ApplyStreak(stats *model.UserStatistics, today, yesterday string) {
	switch stats.LastStudyDate {
	case today:
	case yesterday:
		stats.StudyStreak++
	default:
		stats.StudyStreak = 1
	}
	if stats.StudyStreak > stats.LongestStreak {
		stats.LongestStreak = stats.StudyStreak
	}
	stats.LastStudyDate = today
}

func elapsedSeconds(from, to time.Time) int {
	d := int(to.Sub(from).Seconds())
	if d < 0 {
		return 0
	}
	return d
}
