package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"memodeck_backend/internal/util"
)

func TestDeckCRUDIsScopedToOwner(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createUser(t, "hugo", "hugo@example.com")
	other := env.createUser(t, "iris", "iris@example.com")

	_, err := env.deck.Create(env.ctx, owner.ID, DeckInput{Name: "   "})
	assert.Equal(t, util.KindValidation, util.KindOf(err))

	deck, err := env.deck.Create(env.ctx, owner.ID, DeckInput{Name: "French", Description: " basics ", Color: "success"})
	require.NoError(t, err)
	assert.Equal(t, "basics", deck.Description)
	assert.Equal(t, "success", deck.Color)

	_, err = env.deck.Get(env.ctx, other.ID, deck.ID)
	assert.ErrorIs(t, err, util.ErrDeckNotFound)
	assert.ErrorIs(t, env.deck.Delete(env.ctx, other.ID, deck.ID), util.ErrDeckNotFound)

	_, err = env.deck.Update(env.ctx, owner.ID, deck.ID, DeckUpdate{})
	assert.ErrorIs(t, err, util.ErrNoFieldsToUpdate)

	name := "French II"
	updated, err := env.deck.Update(env.ctx, owner.ID, deck.ID, DeckUpdate{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "French II", updated.Name)

	require.NoError(t, env.deck.Delete(env.ctx, owner.ID, deck.ID))
	decks, err := env.deck.List(env.ctx, owner.ID)
	require.NoError(t, err)
	assert.Empty(t, decks)
}

func TestDeckUpdateBestScoreIsMonotonic(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "jude", "jude@example.com")
	deck, _ := env.createDeck(t, user.ID, "Scores", 3)

	score := 2
	got, err := env.deck.Update(env.ctx, user.ID, deck.ID, DeckUpdate{BestScore: &score})
	require.NoError(t, err)
	assert.Equal(t, 2, got.BestScore)
	assert.False(t, got.QuizCompleted)

	lower := 1
	got, err = env.deck.Update(env.ctx, user.ID, deck.ID, DeckUpdate{BestScore: &lower})
	require.NoError(t, err)
	assert.Equal(t, 2, got.BestScore)

	tooHigh := 4
	_, err = env.deck.Update(env.ctx, user.ID, deck.ID, DeckUpdate{BestScore: &tooHigh})
	assert.Equal(t, util.KindValidation, util.KindOf(err))

	full := 3
	flag := false
	got, err = env.deck.Update(env.ctx, user.ID, deck.ID, DeckUpdate{BestScore: &full, QuizCompleted: &flag})
	require.NoError(t, err)
	assert.True(t, got.QuizCompleted, "completion is derived from best score")

	stats, err := env.deck.Stats(env.ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.TotalDecks)
	assert.Equal(t, int64(1), stats.CompletedDecks)
	assert.Equal(t, int64(0), stats.ActiveDecks)
}

func TestCardOrdering(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "kira", "kira@example.com")
	other := env.createUser(t, "leo", "leo@example.com")
	deck, cards := env.createDeck(t, user.ID, "Order", 3)

	for i, c := range cards {
		assert.Equal(t, i, c.Position)
	}

	require.NoError(t, env.card.Reorder(env.ctx, user.ID, deck.ID, []uint{cards[2].ID, cards[0].ID, cards[1].ID}))
	listed, err := env.card.ListByDeck(env.ctx, user.ID, deck.ID)
	require.NoError(t, err)
	assert.Equal(t, []uint{cards[2].ID, cards[0].ID, cards[1].ID}, []uint{listed[0].ID, listed[1].ID, listed[2].ID})

	require.NoError(t, env.card.Delete(env.ctx, user.ID, cards[2].ID))
	listed, err = env.card.ListByDeck(env.ctx, user.ID, deck.ID)
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.Equal(t, 0, listed[0].Position)
	assert.Equal(t, 1, listed[1].Position)

	_, err = env.card.Get(env.ctx, other.ID, cards[0].ID)
	assert.ErrorIs(t, err, util.ErrCardNotFound)
	assert.Error(t, env.card.Reorder(env.ctx, other.ID, deck.ID, []uint{cards[0].ID}))

	blank := " "
	_, err = env.card.Update(env.ctx, user.ID, cards[0].ID, CardUpdate{Question: &blank})
	assert.Equal(t, util.KindValidation, util.KindOf(err))
	_, err = env.card.Update(env.ctx, user.ID, cards[0].ID, CardUpdate{})
	assert.ErrorIs(t, err, util.ErrNoFieldsToUpdate)
}
