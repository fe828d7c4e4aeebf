package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"memodeck_backend/internal/model"
	"memodeck_backend/internal/util"
)

func TestRegisterValidation(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, "uma", "uma@example.com")

	cases := []struct {
		name string
		in   RegisterInput
		msg  string
	}{
		{"mismatch", RegisterInput{Username: "u1", Email: "u1@example.com", Password: "secret1", ConfirmPassword: "secret2"}, "Passwords do not match!"},
		{"short", RegisterInput{Username: "u1", Email: "u1@example.com", Password: "abc", ConfirmPassword: "abc"}, "Password must be at least 6 characters"},
		{"bad email", RegisterInput{Username: "u1", Email: "not-an-email", Password: "secret1", ConfirmPassword: "secret1"}, "Invalid email format"},
		{"duplicate username", RegisterInput{Username: "uma", Email: "new@example.com", Password: "secret1", ConfirmPassword: "secret1"}, util.ErrAccountExists.Message},
		{"duplicate email", RegisterInput{Username: "other", Email: "uma@example.com", Password: "secret1", ConfirmPassword: "secret1"}, util.ErrAccountExists.Message},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := env.auth.Register(env.ctx, c.in)
			assert.EqualError(t, err, c.msg)
		})
	}
}

func TestLoginAndLogout(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "victor", "victor@example.com")

	_, err := env.auth.Login(env.ctx, "nobody@example.com", testPassword)
	assert.ErrorIs(t, err, util.ErrInvalidCredential)
	_, err = env.auth.Login(env.ctx, "victor@example.com", "wrong-password")
	assert.ErrorIs(t, err, util.ErrInvalidCredential)

	res, err := env.auth.Login(env.ctx, "victor@example.com", testPassword)
	require.NoError(t, err)
	assert.Equal(t, user.ID, res.User.ID)
	require.NotNil(t, res.User.LastLogin)

	claims, err := util.ParseJWT(res.Token, env.cfg.JWT.Secret, util.TokenPurposeSession)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)

	revoked, err := env.store.IsRevoked(env.ctx, claims.ID)
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, env.auth.Logout(env.ctx, claims))
	revoked, err = env.store.IsRevoked(env.ctx, claims.ID)
	require.NoError(t, err)
	assert.True(t, revoked)
}

func TestLoginRejectsInactiveAccount(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "wendy", "wendy@example.com")
	require.NoError(t, env.users.UpdateFields(env.ctx, user.ID, map[string]interface{}{"is_active": false}))

	_, err := env.auth.Login(env.ctx, "wendy@example.com", testPassword)
	assert.ErrorIs(t, err, util.ErrInvalidCredential)
}

func TestProfileUpdates(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "xavier", "xavier@example.com")
	env.createUser(t, "yara", "yara@example.com")

	_, err := env.profile.UpdateUsername(env.ctx, user.ID, "ab", testPassword)
	assert.Equal(t, util.KindValidation, util.KindOf(err))
	_, err = env.profile.UpdateUsername(env.ctx, user.ID, "bad name!", testPassword)
	assert.Equal(t, util.KindValidation, util.KindOf(err))
	_, err = env.profile.UpdateUsername(env.ctx, user.ID, "xavier_2", "nope")
	assert.ErrorIs(t, err, util.ErrIncorrectPassword)
	_, err = env.profile.UpdateUsername(env.ctx, user.ID, "yara", testPassword)
	assert.ErrorIs(t, err, util.ErrUsernameTaken)

	name, err := env.profile.UpdateUsername(env.ctx, user.ID, " xavier_2 ", testPassword)
	require.NoError(t, err)
	assert.Equal(t, "xavier_2", name)

	_, err = env.profile.UpdateEmail(env.ctx, user.ID, "yara@example.com", testPassword)
	assert.ErrorIs(t, err, util.ErrEmailTaken)
	email, err := env.profile.UpdateEmail(env.ctx, user.ID, "x2@example.com", testPassword)
	require.NoError(t, err)
	assert.Equal(t, "x2@example.com", email)

	err = env.profile.UpdatePassword(env.ctx, user.ID, PasswordChange{CurrentPassword: "nope", NewPassword: "newpass1", ConfirmPassword: "newpass1"})
	assert.EqualError(t, err, "Current password is incorrect")
	err = env.profile.UpdatePassword(env.ctx, user.ID, PasswordChange{CurrentPassword: testPassword, NewPassword: "newpass1", ConfirmPassword: "newpass2"})
	assert.Equal(t, util.KindValidation, util.KindOf(err))
	require.NoError(t, env.profile.UpdatePassword(env.ctx, user.ID, PasswordChange{CurrentPassword: testPassword, NewPassword: "newpass1", ConfirmPassword: "newpass1"}))

	_, err = env.auth.Login(env.ctx, "x2@example.com", "newpass1")
	assert.NoError(t, err)

	profile, err := env.profile.GetProfile(env.ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "xavier_2", profile.Username)
	assert.Equal(t, "x2@example.com", profile.Email)
}

func TestProfileStatsCountsMasteredOncePerDeck(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "zack", "zack@example.com")
	first, _ := env.createDeck(t, user.ID, "First", 3)
	second, _ := env.createDeck(t, user.ID, "Second", 4)

	stats, err := env.profile.GetStats(env.ctx, user.ID)
	require.NoError(t, err)
	assert.Nil(t, stats.LastStudyDate)

	env.takeQuiz(t, user.ID, first.ID, 3, 3)
	env.takeQuiz(t, user.ID, second.ID, 2, 4)

	stats, err = env.profile.GetStats(env.ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.TotalDecks)
	assert.Equal(t, int64(1), stats.CompletedDecks)
	assert.Equal(t, int64(1), stats.ActiveDecks)
	assert.Equal(t, int64(7), stats.TotalCards)
	assert.Equal(t, int64(5), stats.MasteredCards)
	assert.Equal(t, 2, stats.TotalQuizzesTaken)
	require.NotNil(t, stats.LastStudyDate)
	assert.Equal(t, env.clock.Today(), *stats.LastStudyDate)
}

func TestDeleteAccountRemovesEverything(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "ada", "ada@example.com")
	keep := env.createUser(t, "ben", "ben@example.com")
	deck, _ := env.createDeck(t, user.ID, "Gone", 2)
	env.createDeck(t, keep.ID, "Stays", 1)
	env.takeQuiz(t, user.ID, deck.ID, 2, 2)

	res, err := env.auth.Login(env.ctx, "ada@example.com", testPassword)
	require.NoError(t, err)
	require.NoError(t, env.profile.DeleteAccount(env.ctx, res.Claims))

	for _, m := range []interface{}{&model.Deck{}, &model.StudySession{}, &model.QuizAttempt{}, &model.UserStatistics{}} {
		var n int64
		require.NoError(t, env.db.Model(m).Where("user_id = ?", user.ID).Count(&n).Error)
		assert.Zero(t, n, "%T rows left", m)
	}
	var cards int64
	require.NoError(t, env.db.Model(&model.Card{}).Count(&cards).Error)
	assert.Equal(t, int64(1), cards)

	revoked, err := env.store.IsRevoked(env.ctx, res.Claims.ID)
	require.NoError(t, err)
	assert.True(t, revoked)

	_, err = env.profile.GetProfile(env.ctx, user.ID)
	assert.ErrorIs(t, err, util.ErrUserNotFound)
}
