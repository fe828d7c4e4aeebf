package service

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"memodeck_backend/internal/config"
	"memodeck_backend/internal/model"
	"memodeck_backend/internal/repository"
	"memodeck_backend/pkg/database"
)

const testPassword = "secret123"

// fakeClock 测试中手动推进时间
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type capturedMail struct {
	to  string
	otp string
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []capturedMail
}

func (m *fakeMailer) SendOTP(_ context.Context, to, otp string, _ int) error {
	m.mu.Lock()
	m.sent = append(m.sent, capturedMail{to: to, otp: otp})
	m.mu.Unlock()
	return nil
}

func (m *fakeMailer) last() capturedMail {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		return capturedMail{}
	}
	return m.sent[len(m.sent)-1]
}

type testEnv struct {
	ctx    context.Context
	db     *gorm.DB
	cfg    *config.Config
	time   *fakeClock
	clock  *Clock
	mailer *fakeMailer

	users    *repository.UserRepository
	decks    *repository.DeckRepository
	cards    *repository.CardRepository
	sessions *repository.StudySessionRepository
	stats    *repository.StatisticsRepository

	store    *MemorySessionStore
	auth     *AuthService
	profile  *UserService
	deck     *DeckService
	card     *CardService
	transfer *DeckTransferService
	study    *StudyService
	progress *ProgressService
	reset    *PasswordResetService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := database.Open(&config.DatabaseConfig{Driver: "sqlite", Path: ":memory:"}, gormlogger.Silent)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	cfg := &config.Config{
		JWT: config.JWTConfig{
			Secret:      "test-secret-test-secret-test-secret",
			ExpireTime:  time.Hour,
			ResetExpire: 15 * time.Minute,
			CookieName:  "memodeck_session",
		},
	}

	loc := time.UTC
	ft := &fakeClock{now: time.Date(2024, 3, 10, 9, 0, 0, 0, loc)}
	clock := NewClockAt(ft.Now, loc)

	env := &testEnv{
		ctx:      context.Background(),
		db:       db,
		cfg:      cfg,
		time:     ft,
		clock:    clock,
		mailer:   &fakeMailer{},
		users:    repository.NewUserRepository(db),
		decks:    repository.NewDeckRepository(db),
		cards:    repository.NewCardRepository(db),
		sessions: repository.NewStudySessionRepository(db),
		stats:    repository.NewStatisticsRepository(db),
		store:    NewMemorySessionStore(),
	}
	attempts := repository.NewQuizAttemptRepository(db)
	otps := repository.NewOTPRepository(db)

	env.auth = NewAuthService(env.users, env.store, cfg, clock)
	env.profile = NewUserService(env.users, env.decks, env.cards, env.stats, env.store, clock)
	env.deck = NewDeckService(db, env.decks, env.cards, clock)
	env.card = NewCardService(db, env.decks, env.cards, clock)
	env.transfer = NewDeckTransferService(db, env.decks, env.cards)
	env.study = NewStudyService(db, env.decks, env.cards, env.sessions, attempts, env.stats, clock)
	env.progress = NewProgressService(repository.NewProgressRepository(db), env.sessions, env.stats, clock)
	env.reset = NewPasswordResetService(env.users, otps, env.mailer, cfg, clock)
	return env
}

func (e *testEnv) createUser(t *testing.T, username, email string) *model.User {
	t.Helper()
	user, err := e.auth.Register(e.ctx, RegisterInput{
		Username:        username,
		Email:           email,
		Password:        testPassword,
		ConfirmPassword: testPassword,
	})
	require.NoError(t, err)
	return user
}

// createDeck 按顺序创建卡片，答案为 a1, a2 ...
func (e *testEnv) createDeck(t *testing.T, userID uint, name string, cards int) (*model.Deck, []model.Card) {
	t.Helper()
	deck, err := e.deck.Create(e.ctx, userID, DeckInput{Name: name})
	require.NoError(t, err)

	out := make([]model.Card, 0, cards)
	for i := 1; i <= cards; i++ {
		card, err := e.card.Create(e.ctx, userID, CardInput{
			DeckID:   deck.ID,
			Question: "q" + strconv.Itoa(i),
			Answer:   "a" + strconv.Itoa(i),
		})
		require.NoError(t, err)
		out = append(out, *card)
	}
	return deck, out
}

func (e *testEnv) reloadDeck(t *testing.T, userID, deckID uint) *model.Deck {
	t.Helper()
	deck, err := e.deck.Get(e.ctx, userID, deckID)
	require.NoError(t, err)
	return deck
}

func (e *testEnv) userStats(t *testing.T, userID uint) *model.UserStatistics {
	t.Helper()
	stats, err := e.stats.FindByUser(e.ctx, userID)
	require.NoError(t, err)
	return stats
}

// takeQuiz 开始并提交一次测验
func (e *testEnv) takeQuiz(t *testing.T, userID, deckID uint, score, total int) *QuizAttemptResult {
	t.Helper()
	session, err := e.study.StartSession(e.ctx, userID, deckID, string(model.SessionQuiz))
	require.NoError(t, err)
	e.time.Advance(2 * time.Minute)

	result, err := e.study.SaveQuizAttempt(e.ctx, userID, QuizAttemptInput{
		SessionID:      session.ID,
		DeckID:         deckID,
		Score:          score,
		TotalQuestions: total,
		BestStreak:     score,
	})
	require.NoError(t, err)
	return result
}
