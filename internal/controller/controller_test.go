package controller

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gormlogger "gorm.io/gorm/logger"

	"memodeck_backend/internal/config"
	"memodeck_backend/internal/middleware"
	"memodeck_backend/internal/repository"
	"memodeck_backend/internal/service"
	"memodeck_backend/pkg/database"
)

type testServer struct {
	router *gin.Engine
	token  string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.Open(&config.DatabaseConfig{Driver: "sqlite", Path: ":memory:"}, gormlogger.Silent)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	cfg := &config.Config{JWT: config.JWTConfig{
		Secret:     "controller-test-secret-controller",
		ExpireTime: time.Hour,
		CookieName: "memodeck_session",
	}}
	clock := service.NewClock(time.UTC)
	store := service.NewMemorySessionStore()

	users := repository.NewUserRepository(db)
	decks := repository.NewDeckRepository(db)
	cards := repository.NewCardRepository(db)
	sessions := repository.NewStudySessionRepository(db)
	stats := repository.NewStatisticsRepository(db)

	auth := NewAuthController(service.NewAuthService(users, store, cfg, clock), cfg)
	deck := NewDeckController(service.NewDeckService(db, decks, cards, clock), service.NewDeckTransferService(db, decks, cards))
	card := NewCardController(service.NewCardService(db, decks, cards, clock))
	study := NewStudyController(service.NewStudyService(db, decks, cards, sessions, repository.NewQuizAttemptRepository(db), stats, clock))
	user := NewUserController(service.NewUserService(users, decks, cards, stats, store, clock), cfg)
	action := NewActionController(study, deck, card, user)

	r := gin.New()
	r.POST("/api/register", auth.Register)
	r.POST("/api/login", auth.Login)
	api := r.Group("/api", middleware.AuthMiddleware(cfg, store))
	api.POST("/logout", auth.Logout)
	api.POST("/decks", deck.Create)
	api.GET("/decks/:id", deck.Get)
	api.GET("/decks/:id/export", deck.Export)
	api.POST("/study/sessions", study.StartSession)
	api.POST("/study/sessions/:id/quiz-attempt", study.SaveQuizAttempt)
	api.Any("/deckApi", action.DeckAPI())
	api.Any("/cardApi", action.CardAPI())
	api.Any("/studyApi", action.StudyAPI())
	api.Any("/profileApi", action.ProfileAPI())

	srv := &testServer{router: r}
	w := srv.do(t, http.MethodPost, "/api/register", gin.H{
		"username": "tester", "email": "tester@example.com",
		"password": "secret123", "confirm_password": "secret123",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = srv.do(t, http.MethodPost, "/api/login", gin.H{"email": "tester@example.com", "password": "secret123"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	srv.token = decode(t, w)["token"].(string)
	return srv
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func (s *testServer) createDeck(t *testing.T, name string, cards ...string) uint {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/decks", gin.H{"name": name})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	id := uint(decode(t, w)["deck"].(map[string]interface{})["id"].(float64))

	for i := 0; i+1 < len(cards); i += 2 {
		w = s.do(t, http.MethodPost, "/api/cardApi?action=create", gin.H{"deck_id": id, "question": cards[i], "answer": cards[i+1]})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}
	return id
}

func TestLoginSetsSessionCookie(t *testing.T) {
	srv := newTestServer(t)
	w := srv.do(t, http.MethodPost, "/api/login", gin.H{"email": "tester@example.com", "password": "secret123"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Set-Cookie"), "memodeck_session=")
	assert.Contains(t, w.Header().Get("Set-Cookie"), "HttpOnly")

	w = srv.do(t, http.MethodPost, "/api/login", gin.H{"email": "tester@example.com", "password": "nope-nope"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, false, decode(t, w)["success"])
}

func TestActionDispatch(t *testing.T) {
	srv := newTestServer(t)
	id := srv.createDeck(t, "Flags", "France?", "blue white red")

	w := srv.do(t, http.MethodGet, "/api/deckApi?action=all", nil)
	require.Equal(t, http.StatusOK, w.Code)
	decks := decode(t, w)["decks"].([]interface{})
	require.Len(t, decks, 1)
	assert.Equal(t, float64(1), decks[0].(map[string]interface{})["card_count"])

	w = srv.do(t, http.MethodGet, "/api/deckApi?action=single&id="+strconv.Itoa(int(id)), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Flags", decode(t, w)["deck"].(map[string]interface{})["name"])

	w = srv.do(t, http.MethodGet, "/api/cardApi?action=deck&deck_id="+strconv.Itoa(int(id)), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["cards"], 1)

	w = srv.do(t, http.MethodGet, "/api/deckApi?action=bogus", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid action", decode(t, w)["message"])

	// 动作与请求方法不匹配
	w = srv.do(t, http.MethodGet, "/api/deckApi?action=create", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestQuizFlowThroughActions(t *testing.T) {
	srv := newTestServer(t)
	id := srv.createDeck(t, "Pairs", "1+1", "2", "2+2", "4")

	w := srv.do(t, http.MethodPost, "/api/studyApi?action=start_session", gin.H{"deck_id": id, "session_type": "quiz"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	sessionID := uint(decode(t, w)["session_id"].(float64))

	w = srv.do(t, http.MethodPost, "/api/study/sessions/"+strconv.Itoa(int(sessionID))+"/quiz-attempt", gin.H{
		"score": 2, "total_questions": 2, "best_streak": 2,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, float64(100), body["accuracy"])
	assert.Equal(t, "excellent", body["performance_level"])

	w = srv.do(t, http.MethodGet, "/api/decks/"+strconv.Itoa(int(id)), nil)
	require.Equal(t, http.StatusOK, w.Code)
	deck := decode(t, w)["deck"].(map[string]interface{})
	assert.Equal(t, true, deck["quiz_completed"])

	w = srv.do(t, http.MethodGet, "/api/profileApi?action=stats", nil)
	require.Equal(t, http.StatusOK, w.Code)
	stats := decode(t, w)["stats"].(map[string]interface{})
	assert.Equal(t, float64(2), stats["mastered_cards"])
}

func TestExportSetsAttachmentHeader(t *testing.T) {
	srv := newTestServer(t)
	id := srv.createDeck(t, "My Deck", "q", "a")

	w := srv.do(t, http.MethodGet, "/api/decks/"+strconv.Itoa(int(id))+"/export", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `attachment; filename="My_Deck_deck.csv"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "Question,Answer\nq,a\n", w.Body.String())

	empty := srv.createDeck(t, "Empty")
	w = srv.do(t, http.MethodGet, "/api/decks/"+strconv.Itoa(int(empty))+"/export", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "No cards to export", decode(t, w)["message"])
}

func TestLogoutRevokesToken(t *testing.T) {
	srv := newTestServer(t)

	w := srv.do(t, http.MethodPost, "/api/logout", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = srv.do(t, http.MethodGet, "/api/deckApi?action=all", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestNotFoundMapsToBadRequest(t *testing.T) {
	srv := newTestServer(t)

	w := srv.do(t, http.MethodGet, "/api/decks/999", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Deck not found or unauthorized", decode(t, w)["message"])
}
