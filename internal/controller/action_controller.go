package controller

import (
	"net/http"

	"memodeck_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// actionKey 旧前端以 ?action= 区分同一入口下的操作
type actionKey struct {
	method string
	action string
}

type actionTable map[actionKey]gin.HandlerFunc

func (t actionTable) dispatch(ctx *gin.Context) {
	h, ok := t[actionKey{ctx.Request.Method, ctx.Query("action")}]
	if !ok {
		util.Error(ctx, http.StatusBadRequest, "Invalid action")
		return
	}
	h(ctx)
}

// ActionController 兼容 studyApi / deckApi / cardApi / profileApi 风格的入口
type ActionController struct {
	Study *StudyController
	Deck  *DeckController
	Card  *CardController
	User  *UserController
}

func NewActionController(study *StudyController, deck *DeckController, card *CardController, user *UserController) *ActionController {
	return &ActionController{
		Study: study,
		Deck:  deck,
		Card:  card,
		User:  user,
	}
}

// StudyAPI godoc
// @Summary 学习会话（旧接口）
// @Tags 兼容接口
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   action query string true "start_session|update_progress|complete_session|save_quiz_attempt|check_answer|session_stats|get_progress"
// @Success 200 {object} util.Response
// @Router /api/studyApi [get]
// @Router /api/studyApi [post]
func (c *ActionController) StudyAPI() gin.HandlerFunc {
	return actionTable{
		{http.MethodPost, "start_session"}:     c.Study.StartSession,
		{http.MethodPost, "update_progress"}:   c.Study.UpdateProgress,
		{http.MethodPost, "complete_session"}:  c.Study.CompleteSession,
		{http.MethodPost, "save_quiz_attempt"}: c.Study.SaveQuizAttempt,
		{http.MethodPost, "check_answer"}:      c.Study.CheckAnswer,
		{http.MethodGet, "session_stats"}:      c.Study.SessionStats,
		{http.MethodGet, "get_progress"}:       c.Study.GetProgress,
	}.dispatch
}

// DeckAPI godoc
// @Summary 牌组（旧接口）
// @Tags 兼容接口
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   action query string true "all|single|stats|create|update|delete|export"
// @Param   id query int false "牌组ID"
// @Success 200 {object} util.Response
// @Router /api/deckApi [get]
func (c *ActionController) DeckAPI() gin.HandlerFunc {
	return actionTable{
		{http.MethodGet, "all"}:       c.Deck.List,
		{http.MethodGet, "single"}:    c.Deck.Get,
		{http.MethodGet, "stats"}:     c.Deck.Stats,
		{http.MethodGet, "export"}:    c.Deck.Export,
		{http.MethodPost, "create"}:   c.Deck.Create,
		{http.MethodPut, "update"}:    c.Deck.Update,
		{http.MethodDelete, "delete"}: c.Deck.Delete,
	}.dispatch
}

// CardAPI godoc
// @Summary 卡片（旧接口）
// @Tags 兼容接口
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   action query string true "deck|single|create|update|reorder|delete"
// @Success 200 {object} util.Response
// @Router /api/cardApi [get]
func (c *ActionController) CardAPI() gin.HandlerFunc {
	return actionTable{
		{http.MethodGet, "deck"}:      c.Card.ListByDeck,
		{http.MethodGet, "single"}:    c.Card.Get,
		{http.MethodPost, "create"}:   c.Card.Create,
		{http.MethodPut, "update"}:    c.Card.Update,
		{http.MethodPut, "reorder"}:   c.Card.Reorder,
		{http.MethodDelete, "delete"}: c.Card.Delete,
	}.dispatch
}

// ProfileAPI godoc
// @Summary 个人资料（旧接口）
// @Tags 兼容接口
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   action query string true "profile|stats|update_username|update_email|update_password|delete_account"
// @Success 200 {object} util.Response
// @Router /api/profileApi [get]
func (c *ActionController) ProfileAPI() gin.HandlerFunc {
	return actionTable{
		{http.MethodGet, "profile"}:          c.User.GetProfile,
		{http.MethodGet, "stats"}:            c.User.GetStats,
		{http.MethodPost, "update_username"}: c.User.UpdateUsername,
		{http.MethodPost, "update_email"}:    c.User.UpdateEmail,
		{http.MethodPost, "update_password"}: c.User.UpdatePassword,
		{http.MethodPost, "delete_account"}:  c.User.DeleteAccount,
	}.dispatch
}
