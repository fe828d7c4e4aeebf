package controller

import (
	"memodeck_backend/internal/quiz"
	"memodeck_backend/internal/service"
	"memodeck_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type StudyController struct {
	StudyService *service.StudyService
}

func NewStudyController(studyService *service.StudyService) *StudyController {
	return &StudyController{StudyService: studyService}
}

// sessionID 路径 :id 优先于请求体中的 session_id
func sessionID(ctx *gin.Context, fromBody uint) uint {
	if v := ctx.Param("id"); v != "" {
		return util.MustParseUint(v)
	}
	return fromBody
}

type StartSessionRequest struct {
	DeckID      uint   `json:"deck_id"`
	SessionType string `json:"session_type"`
}

// StartSession godoc
// @Summary 开始学习会话
// @Tags 学习
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body StartSessionRequest true "牌组与会话类型 flip/quiz"
// @Success 200 {object} util.Response "session_id"
// @Router /api/study/sessions [post]
func (c *StudyController) StartSession(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	var req StartSessionRequest
	if !bindJSON(ctx, &req) {
		return
	}
	session, err := c.StudyService.StartSession(ctx.Request.Context(), userID, req.DeckID, req.SessionType)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.SuccessMessage(ctx, "Study session started", gin.H{
		"session_id":   session.ID,
		"session_type": session.SessionType,
	})
}

type UpdateProgressRequest struct {
	SessionID        uint  `json:"session_id"`
	CardID           uint  `json:"card_id"`
	Flipped          *bool `json:"flipped"`
	TimeSpentSeconds int   `json:"time_spent_seconds"`
}

// UpdateProgress godoc
// @Summary 记录翻卡进度
// @Description 同一张卡重复提交时耗时累加
// @Tags 学习
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "会话ID"
// @Param   body body UpdateProgressRequest true "卡片与耗时"
// @Success 200 {object} util.Response "成功"
// @Router /api/study/sessions/{id}/progress [post]
func (c *StudyController) UpdateProgress(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	var req UpdateProgressRequest
	if !bindJSON(ctx, &req) {
		return
	}
	err := c.StudyService.RecordFlip(ctx.Request.Context(), userID, service.FlipInput{
		SessionID:        sessionID(ctx, req.SessionID),
		CardID:           req.CardID,
		Flipped:          req.Flipped,
		TimeSpentSeconds: req.TimeSpentSeconds,
	})
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.SuccessMessage(ctx, "Progress updated", nil)
}

type CompleteSessionRequest struct {
	SessionID uint `json:"session_id"`
}

// CompleteSession godoc
// @Summary 完成翻卡会话
// @Tags 学习
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "会话ID"
// @Success 200 {object} util.Response "成功"
// @Router /api/study/sessions/{id}/complete [post]
func (c *StudyController) CompleteSession(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	var req CompleteSessionRequest
	if ctx.Param("id") == "" && !bindJSON(ctx, &req) {
		return
	}
	session, err := c.StudyService.CompleteFlipSession(ctx.Request.Context(), userID, sessionID(ctx, req.SessionID))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.SuccessMessage(ctx, "Session completed", gin.H{
		"duration_seconds": session.DurationSeconds,
		"cards_studied":    session.CardsStudied,
	})
}

type SaveQuizAttemptRequest struct {
	SessionID      uint            `json:"session_id"`
	DeckID         uint            `json:"deck_id"`
	Score          int             `json:"score"`
	TotalQuestions int             `json:"total_questions"`
	BestStreak     int             `json:"best_streak"`
	Completed      *bool           `json:"completed"`
	Responses      []quiz.Response `json:"responses"`
}

// SaveQuizAttempt godoc
// @Summary 保存测验结果
// @Description 单个事务内写入测验记录并更新会话、统计与牌组掌握度
// @Tags 学习
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "会话ID"
// @Param   body body SaveQuizAttemptRequest true "测验结果"
// @Success 200 {object} util.Response "attempt_id, accuracy, performance_level"
// @Failure 500 {object} util.Response "保存失败，已回滚"
// @Router /api/study/sessions/{id}/quiz-attempt [post]
func (c *StudyController) SaveQuizAttempt(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	var req SaveQuizAttemptRequest
	if !bindJSON(ctx, &req) {
		return
	}
	result, err := c.StudyService.SaveQuizAttempt(ctx.Request.Context(), userID, service.QuizAttemptInput{
		SessionID:      sessionID(ctx, req.SessionID),
		DeckID:         req.DeckID,
		Score:          req.Score,
		TotalQuestions: req.TotalQuestions,
		BestStreak:     req.BestStreak,
		Completed:      req.Completed,
		Responses:      req.Responses,
	})
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.SuccessMessage(ctx, "Quiz attempt saved successfully", gin.H{
		"attempt_id":        result.AttemptID,
		"score":             result.Score,
		"total_questions":   result.TotalQuestions,
		"accuracy":          result.Accuracy,
		"performance_level": result.PerformanceLevel,
	})
}

type CheckAnswerRequest struct {
	CardID uint   `json:"card_id"`
	Answer string `json:"answer"`
}

// CheckAnswer godoc
// @Summary 校验单题答案
// @Tags 学习
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body CheckAnswerRequest true "卡片与答案"
// @Success 200 {object} util.Response "is_correct, correct_answer"
// @Router /api/study/check-answer [post]
func (c *StudyController) CheckAnswer(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	var req CheckAnswerRequest
	if !bindJSON(ctx, &req) {
		return
	}
	correct, answer, err := c.StudyService.CheckAnswer(ctx.Request.Context(), userID, req.CardID, req.Answer)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"is_correct": correct, "correct_answer": answer})
}

// SessionStats godoc
// @Summary 牌组学习会话统计
// @Tags 学习
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "牌组ID"
// @Success 200 {object} util.Response "stats, recent_sessions"
// @Router /api/decks/{id}/session-stats [get]
func (c *StudyController) SessionStats(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	stats, recent, err := c.StudyService.GetDeckSessionStats(ctx.Request.Context(), userID, idParam(ctx, "deck_id"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"stats": stats, "recent_sessions": recent})
}

// GetProgress godoc
// @Summary 当前会话进度
// @Tags 学习
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "会话ID"
// @Success 200 {object} util.Response "session, progress"
// @Router /api/study/sessions/{id}/progress [get]
func (c *StudyController) GetProgress(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	session, progress, err := c.StudyService.GetSessionProgress(ctx.Request.Context(), userID, idParam(ctx, "session_id"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"session": session, "progress": progress})
}
