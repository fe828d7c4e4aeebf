package controller

import (
	"memodeck_backend/internal/service"
	"memodeck_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type CardController struct {
	CardService *service.CardService
}

func NewCardController(cardService *service.CardService) *CardController {
	return &CardController{CardService: cardService}
}

// ListByDeck godoc
// @Summary 获取牌组内的卡片
// @Tags 卡片
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "牌组ID"
// @Success 200 {object} util.Response "cards"
// @Router /api/decks/{id}/cards [get]
func (c *CardController) ListByDeck(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	cards, err := c.CardService.ListByDeck(ctx.Request.Context(), userID, idParam(ctx, "deck_id"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"cards": cards})
}

// Get godoc
// @Summary 获取单张卡片
// @Tags 卡片
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "卡片ID"
// @Success 200 {object} util.Response "card"
// @Router /api/cards/{id} [get]
func (c *CardController) Get(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	card, err := c.CardService.Get(ctx.Request.Context(), userID, idParam(ctx, "id"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"card": card})
}

type CreateCardRequest struct {
	DeckID   uint   `json:"deck_id"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Create godoc
// @Summary 创建卡片
// @Tags 卡片
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body CreateCardRequest true "卡片内容"
// @Success 201 {object} util.Response "card"
// @Router /api/cards [post]
func (c *CardController) Create(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	var req CreateCardRequest
	if !bindJSON(ctx, &req) {
		return
	}
	card, err := c.CardService.Create(ctx.Request.Context(), userID, service.CardInput{
		DeckID:   req.DeckID,
		Question: req.Question,
		Answer:   req.Answer,
	})
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Created(ctx, "Card created successfully", gin.H{"card": card})
}

type UpdateCardRequest struct {
	Question *string `json:"question"`
	Answer   *string `json:"answer"`
	Position *int    `json:"position"`
}

// Update godoc
// @Summary 更新卡片
// @Tags 卡片
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "卡片ID"
// @Param   body body UpdateCardRequest true "需要修改的字段"
// @Success 200 {object} util.Response "card"
// @Router /api/cards/{id} [put]
func (c *CardController) Update(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	var req UpdateCardRequest
	if !bindJSON(ctx, &req) {
		return
	}
	card, err := c.CardService.Update(ctx.Request.Context(), userID, idParam(ctx, "id"), service.CardUpdate{
		Question: req.Question,
		Answer:   req.Answer,
		Position: req.Position,
	})
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"card": card})
}

// ReorderRequest cards 为新顺序下的卡片ID
type ReorderRequest struct {
	DeckID uint   `json:"deck_id"`
	Cards  []uint `json:"cards"`
}

// Reorder godoc
// @Summary 调整卡片顺序
// @Tags 卡片
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body ReorderRequest true "牌组ID与卡片ID列表"
// @Success 200 {object} util.Response "成功"
// @Router /api/cards/reorder [put]
func (c *CardController) Reorder(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	var req ReorderRequest
	if !bindJSON(ctx, &req) {
		return
	}
	if err := c.CardService.Reorder(ctx.Request.Context(), userID, req.DeckID, req.Cards); err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.SuccessMessage(ctx, "Cards reordered successfully", nil)
}

// Delete godoc
// @Summary 删除卡片
// @Tags 卡片
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "卡片ID"
// @Success 200 {object} util.Response "成功"
// @Router /api/cards/{id} [delete]
func (c *CardController) Delete(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	if err := c.CardService.Delete(ctx.Request.Context(), userID, idParam(ctx, "id")); err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.SuccessMessage(ctx, "Card deleted successfully", nil)
}
