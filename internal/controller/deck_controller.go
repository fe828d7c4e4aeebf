package controller

import (
	"fmt"
	"memodeck_backend/internal/service"
	"memodeck_backend/internal/util"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
)

type DeckController struct {
	DeckService     *service.DeckService
	TransferService *service.DeckTransferService
}

func NewDeckController(deckService *service.DeckService, transferService *service.DeckTransferService) *DeckController {
	return &DeckController{
		DeckService:     deckService,
		TransferService: transferService,
	}
}

// List godoc
// @Summary 获取全部牌组
// @Tags 牌组
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response "decks"
// @Router /api/decks [get]
func (c *DeckController) List(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	decks, err := c.DeckService.List(ctx.Request.Context(), userID)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"decks": decks})
}

// Get godoc
// @Summary 获取单个牌组（含卡片）
// @Tags 牌组
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "牌组ID"
// @Success 200 {object} util.Response "deck"
// @Failure 400 {object} util.Response "Deck not found or unauthorized"
// @Router /api/decks/{id} [get]
func (c *DeckController) Get(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	deck, err := c.DeckService.Get(ctx.Request.Context(), userID, idParam(ctx, "id"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"deck": deck})
}

// Stats godoc
// @Summary 牌组统计
// @Tags 牌组
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response "stats"
// @Router /api/decks/stats [get]
func (c *DeckController) Stats(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	stats, err := c.DeckService.Stats(ctx.Request.Context(), userID)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"stats": stats})
}

type CreateDeckRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Color       string `json:"color"`
}

// Create godoc
// @Summary 创建牌组
// @Tags 牌组
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body CreateDeckRequest true "牌组信息"
// @Success 201 {object} util.Response "deck"
// @Router /api/decks [post]
func (c *DeckController) Create(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	var req CreateDeckRequest
	if !bindJSON(ctx, &req) {
		return
	}
	deck, err := c.DeckService.Create(ctx.Request.Context(), userID, service.DeckInput{
		Name:        req.Name,
		Description: req.Description,
		Color:       req.Color,
	})
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Created(ctx, "Deck created successfully", gin.H{"deck": deck})
}

// UpdateDeckRequest best_score 只会提高，quiz_completed 由服务端重算
type UpdateDeckRequest struct {
	Name          *string  `json:"name"`
	Description   *string  `json:"description"`
	Color         *string  `json:"color"`
	BestScore     *int     `json:"best_score"`
	LastAccuracy  *float64 `json:"last_accuracy"`
	QuizCompleted *bool    `json:"quiz_completed"`
}

// Update godoc
// @Summary 更新牌组
// @Tags 牌组
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "牌组ID"
// @Param   body body UpdateDeckRequest true "需要修改的字段"
// @Success 200 {object} util.Response "deck"
// @Router /api/decks/{id} [put]
func (c *DeckController) Update(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	var req UpdateDeckRequest
	if !bindJSON(ctx, &req) {
		return
	}
	deck, err := c.DeckService.Update(ctx.Request.Context(), userID, idParam(ctx, "id"), service.DeckUpdate{
		Name:          req.Name,
		Description:   req.Description,
		Color:         req.Color,
		BestScore:     req.BestScore,
		LastAccuracy:  req.LastAccuracy,
		QuizCompleted: req.QuizCompleted,
	})
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"deck": deck})
}

// Delete godoc
// @Summary 删除牌组
// @Tags 牌组
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "牌组ID"
// @Success 200 {object} util.Response "成功"
// @Router /api/decks/{id} [delete]
func (c *DeckController) Delete(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	if err := c.DeckService.Delete(ctx.Request.Context(), userID, idParam(ctx, "id")); err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.SuccessMessage(ctx, "Deck deleted successfully", nil)
}

func importResponse(ctx *gin.Context, result *service.ImportResult) {
	message := fmt.Sprintf("Deck imported successfully with %d cards", result.SuccessCount)
	if result.FailCount > 0 {
		message += fmt.Sprintf(" (%d failed)", result.FailCount)
	}
	util.SuccessMessage(ctx, message, gin.H{
		"deck": result.Deck,
		"stats": gin.H{
			"total_cards":   result.TotalCards,
			"success_count": result.SuccessCount,
			"fail_count":    result.FailCount,
		},
	})
}

// Import godoc
// @Summary 通过 JSON 导入牌组
// @Tags 导入导出
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body service.ImportDeckInput true "牌组与卡片"
// @Success 200 {object} util.Response "成功"
// @Failure 400 {object} util.Response "No cards could be imported"
// @Router /api/decks/import [post]
func (c *DeckController) Import(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	var req service.ImportDeckInput
	if !bindJSON(ctx, &req) {
		return
	}
	result, err := c.TransferService.Import(ctx.Request.Context(), userID, req)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	importResponse(ctx, result)
}

// ImportFile godoc
// @Summary 通过 CSV/XLSX 文件导入牌组
// @Description 首行表头须包含 Question 与 Answer 列
// @Tags 导入导出
// @Accept  multipart/form-data
// @Produce  json
// @Security ApiKeyAuth
// @Param   file formData file true "CSV 或 XLSX 文件"
// @Param   name formData string false "牌组名称，默认使用文件名"
// @Param   description formData string false "描述"
// @Param   color formData string false "颜色"
// @Success 200 {object} util.Response "成功"
// @Router /api/decks/import/file [post]
func (c *DeckController) ImportFile(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}

	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		util.BadRequest(ctx, "File is required")
		return
	}
	if fileHeader.Size > util.MaxImportFileSize {
		util.BadRequest(ctx, "File exceeds the 5MB limit")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	defer file.Close()

	ext, err := util.ValidateImportFile(fileHeader.Filename, file)
	if err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	if _, err := file.Seek(0, 0); err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	cards, err := c.TransferService.ParseFile(ext, file)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}

	name := strings.TrimSpace(ctx.PostForm("name"))
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(fileHeader.Filename), filepath.Ext(fileHeader.Filename))
	}
	result, err := c.TransferService.Import(ctx.Request.Context(), userID, service.ImportDeckInput{
		Name:        name,
		Description: ctx.PostForm("description"),
		Color:       ctx.PostForm("color"),
		Cards:       cards,
	})
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	importResponse(ctx, result)
}

// Export godoc
// @Summary 导出牌组
// @Tags 导入导出
// @Produce  octet-stream
// @Security ApiKeyAuth
// @Param   id path int true "牌组ID"
// @Param   format query string false "csv 或 xlsx，默认 csv"
// @Success 200 {file} file "导出文件"
// @Failure 400 {object} util.Response "No cards to export"
// @Router /api/decks/{id}/export [get]
func (c *DeckController) Export(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	file, err := c.TransferService.Export(ctx.Request.Context(), userID, idParam(ctx, "id"), strings.ToLower(ctx.Query("format")))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	ctx.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, file.Filename))
	ctx.Data(http.StatusOK, file.ContentType, file.Data)
}
