package controller

import (
	"memodeck_backend/internal/config"
	"memodeck_backend/internal/service"
	"memodeck_backend/internal/util"
	"net/http"

	"github.com/gin-gonic/gin"
)

// UserController 个人资料
type UserController struct {
	UserService *service.UserService
	Cfg         *config.Config
}

func NewUserController(userService *service.UserService, cfg *config.Config) *UserController {
	return &UserController{
		UserService: userService,
		Cfg:         cfg,
	}
}

// GetProfile godoc
// @Summary 获取个人资料
// @Tags 个人资料
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response "user"
// @Router /api/profile [get]
func (c *UserController) GetProfile(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	profile, err := c.UserService.GetProfile(ctx.Request.Context(), userID)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"user": profile})
}

// GetStats godoc
// @Summary 个人学习统计
// @Tags 个人资料
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response "stats"
// @Router /api/profile/stats [get]
func (c *UserController) GetStats(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	stats, err := c.UserService.GetStats(ctx.Request.Context(), userID)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"stats": stats})
}

type UpdateUsernameRequest struct {
	NewUsername string `json:"new_username"`
	Password    string `json:"password"`
}

// UpdateUsername godoc
// @Summary 修改用户名
// @Tags 个人资料
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body UpdateUsernameRequest true "新用户名与当前密码"
// @Success 200 {object} util.Response "username"
// @Router /api/profile/username [post]
func (c *UserController) UpdateUsername(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	var req UpdateUsernameRequest
	if !bindJSON(ctx, &req) {
		return
	}
	username, err := c.UserService.UpdateUsername(ctx.Request.Context(), userID, req.NewUsername, req.Password)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.SuccessMessage(ctx, "Username updated successfully", gin.H{"username": username})
}

type UpdateEmailRequest struct {
	NewEmail string `json:"new_email"`
	Password string `json:"password"`
}

// UpdateEmail godoc
// @Summary 修改邮箱
// @Tags 个人资料
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body UpdateEmailRequest true "新邮箱与当前密码"
// @Success 200 {object} util.Response "email"
// @Router /api/profile/email [post]
func (c *UserController) UpdateEmail(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	var req UpdateEmailRequest
	if !bindJSON(ctx, &req) {
		return
	}
	email, err := c.UserService.UpdateEmail(ctx.Request.Context(), userID, req.NewEmail, req.Password)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.SuccessMessage(ctx, "Email updated successfully", gin.H{"email": email})
}

type UpdatePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
	ConfirmPassword string `json:"confirm_password"`
}

// UpdatePassword godoc
// @Summary 修改密码
// @Tags 个人资料
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body UpdatePasswordRequest true "当前密码与新密码"
// @Success 200 {object} util.Response "成功"
// @Router /api/profile/password [post]
func (c *UserController) UpdatePassword(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	var req UpdatePasswordRequest
	if !bindJSON(ctx, &req) {
		return
	}
	err := c.UserService.UpdatePassword(ctx.Request.Context(), userID, service.PasswordChange{
		CurrentPassword: req.CurrentPassword,
		NewPassword:     req.NewPassword,
		ConfirmPassword: req.ConfirmPassword,
	})
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.SuccessMessage(ctx, "Password updated successfully", nil)
}

// DeleteAccount godoc
// @Summary 注销账号
// @Description 删除账号及全部牌组、卡片与学习记录
// @Tags 个人资料
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response "成功"
// @Router /api/profile [delete]
func (c *UserController) DeleteAccount(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}
	if err := c.UserService.DeleteAccount(ctx.Request.Context(), claims); err != nil {
		util.HandleError(ctx, err)
		return
	}
	ctx.SetSameSite(http.SameSiteLaxMode)
	ctx.SetCookie(c.Cfg.JWT.CookieName, "", -1, "/", "", c.Cfg.Server.Mode == "release", true)
	util.SuccessMessage(ctx, "Account deleted successfully", nil)
}
