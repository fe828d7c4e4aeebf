package controller

import (
	"memodeck_backend/internal/service"
	"memodeck_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type PasswordResetController struct {
	ResetService *service.PasswordResetService
}

func NewPasswordResetController(resetService *service.PasswordResetService) *PasswordResetController {
	return &PasswordResetController{ResetService: resetService}
}

type SendOTPRequest struct {
	Email  string `json:"email"`
	Resend bool   `json:"resend"`
}

// SendOTP godoc
// @Summary 发送密码重置验证码
// @Description 邮箱未注册时同样返回成功
// @Tags 密码重置
// @Accept  json
// @Produce  json
// @Param   body body SendOTPRequest true "邮箱"
// @Success 200 {object} util.Response "成功"
// @Failure 429 {object} util.Response "验证码仍有效"
// @Router /api/password/otp [post]
func (c *PasswordResetController) SendOTP(ctx *gin.Context) {
	var req SendOTPRequest
	if !bindJSON(ctx, &req) {
		return
	}
	if err := c.ResetService.SendOTP(ctx.Request.Context(), req.Email, req.Resend); err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.SuccessMessage(ctx, service.MsgOTPSent, nil)
}

type VerifyOTPRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

// VerifyOTP godoc
// @Summary 校验验证码
// @Description 成功后返回短期 reset_token
// @Tags 密码重置
// @Accept  json
// @Produce  json
// @Param   body body VerifyOTPRequest true "邮箱与验证码"
// @Success 200 {object} util.Response "成功"
// @Failure 400 {object} util.Response "验证码无效或已过期"
// @Router /api/password/verify [post]
func (c *PasswordResetController) VerifyOTP(ctx *gin.Context) {
	var req VerifyOTPRequest
	if !bindJSON(ctx, &req) {
		return
	}
	token, err := c.ResetService.VerifyOTP(ctx.Request.Context(), req.Email, req.OTP)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.SuccessMessage(ctx, "OTP verified", gin.H{"reset_token": token})
}

type ResetPasswordRequest struct {
	Email       string `json:"email"`
	ResetToken  string `json:"reset_token"`
	NewPassword string `json:"new_password"`
}

// ResetPassword godoc
// @Summary 重置密码
// @Tags 密码重置
// @Accept  json
// @Produce  json
// @Param   body body ResetPasswordRequest true "重置信息"
// @Success 200 {object} util.Response "成功"
// @Failure 401 {object} util.Response "重置令牌无效"
// @Router /api/password/reset [post]
func (c *PasswordResetController) ResetPassword(ctx *gin.Context) {
	var req ResetPasswordRequest
	if !bindJSON(ctx, &req) {
		return
	}
	if err := c.ResetService.ResetPassword(ctx.Request.Context(), req.ResetToken, req.Email, req.NewPassword); err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.SuccessMessage(ctx, service.MsgPasswordReset, nil)
}
