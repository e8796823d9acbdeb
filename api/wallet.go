package api

import (
	"errors"
	"strconv"

	"mina/database"
	"mina/middleware"
	"mina/service"

	"github.com/gin-gonic/gin"
)

// WalletHandler 钱包处理器
type WalletHandler struct{}

// NewWalletHandler 创建钱包处理器
func NewWalletHandler() *WalletHandler {
	return &WalletHandler{}
}

// WalletRequest 钱包创建/更新请求
type WalletRequest struct {
	Name         string   `json:"name" example:"现金"`
	Description  string   `json:"description" example:"日常开销"`
	Currency     string   `json:"currency" example:"VND"`
	MonthlyLimit *float64 `json:"monthly_limit" example:"3000"`
	IsDefault    bool     `json:"is_default"`
}

func (r *WalletRequest) toInput() service.WalletInput {
	return service.WalletInput{
		Name:         r.Name,
		Description:  r.Description,
		Currency:     r.Currency,
		MonthlyLimit: r.MonthlyLimit,
		IsDefault:    r.IsDefault,
	}
}

// Create 创建钱包
// @Summary 创建钱包
// @Description 创建钱包，用户的第一个钱包自动成为默认钱包
// @Tags 钱包
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body WalletRequest true "钱包信息"
// @Success 200 {object} Response{data=models.Wallet} "创建成功"
// @Failure 400 {object} Response "请求参数错误"
// @Router /api/v1/wallets [post]
func (h *WalletHandler) Create(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	var req WalletRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	wallet, err := service.NewWalletService(database.DB).Create(userID, req.toInput())
	if err != nil {
		if errors.Is(err, service.ErrInvalidInput) {
			BadRequest(c, "钱包名称不能为空")
			return
		}
		InternalError(c, SafeErrorMessage(err, "创建钱包失败"))
		return
	}

	SuccessWithMessage(c, "创建成功", wallet)
}

// List 获取钱包列表
// @Summary 获取钱包列表
// @Tags 钱包
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response{data=[]models.Wallet} "获取成功"
// @Router /api/v1/wallets [get]
func (h *WalletHandler) List(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	wallets, err := service.NewWalletService(database.DB).List(userID)
	if err != nil {
		InternalError(c, SafeErrorMessage(err, "查询钱包失败"))
		return
	}

	Success(c, wallets)
}

// Get 获取钱包详情
// @Summary 获取钱包详情
// @Tags 钱包
// @Produce json
// @Security BearerAuth
// @Param id path int true "钱包ID"
// @Success 200 {object} Response{data=models.Wallet} "获取成功"
// @Failure 404 {object} Response "钱包不存在"
// @Router /api/v1/wallets/{id} [get]
func (h *WalletHandler) Get(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	walletID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		BadRequest(c, "无效的钱包ID")
		return
	}

	wallet, err := service.NewWalletService(database.DB).Get(userID, uint(walletID))
	if err != nil {
		if errors.Is(err, service.ErrWalletNotFound) {
			NotFound(c, "钱包不存在")
			return
		}
		InternalError(c, SafeErrorMessage(err, "查询钱包失败"))
		return
	}

	Success(c, wallet)
}

// Balance 获取钱包余额及历史收支汇总
// @Summary 获取钱包余额
// @Tags 钱包
// @Produce json
// @Security BearerAuth
// @Param id path int true "钱包ID"
// @Success 200 {object} Response "获取成功"
// @Failure 404 {object} Response "钱包不存在"
// @Router /api/v1/wallets/{id}/balance [get]
func (h *WalletHandler) Balance(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	walletID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		BadRequest(c, "无效的钱包ID")
		return
	}

	balance, income, expense, err := service.NewWalletService(database.DB).Balance(userID, uint(walletID))
	if err != nil {
		if errors.Is(err, service.ErrWalletNotFound) {
			NotFound(c, "钱包不存在")
			return
		}
		InternalError(c, SafeErrorMessage(err, "查询余额失败"))
		return
	}

	Success(c, gin.H{
		"balance":       balance,
		"total_income":  income,
		"total_expense": expense,
	})
}

// Update 更新钱包
// @Summary 更新钱包
// @Description 更新钱包名称、描述、月度限额或默认标记，余额不可直接修改
// @Tags 钱包
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "钱包ID"
// @Param request body WalletRequest true "钱包信息"
// @Success 200 {object} Response{data=models.Wallet} "更新成功"
// @Failure 404 {object} Response "钱包不存在"
// @Router /api/v1/wallets/{id} [put]
func (h *WalletHandler) Update(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	walletID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		BadRequest(c, "无效的钱包ID")
		return
	}

	var req WalletRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	wallet, err := service.NewWalletService(database.DB).Update(userID, uint(walletID), req.toInput())
	if err != nil {
		if errors.Is(err, service.ErrWalletNotFound) {
			NotFound(c, "钱包不存在")
			return
		}
		InternalError(c, SafeErrorMessage(err, "更新钱包失败"))
		return
	}

	SuccessWithMessage(c, "更新成功", wallet)
}

// SetDefault 设置默认钱包
// @Summary 设置默认钱包
// @Tags 钱包
// @Produce json
// @Security BearerAuth
// @Param id path int true "钱包ID"
// @Success 200 {object} Response "设置成功"
// @Failure 404 {object} Response "钱包不存在"
// @Router /api/v1/wallets/{id}/default [put]
func (h *WalletHandler) SetDefault(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	walletID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		BadRequest(c, "无效的钱包ID")
		return
	}

	if err := service.NewWalletService(database.DB).SetDefault(userID, uint(walletID)); err != nil {
		if errors.Is(err, service.ErrWalletNotFound) {
			NotFound(c, "钱包不存在")
			return
		}
		InternalError(c, SafeErrorMessage(err, "设置默认钱包失败"))
		return
	}

	SuccessWithMessage(c, "设置成功", nil)
}

// Delete 删除钱包
// @Summary 删除钱包
// @Description 默认钱包或仍有交易记录的钱包不可删除
// @Tags 钱包
// @Produce json
// @Security BearerAuth
// @Param id path int true "钱包ID"
// @Success 200 {object} Response "删除成功"
// @Failure 404 {object} Response "钱包不存在"
// @Failure 409 {object} Response "钱包不可删除"
// @Router /api/v1/wallets/{id} [delete]
func (h *WalletHandler) Delete(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	walletID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		BadRequest(c, "无效的钱包ID")
		return
	}

	if err := service.NewWalletService(database.DB).Delete(userID, uint(walletID)); err != nil {
		switch {
		case errors.Is(err, service.ErrWalletNotFound):
			NotFound(c, "钱包不存在")
		case errors.Is(err, service.ErrWalletConflict):
			Conflict(c, "默认钱包或仍有交易记录的钱包不可删除")
		default:
			InternalError(c, SafeErrorMessage(err, "删除钱包失败"))
		}
		return
	}

	SuccessWithMessage(c, "删除成功", nil)
}
