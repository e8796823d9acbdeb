package api

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"mina/database"
	"mina/middleware"
	"mina/models"
	"mina/service"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// TransactionHandler 交易记录处理器
type TransactionHandler struct{}

// NewTransactionHandler 创建交易记录处理器
func NewTransactionHandler() *TransactionHandler {
	return &TransactionHandler{}
}

// TransactionRequest 创建/更新交易请求
// 类别可以用名称（category）或确认后的ID（category_id）指定；
// 名称未命中时返回建议集合，客户端确认后携带 category_id 重试
type TransactionRequest struct {
	WalletID   uint    `json:"wallet_id" example:"1"` // 0 表示默认钱包
	Amount     float64 `json:"amount" binding:"required,gt=0" example:"99.99"`
	Type       string  `json:"type" binding:"required,oneof=income expense" example:"expense"`
	Category   string  `json:"category" example:"Food"`
	CategoryID uint    `json:"category_id" example:"5"`
	Notes      string  `json:"notes" example:"午餐"`
	Icon       string  `json:"icon" example:"🍜"`
	Date       string  `json:"date" example:"2026-03-10 12:30:00"`
}

// TransactionListRequest 交易列表请求
type TransactionListRequest struct {
	Page       int    `form:"page" example:"1"`
	PageSize   int    `form:"page_size" example:"10"`
	WalletID   uint   `form:"wallet_id" example:"1"`
	Type       string `form:"type" example:"expense"`
	CategoryID uint   `form:"category_id" example:"5"`
	StartTime  string `form:"start_time" example:"2026-01-01"`
	EndTime    string `form:"end_time" example:"2026-12-31"`
}

func (r *TransactionRequest) toInput() (service.TransactionInput, error) {
	input := service.TransactionInput{
		WalletID:   r.WalletID,
		Amount:     r.Amount,
		Type:       r.Type,
		Category:   strings.TrimSpace(r.Category),
		CategoryID: r.CategoryID,
		Notes:      r.Notes,
		Icon:       r.Icon,
	}
	if r.Date != "" {
		date, err := time.ParseInLocation("2006-01-02 15:04:05", r.Date, time.Local)
		if err != nil {
			return input, err
		}
		input.Date = date
	}
	return input, nil
}

// writeLedgerError 把账本错误翻译为 HTTP 状态
func writeLedgerError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		BadRequest(c, "金额或交易类型无效")
	case errors.Is(err, service.ErrWalletNotFound):
		NotFound(c, "钱包不存在")
	case errors.Is(err, service.ErrCategoryNotFound):
		NotFound(c, "类别不存在")
	case errors.Is(err, service.ErrTransactionNotFound):
		NotFound(c, "交易记录不存在")
	case errors.Is(err, service.ErrInsufficientFunds):
		Conflict(c, "钱包余额不足")
	default:
		InternalError(c, SafeErrorMessage(err, fallback))
	}
}

// Create 创建交易
// @Summary 创建交易
// @Description 创建收入或支出。类别名未命中时返回 needs_category_confirm 与建议集合，此时不产生任何写入
// @Tags 交易
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body TransactionRequest true "交易信息"
// @Success 200 {object} Response{data=models.Transaction} "创建成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 404 {object} Response "钱包或类别不存在"
// @Failure 409 {object} Response "钱包余额不足"
// @Router /api/v1/transactions [post]
func (h *TransactionHandler) Create(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	var req TransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "参数错误"))
		return
	}

	input, err := req.toInput()
	if err != nil {
		BadRequest(c, "时间格式错误，应为: 2006-01-02 15:04:05")
		return
	}

	txn, pending, err := service.NewLedgerService(database.DB).Create(userID, input)
	if err != nil {
		writeLedgerError(c, err, "创建交易失败")
		return
	}
	if pending != nil {
		Success(c, gin.H{
			"needs_category_confirm": true,
			"requested_name":         pending.RequestedName,
			"suggestions":            pending.Suggestions,
		})
		return
	}

	SuccessWithMessage(c, "创建成功", txn)
}

// Update 更新交易
// @Summary 更新交易
// @Description 先回退旧效果再施加新效果，余额按净增量校验
// @Tags 交易
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "交易ID"
// @Param request body TransactionRequest true "交易信息"
// @Success 200 {object} Response{data=models.Transaction} "更新成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 404 {object} Response "交易记录不存在"
// @Failure 409 {object} Response "钱包余额不足"
// @Router /api/v1/transactions/{id} [put]
func (h *TransactionHandler) Update(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		BadRequest(c, "无效的ID")
		return
	}

	var req TransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "参数错误"))
		return
	}

	input, err := req.toInput()
	if err != nil {
		BadRequest(c, "时间格式错误，应为: 2006-01-02 15:04:05")
		return
	}

	txn, pending, err := service.NewLedgerService(database.DB).Update(userID, uint(id), input)
	if err != nil {
		writeLedgerError(c, err, "更新交易失败")
		return
	}
	if pending != nil {
		Success(c, gin.H{
			"needs_category_confirm": true,
			"requested_name":         pending.RequestedName,
			"suggestions":            pending.Suggestions,
		})
		return
	}

	SuccessWithMessage(c, "更新成功", txn)
}

// Delete 删除交易
// @Summary 删除交易
// @Description 删除交易并回退其对余额与报表的全部效果
// @Tags 交易
// @Produce json
// @Security BearerAuth
// @Param id path int true "交易ID"
// @Success 200 {object} Response "删除成功"
// @Failure 404 {object} Response "交易记录不存在"
// @Router /api/v1/transactions/{id} [delete]
func (h *TransactionHandler) Delete(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		BadRequest(c, "无效的ID")
		return
	}

	if _, err := service.NewLedgerService(database.DB).Delete(userID, uint(id)); err != nil {
		writeLedgerError(c, err, "删除交易失败")
		return
	}

	SuccessWithMessage(c, "删除成功", nil)
}

// List 获取交易列表
// @Summary 获取交易列表
// @Description 获取当前用户的交易记录，支持分页及按钱包、类型、类别、时间范围筛选
// @Tags 交易
// @Produce json
// @Security BearerAuth
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量" default(10)
// @Param wallet_id query int false "钱包筛选"
// @Param type query string false "类型筛选 income/expense"
// @Param category_id query int false "类别筛选"
// @Param start_time query string false "开始时间 (2026-01-01)"
// @Param end_time query string false "结束时间 (2026-12-31)"
// @Success 200 {object} Response{data=PageResponse{list=[]models.Transaction}} "获取成功"
// @Router /api/v1/transactions [get]
func (h *TransactionHandler) List(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	var req TransactionListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "参数错误"))
		return
	}

	// 默认分页参数
	if req.Page <= 0 {
		req.Page = 1
	}
	if req.PageSize <= 0 {
		req.PageSize = 10
	}
	if req.PageSize > 100 {
		req.PageSize = 100
	}

	query := database.DB.Model(&models.Transaction{}).Where("user_id = ?", userID)

	if req.WalletID > 0 {
		query = query.Where("wallet_id = ?", req.WalletID)
	}
	if models.IsValidTransactionType(req.Type) {
		query = query.Where("type = ?", req.Type)
	}
	if req.CategoryID > 0 {
		query = query.Where("category_id = ?", req.CategoryID)
	}

	// 时间范围筛选
	if req.StartTime != "" {
		startTime, err := time.ParseInLocation("2006-01-02", req.StartTime, time.Local)
		if err == nil {
			query = query.Where("date >= ?", startTime)
		}
	}
	if req.EndTime != "" {
		endTime, err := time.ParseInLocation("2006-01-02", req.EndTime, time.Local)
		if err == nil {
			// 包含结束日期当天
			endTime = endTime.Add(24*time.Hour - time.Second)
			query = query.Where("date <= ?", endTime)
		}
	}

	var total int64
	query.Count(&total)

	var transactions []models.Transaction
	offset := (req.Page - 1) * req.PageSize
	if err := query.Order("date DESC").Offset(offset).Limit(req.PageSize).Find(&transactions).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "查询失败"))
		return
	}

	Success(c, PageResponse{
		Total:    total,
		Page:     req.Page,
		PageSize: req.PageSize,
		List:     transactions,
	})
}

// Stats 获取交易统计
// @Summary 获取交易统计
// @Description 获取指定时间范围内的收支总额与按类别的累计，适合绘制饼图
// @Tags 交易
// @Produce json
// @Security BearerAuth
// @Param wallet_id query int false "钱包筛选"
// @Param start_time query string false "开始时间 (2026-01-01)"
// @Param end_time query string false "结束时间 (2026-12-31)"
// @Success 200 {object} Response "获取成功"
// @Router /api/v1/transactions/statistics [get]
func (h *TransactionHandler) Stats(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	query := database.DB.Model(&models.Transaction{}).Where("user_id = ?", userID)
	if walletID := c.Query("wallet_id"); walletID != "" {
		query = query.Where("wallet_id = ?", walletID)
	}

	// 时间范围筛选
	if startTimeStr := c.Query("start_time"); startTimeStr != "" {
		startTime, err := time.ParseInLocation("2006-01-02", startTimeStr, time.Local)
		if err == nil {
			query = query.Where("date >= ?", startTime)
		}
	}
	if endTimeStr := c.Query("end_time"); endTimeStr != "" {
		endTime, err := time.ParseInLocation("2006-01-02", endTimeStr, time.Local)
		if err == nil {
			endTime = endTime.Add(24*time.Hour - time.Second)
			query = query.Where("date <= ?", endTime)
		}
	}

	// 收支总额
	var totalIncome, totalExpense float64
	query.Session(&gorm.Session{}).Where("type = ?", models.TransactionTypeIncome).
		Select("COALESCE(SUM(amount), 0)").Scan(&totalIncome)
	query.Session(&gorm.Session{}).Where("type = ?", models.TransactionTypeExpense).
		Select("COALESCE(SUM(amount), 0)").Scan(&totalExpense)

	// 按类别统计
	type CategoryStat struct {
		CategoryID   uint    `json:"category_id"`
		CategoryName string  `json:"category_name"`
		Type         string  `json:"type"`
		Total        float64 `json:"total"`
		Count        int64   `json:"count"`
	}
	var categoryStats []CategoryStat

	query.Session(&gorm.Session{}).
		Select("category_id, category_name, type, SUM(amount) as total, COUNT(*) as count").
		Group("category_id, category_name, type").
		Order("total DESC").
		Scan(&categoryStats)

	Success(c, gin.H{
		"total_income":   totalIncome,
		"total_expense":  totalExpense,
		"balance":        totalIncome - totalExpense,
		"category_stats": categoryStats,
	})
}

// Get 获取单条交易
// @Summary 获取单条交易
// @Tags 交易
// @Produce json
// @Security BearerAuth
// @Param id path int true "交易ID"
// @Success 200 {object} Response{data=models.Transaction} "获取成功"
// @Failure 404 {object} Response "交易记录不存在"
// @Router /api/v1/transactions/{id} [get]
func (h *TransactionHandler) Get(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		BadRequest(c, "无效的ID")
		return
	}

	var txn models.Transaction
	if err := database.DB.Where("id = ? AND user_id = ?", id, userID).First(&txn).Error; err != nil {
		NotFound(c, "交易记录不存在")
		return
	}

	Success(c, txn)
}
