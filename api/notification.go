package api

import (
	"strconv"

	"mina/database"
	"mina/middleware"
	"mina/models"

	"github.com/gin-gonic/gin"
)

// NotificationHandler 通知处理器
type NotificationHandler struct{}

// NewNotificationHandler 创建通知处理器
func NewNotificationHandler() *NotificationHandler {
	return &NotificationHandler{}
}

// NotificationListRequest 通知列表请求
type NotificationListRequest struct {
	Page     int   `form:"page" example:"1"`
	PageSize int   `form:"page_size" example:"10"`
	Unread   *bool `form:"unread"`
}

// List 获取通知列表
// @Summary 获取通知列表
// @Tags 通知
// @Produce json
// @Security BearerAuth
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量" default(10)
// @Param unread query bool false "仅未读/仅已读"
// @Success 200 {object} Response{data=PageResponse{list=[]models.Notification}} "获取成功"
// @Router /api/v1/notifications [get]
func (h *NotificationHandler) List(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	var req NotificationListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "参数错误"))
		return
	}

	if req.Page <= 0 {
		req.Page = 1
	}
	if req.PageSize <= 0 {
		req.PageSize = 10
	}
	if req.PageSize > 100 {
		req.PageSize = 100
	}

	query := database.DB.Model(&models.Notification{}).Where("user_id = ?", userID)
	if req.Unread != nil {
		query = query.Where("is_read = ?", !*req.Unread)
	}

	var total int64
	query.Count(&total)

	var notifications []models.Notification
	offset := (req.Page - 1) * req.PageSize
	if err := query.Order("created_at DESC").Offset(offset).Limit(req.PageSize).Find(&notifications).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "查询通知失败"))
		return
	}

	Success(c, PageResponse{
		Total:    total,
		Page:     req.Page,
		PageSize: req.PageSize,
		List:     notifications,
	})
}

// MarkRead 标记通知已读
// @Summary 标记通知已读
// @Tags 通知
// @Produce json
// @Security BearerAuth
// @Param id path int true "通知ID"
// @Success 200 {object} Response "标记成功"
// @Failure 404 {object} Response "通知不存在"
// @Router /api/v1/notifications/{id}/read [put]
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		BadRequest(c, "无效的ID")
		return
	}

	result := database.DB.Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("is_read", true)
	if result.Error != nil {
		InternalError(c, SafeErrorMessage(result.Error, "标记通知失败"))
		return
	}
	if result.RowsAffected == 0 {
		NotFound(c, "通知不存在")
		return
	}

	SuccessWithMessage(c, "标记成功", nil)
}

// MarkAllRead 全部标记已读
// @Summary 全部标记已读
// @Tags 通知
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response "标记成功"
// @Router /api/v1/notifications/read-all [put]
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	if err := database.DB.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Update("is_read", true).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "标记通知失败"))
		return
	}

	SuccessWithMessage(c, "标记成功", nil)
}
