package api

import (
	"strconv"

	"mina/database"
	"mina/middleware"
	"mina/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// CategoryHandler 类别处理器
type CategoryHandler struct{}

// NewCategoryHandler 创建类别处理器
func NewCategoryHandler() *CategoryHandler {
	return &CategoryHandler{}
}

// CategoryRequest 类别创建/更新请求
// 图标集合有序且至少一个；更新时缺省表示保留原有图标
type CategoryRequest struct {
	Name  string                `json:"name" binding:"required,min=1,max=50" example:"Coffee"`
	Icons []CategoryIconRequest `json:"icons" binding:"omitempty,dive"`
}

// CategoryIconRequest 类别图标
type CategoryIconRequest struct {
	IconPath string `json:"icon_path" binding:"required" example:"☕"`
	Color    string `json:"color" binding:"omitempty,hexcolor" example:"#8b5cf6"`
	Sort     int    `json:"sort" example:"1"`
}

// List 获取类别列表
// @Summary 获取类别列表
// @Description 返回全局默认类别和当前用户自建的类别
// @Tags 类别
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response{data=[]models.Category} "获取成功"
// @Router /api/v1/categories [get]
func (h *CategoryHandler) List(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	var categories []models.Category
	if err := database.DB.Preload("Icons", func(db *gorm.DB) *gorm.DB {
		return db.Order("sort ASC")
	}).
		Where("user_id = ? OR is_default = ?", userID, true).
		Order("is_default DESC, name ASC").
		Find(&categories).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "查询类别失败"))
		return
	}

	Success(c, categories)
}

// Create 创建类别
// @Summary 创建自定义类别
// @Description 在当前用户范围内创建类别，与默认类别或已有类别重名时返回 409
// @Tags 类别
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CategoryRequest true "类别信息"
// @Success 200 {object} Response{data=models.Category} "创建成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 409 {object} Response "类别名称已存在"
// @Router /api/v1/categories [post]
func (h *CategoryHandler) Create(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	var req CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	if len(req.Icons) == 0 {
		BadRequest(c, "至少需要一个图标")
		return
	}

	// 与可见范围内任何类别重名都拒绝，避免解析二义性
	var count int64
	if err := database.DB.Model(&models.Category{}).
		Where("name = ? AND (user_id = ? OR is_default = ?)", req.Name, userID, true).
		Count(&count).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "查询类别失败"))
		return
	}
	if count > 0 {
		Conflict(c, "类别名称已存在")
		return
	}

	category := models.Category{
		UserID: &userID,
		Name:   req.Name,
	}
	for _, icon := range req.Icons {
		category.Icons = append(category.Icons, models.CategoryIcon{
			IconPath: icon.IconPath,
			Color:    icon.Color,
			Sort:     icon.Sort,
		})
	}

	if err := database.DB.Create(&category).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "创建类别失败"))
		return
	}

	SuccessWithMessage(c, "创建成功", category)
}

// Update 更新类别
// @Summary 更新自定义类别
// @Description 仅可修改当前用户自建的类别，历史交易通过稳定的类别ID保持关联
// @Tags 类别
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "类别ID"
// @Param request body CategoryRequest true "类别信息"
// @Success 200 {object} Response{data=models.Category} "更新成功"
// @Failure 404 {object} Response "类别不存在"
// @Failure 409 {object} Response "类别名称已存在"
// @Router /api/v1/categories/{id} [put]
func (h *CategoryHandler) Update(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	categoryID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		BadRequest(c, "无效的类别ID")
		return
	}

	var req CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	// icons 为 null 表示不改动，显式空数组会清空图标集合，拒绝
	if req.Icons != nil && len(req.Icons) == 0 {
		BadRequest(c, "至少需要一个图标")
		return
	}

	// 默认类别不可修改
	var category models.Category
	if err := database.DB.Where("id = ? AND user_id = ?", categoryID, userID).First(&category).Error; err != nil {
		NotFound(c, "类别不存在")
		return
	}

	if req.Name != category.Name {
		var count int64
		if err := database.DB.Model(&models.Category{}).
			Where("name = ? AND (user_id = ? OR is_default = ?) AND id <> ?", req.Name, userID, true, category.ID).
			Count(&count).Error; err != nil {
			InternalError(c, SafeErrorMessage(err, "查询类别失败"))
			return
		}
		if count > 0 {
			Conflict(c, "类别名称已存在")
			return
		}
	}

	err = database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&category).Update("name", req.Name).Error; err != nil {
			return err
		}
		if req.Icons == nil {
			return nil
		}
		// 整组替换图标
		if err := tx.Where("category_id = ?", category.ID).Delete(&models.CategoryIcon{}).Error; err != nil {
			return err
		}
		icons := make([]models.CategoryIcon, 0, len(req.Icons))
		for _, icon := range req.Icons {
			icons = append(icons, models.CategoryIcon{
				CategoryID: category.ID,
				IconPath:   icon.IconPath,
				Color:      icon.Color,
				Sort:       icon.Sort,
			})
		}
		return tx.Create(&icons).Error
	})
	if err != nil {
		InternalError(c, SafeErrorMessage(err, "更新类别失败"))
		return
	}

	category.Name = req.Name
	SuccessWithMessage(c, "更新成功", category)
}

// Delete 删除类别
// @Summary 删除自定义类别
// @Description 仅可删除当前用户自建且没有交易记录引用的类别
// @Tags 类别
// @Produce json
// @Security BearerAuth
// @Param id path int true "类别ID"
// @Success 200 {object} Response "删除成功"
// @Failure 404 {object} Response "类别不存在"
// @Failure 409 {object} Response "类别仍被交易记录引用"
// @Router /api/v1/categories/{id} [delete]
func (h *CategoryHandler) Delete(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	categoryID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		BadRequest(c, "无效的类别ID")
		return
	}

	var category models.Category
	if err := database.DB.Where("id = ? AND user_id = ?", categoryID, userID).First(&category).Error; err != nil {
		NotFound(c, "类别不存在")
		return
	}

	var count int64
	if err := database.DB.Model(&models.Transaction{}).
		Where("category_id = ?", category.ID).
		Count(&count).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "查询交易失败"))
		return
	}
	if count > 0 {
		Conflict(c, "类别仍被交易记录引用，不可删除")
		return
	}

	// 无交易引用，连同图标物理删除；软删行会占住 (user_id, name)
	// 唯一索引，导致同名类别无法重建
	err = database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("category_id = ?", category.ID).Delete(&models.CategoryIcon{}).Error; err != nil {
			return err
		}
		return tx.Unscoped().Delete(&category).Error
	})
	if err != nil {
		InternalError(c, SafeErrorMessage(err, "删除类别失败"))
		return
	}

	SuccessWithMessage(c, "删除成功", nil)
}
