package service

import (
	"errors"

	"mina/models"

	"gorm.io/gorm"
)

// NameMatch 类别名称比较策略，默认为大小写敏感的精确匹配
// 如产品确认需要大小写不敏感，替换此变量即可，不必改动解析流程
var NameMatch = func(requested, candidate string) bool {
	return requested == candidate
}

// 构建候选集时按交易类型使用的关键词
var (
	incomeSuggestKeywords  = []string{"Salary", "Bonus", "Investment", "Award"}
	expenseSuggestKeywords = []string{"Food", "Transport", "Shopping", "Bill", "Entertainment"}
)

// ResolveResult 类别解析结果
// Category 为 nil 表示未解析成功，需要调用方让用户在 Suggestions 中确认
// 或携带 RequestedName 显式创建新类别后重试，这是分支而非错误
type ResolveResult struct {
	Category      *models.Category  `json:"category,omitempty"`
	RequestedName string            `json:"requested_name"`
	Suggestions   []models.Category `json:"suggestions,omitempty"`
}

// Resolved 是否解析成功
func (r *ResolveResult) Resolved() bool {
	return r.Category != nil
}

// CategoryResolver 类别解析器（只读，无副作用）
type CategoryResolver struct {
	db *gorm.DB
}

// NewCategoryResolver 创建类别解析器
func NewCategoryResolver(db *gorm.DB) *CategoryResolver {
	return &CategoryResolver{db: db}
}

// Resolve 在用户自有类别和全局默认类别范围内解析类别名称
// 未命中时返回按类型关键词筛选的建议集合，交易在确认前不得继续
func (r *CategoryResolver) Resolve(userID uint, name, transactionType string) (*ResolveResult, error) {
	result := &ResolveResult{RequestedName: name}

	var candidates []models.Category
	err := r.db.Preload("Icons", func(db *gorm.DB) *gorm.DB {
		return db.Order("sort ASC")
	}).
		Where("name = ? AND (user_id = ? OR is_default = ?)", name, userID, true).
		Find(&candidates).Error
	if err != nil {
		return nil, err
	}

	for i := range candidates {
		if NameMatch(name, candidates[i].Name) {
			result.Category = &candidates[i]
			return result, nil
		}
	}

	// 未命中：按交易类型的关键词构建建议集合
	suggestions, err := r.suggest(userID, transactionType)
	if err != nil {
		return nil, err
	}
	result.Suggestions = suggestions
	return result, nil
}

// ResolveByID 按稳定标识解析（消歧确认后的回调路径）
func (r *CategoryResolver) ResolveByID(userID, categoryID uint) (*models.Category, error) {
	var category models.Category
	err := r.db.Preload("Icons", func(db *gorm.DB) *gorm.DB {
		return db.Order("sort ASC")
	}).
		Where("id = ? AND (user_id = ? OR is_default = ?)", categoryID, userID, true).
		First(&category).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCategoryNotFound
	}
	if err != nil {
		return nil, err
	}
	return &category, nil
}

// suggest 查询名称包含类型关键词的可用类别
func (r *CategoryResolver) suggest(userID uint, transactionType string) ([]models.Category, error) {
	keywords := expenseSuggestKeywords
	if transactionType == models.TransactionTypeIncome {
		keywords = incomeSuggestKeywords
	}

	query := r.db.Preload("Icons", func(db *gorm.DB) *gorm.DB {
		return db.Order("sort ASC")
	}).
		Where("user_id = ? OR is_default = ?", userID, true)

	nameCond := r.db.Where("name LIKE ?", "%"+keywords[0]+"%")
	for _, kw := range keywords[1:] {
		nameCond = nameCond.Or("name LIKE ?", "%"+kw+"%")
	}

	var suggestions []models.Category
	if err := query.Where(nameCond).Order("is_default DESC, name ASC").Find(&suggestions).Error; err != nil {
		return nil, err
	}
	return suggestions, nil
}
