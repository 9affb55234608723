package repository

import "gorm.io/gorm"

// maxPageSize 单页上限，防止一次拉取整张流水表
const maxPageSize = 200

// applyPagination 分页；pageSize<=0 时不分页，超过上限时截断
func applyPagination(query *gorm.DB, page, pageSize int) *gorm.DB {
	if query == nil || pageSize <= 0 {
		return query
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	if page < 1 {
		page = 1
	}
	return query.Limit(pageSize).Offset((page - 1) * pageSize)
}

// countAndPage 先统计总数再取当前页，total 不受分页影响
func countAndPage(query *gorm.DB, order string, page, pageSize int, dest interface{}) (int64, error) {
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return 0, err
	}
	if total == 0 {
		return 0, nil
	}
	if order != "" {
		query = query.Order(order)
	}
	if err := applyPagination(query, page, pageSize).Find(dest).Error; err != nil {
		return 0, err
	}
	return total, nil
}
