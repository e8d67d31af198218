package repository

import (
	"github.com/wfunc/geo-guess/internal/database"
	apperrors "github.com/wfunc/geo-guess/internal/errors"
	"gorm.io/gorm"
)

// BaseRepository 基础仓储接口
type BaseRepository interface {
	// GetDB 获取数据库实例
	GetDB() *gorm.DB
}

// Pagination 分页参数
type Pagination struct {
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
	Total    int64 `json:"total"`
}

// NewPagination 创建分页参数
func NewPagination(page, pageSize int) *Pagination {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 10
	}
	if pageSize > 100 {
		pageSize = 100
	}
	return &Pagination{
		Page:     page,
		PageSize: pageSize,
	}
}

// Offset 计算偏移量
func (p *Pagination) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// Paginate 分页查询
func Paginate(p *Pagination) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Offset(p.Offset()).Limit(p.PageSize)
	}
}

// BaseRepo 基础仓储实现
type BaseRepo struct {
	db *gorm.DB
}

// NewBaseRepo 创建基础仓储
func NewBaseRepo(db *gorm.DB) *BaseRepo {
	return &BaseRepo{db: db}
}

// GetDB 获取数据库实例
func (r *BaseRepo) GetDB() *gorm.DB {
	return r.db
}

// queryError 将查询错误转换为应用错误，记录不存在映射为指定错误码
func queryError(err error, notFound apperrors.ErrorCode) error {
	switch {
	case err == nil:
		return nil
	case database.IsNotFound(err):
		return apperrors.New(notFound)
	default:
		return apperrors.Wrap(err, apperrors.ErrDatabaseQuery)
	}
}

// writeError 将写入错误转换为应用错误，唯一约束冲突映射为指定错误码
func writeError(err error, conflict, fallback apperrors.ErrorCode) error {
	switch {
	case err == nil:
		return nil
	case database.IsDuplicateKey(err):
		return apperrors.New(conflict).WithCause(err)
	default:
		return apperrors.Wrap(err, fallback)
	}
}
