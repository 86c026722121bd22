package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/yeisme/employeeman/pkg/errs"
	"github.com/yeisme/employeeman/pkg/internal/model"
)

// MediaFilter 选择媒体登记行，三种方式恰好使用一种.
type MediaFilter struct {
	FileName string
	UUID     string
	Owner    *model.OwnerRef
}

// MediaRepository 媒体登记表仓储.
type MediaRepository struct {
	db *gorm.DB
}

// NewMediaRepository 创建仓储.
func NewMediaRepository(db *gorm.DB) *MediaRepository {
	return &MediaRepository{db: db}
}

// WithTx 返回绑定到事务的仓储.
func (r *MediaRepository) WithTx(tx *gorm.DB) *MediaRepository {
	return &MediaRepository{db: tx}
}

// Create 插入登记行，空 JSON 字段写为 {}.
func (r *MediaRepository) Create(ctx context.Context, m *model.Media) error {
	m.EnsureMaps()

	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return fmt.Errorf("insert media %s: %w", m.FileName, err)
	}

	return nil
}

// ByFileName 按 file_name 读取，不存在时返回 errs.ErrNotFound.
func (r *MediaRepository) ByFileName(ctx context.Context, fileName string) (*model.Media, error) {
	var m model.Media

	err := r.db.WithContext(ctx).Where("file_name = ?", fileName).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errs.NotFound("media %q", fileName)
	}

	if err != nil {
		return nil, fmt.Errorf("load media %q: %w", fileName, err)
	}

	return &m, nil
}

// Find 返回匹配过滤条件的全部登记行.
func (r *MediaRepository) Find(ctx context.Context, f MediaFilter) ([]model.Media, error) {
	db := r.db.WithContext(ctx)

	switch {
	case f.FileName != "":
		db = db.Where("file_name = ?", f.FileName)
	case f.UUID != "":
		db = db.Where("uuid = ?", f.UUID)
	case f.Owner != nil:
		db = db.Where("model_type = ? AND model_id = ?", string(f.Owner.Kind), f.Owner.ID)
	default:
		return nil, errs.InvalidArgument("empty media filter")
	}

	var rows []model.Media
	if err := db.Order("id ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("find media: %w", err)
	}

	return rows, nil
}

// DeleteByIDs 删除指定 ID 的登记行.
func (r *MediaRepository) DeleteByIDs(ctx context.Context, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}

	if err := r.db.WithContext(ctx).Delete(&model.Media{}, ids).Error; err != nil {
		return fmt.Errorf("delete media: %w", err)
	}

	return nil
}

// All 返回全部登记行，供对账任务使用.
func (r *MediaRepository) All(ctx context.Context) ([]model.Media, error) {
	var rows []model.Media
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list media: %w", err)
	}

	return rows, nil
}
