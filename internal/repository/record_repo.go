package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/qs3c/med_image_server/internal/model"
)

// HistoryLimit 历史接口返回的最大条数
const HistoryLimit = 50

type RecordRepository struct {
	db *gorm.DB
}

func NewRecordRepository(db *gorm.DB) *RecordRepository {
	return &RecordRepository{db: db}
}

func (r *RecordRepository) Create(ctx context.Context, record *model.AnalysisRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *RecordRepository) GetByID(ctx context.Context, id int64) (*model.AnalysisRecord, error) {
	var record model.AnalysisRecord
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// ListRecent 按时间倒序返回最近的记录，同一时间按 id 倒序
func (r *RecordRepository) ListRecent(ctx context.Context, limit int) ([]*model.AnalysisRecord, error) {
	if limit <= 0 || limit > HistoryLimit {
		limit = HistoryLimit
	}

	var records []*model.AnalysisRecord
	err := r.db.WithContext(ctx).
		Order("timestamp DESC").
		Order("id DESC").
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (r *RecordRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&model.AnalysisRecord{}).Count(&total).Error
	return total, err
}

// ExistsByFilename 上传目录清理时判断文件是否被记录引用
func (r *RecordRepository) ExistsByFilename(ctx context.Context, filename string) (bool, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&model.AnalysisRecord{}).
		Where("filename = ?", filename).
		Count(&total).Error
	return total > 0, err
}

// Ping 执行一次简单查询检查连接
func (r *RecordRepository) Ping(ctx context.Context) error {
	return r.db.WithContext(ctx).Exec("SELECT 1").Error
}
