package model

import (
	"time"
)

// AnalysisRecord 一次成功分析的记录，只追加不修改
type AnalysisRecord struct {
	ID           int64     `gorm:"primaryKey" json:"id"`
	Filename     string    `gorm:"size:255;not null" json:"filename"`
	AnalysisType string    `gorm:"size:100;not null" json:"analysis_type"`
	Result       string    `gorm:"type:text;not null" json:"result"`
	Confidence   string    `gorm:"size:20;not null" json:"confidence"` // 如 "95.2%"
	Timestamp    time.Time `gorm:"index;not null" json:"timestamp"`
}

func (AnalysisRecord) TableName() string {
	return "image_analysis_record"
}
