package testutil

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/qs3c/med_image_server/internal/model"
)

// TestRecord 创建测试分析记录
func TestRecord(t *testing.T, db *gorm.DB, opts ...func(*model.AnalysisRecord)) *model.AnalysisRecord {
	t.Helper()

	now := time.Now().UTC()
	record := &model.AnalysisRecord{
		Filename:     fmt.Sprintf("%s_test_%d.png", now.Format("20060102150405"), now.UnixNano()%10000),
		AnalysisType: "general",
		Result:       "分析类型: 通用医学图像",
		Confidence:   "90.0%",
		Timestamp:    now,
	}

	for _, opt := range opts {
		opt(record)
	}

	if err := db.Create(record).Error; err != nil {
		t.Fatalf("Failed to create test record: %v", err)
	}

	return record
}

// WithFilename 设置存储文件名
func WithFilename(filename string) func(*model.AnalysisRecord) {
	return func(r *model.AnalysisRecord) {
		r.Filename = filename
	}
}

// WithAnalysisType 设置分析类型
func WithAnalysisType(analysisType string) func(*model.AnalysisRecord) {
	return func(r *model.AnalysisRecord) {
		r.AnalysisType = analysisType
	}
}

// WithTimestamp 设置创建时间
func WithTimestamp(ts time.Time) func(*model.AnalysisRecord) {
	return func(r *model.AnalysisRecord) {
		r.Timestamp = ts
	}
}

// WithConfidence 设置可信度
func WithConfidence(confidence string) func(*model.AnalysisRecord) {
	return func(r *model.AnalysisRecord) {
		r.Confidence = confidence
	}
}

// FixedClock 总是返回同一时间
type FixedClock struct {
	T time.Time
}

func (c FixedClock) Now() time.Time { return c.T }

// StepClock 每次调用前进 Step
type StepClock struct {
	mu   sync.Mutex
	T    time.Time
	Step time.Duration
}

func (c *StepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.T
	c.T = c.T.Add(c.Step)
	return now
}
