package service

import (
	"context"
	"fmt"
	"log"
	"mime/multipart"
	"time"

	"github.com/qs3c/med_image_server/internal/model"
	"github.com/qs3c/med_image_server/internal/model/dto"
	"github.com/qs3c/med_image_server/internal/pkg/classifier"
	"github.com/qs3c/med_image_server/internal/repository"
)

// EventRecordCreated 新记录事件类型
const EventRecordCreated = "record_created"

const historyTimeLayout = "2006-01-02T15:04:05.000000"

// EventPublisher 新记录通知
type EventPublisher interface {
	Publish(ctx context.Context, event *dto.RecordEvent) error
}

type AnalysisService struct {
	records  *repository.RecordRepository
	uploads  *UploadService
	analyzer Analyzer
	events   EventPublisher
	clock    Clock
}

// NewAnalysisService events 可以为 nil
func NewAnalysisService(
	records *repository.RecordRepository,
	uploads *UploadService,
	analyzer Analyzer,
	events EventPublisher,
	clock Clock,
) *AnalysisService {
	return &AnalysisService{
		records:  records,
		uploads:  uploads,
		analyzer: analyzer,
		events:   events,
		clock:    clockOrDefault(clock),
	}
}

// Analyze 校验 → 保存文件 → 分析 → 入库；任一步失败都不会写入记录
func (s *AnalysisService) Analyze(ctx context.Context, header *multipart.FileHeader, analysisType string) (*dto.AnalyzeResponse, error) {
	if err := s.uploads.Validate(header); err != nil {
		return nil, err
	}

	stored, err := s.uploads.Store(ctx, header)
	if err != nil {
		return nil, err
	}

	outcome, err := s.analyzer.Analyze(ctx, analysisType, stored.Data)
	if err != nil {
		return nil, fmt.Errorf("图像分析失败: %w", err)
	}

	record := &model.AnalysisRecord{
		Filename:     stored.Name,
		AnalysisType: analysisType,
		Result:       outcome.Report,
		Confidence:   outcome.Confidence,
		Timestamp:    s.clock.Now().UTC().Truncate(time.Microsecond),
	}
	if err := s.records.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("保存分析记录失败: %w", err)
	}

	if stored.MirrorURL != "" {
		log.Printf("Record %d mirrored to %s", record.ID, stored.MirrorURL)
	}
	s.publish(ctx, record)

	return &dto.AnalyzeResponse{
		Result:       record.Result,
		Confidence:   record.Confidence,
		RecordID:     record.ID,
		AnalysisType: classifier.DisplayName(analysisType),
		ClassID:      outcome.ClassID,
	}, nil
}

// History 最近的分析记录，最新的在前
func (s *AnalysisService) History(ctx context.Context) ([]dto.HistoryItem, error) {
	records, err := s.records.ListRecent(ctx, repository.HistoryLimit)
	if err != nil {
		return nil, err
	}

	items := make([]dto.HistoryItem, 0, len(records))
	for _, r := range records {
		items = append(items, toHistoryItem(r))
	}
	return items, nil
}

// publish 通知失败只记录日志，记录已经入库
func (s *AnalysisService) publish(ctx context.Context, record *model.AnalysisRecord) {
	if s.events == nil {
		return
	}
	event := &dto.RecordEvent{
		Type:   EventRecordCreated,
		Record: toHistoryItem(record),
	}
	if err := s.events.Publish(ctx, event); err != nil {
		log.Printf("Failed to publish record %d: %v", record.ID, err)
	}
}

func toHistoryItem(r *model.AnalysisRecord) dto.HistoryItem {
	return dto.HistoryItem{
		ID:           r.ID,
		Filename:     r.Filename,
		AnalysisType: classifier.DisplayName(r.AnalysisType),
		Result:       r.Result,
		Confidence:   r.Confidence,
		Timestamp:    r.Timestamp.UTC().Format(historyTimeLayout),
	}
}
