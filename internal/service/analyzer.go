package service

import (
	"context"
	"fmt"
	"log"

	"github.com/qs3c/med_image_server/config"
	"github.com/qs3c/med_image_server/internal/pkg/classifier"
)

const (
	EngineReport = "report"
	EngineLesion = "lesion"
)

// Outcome 分析引擎输出
type Outcome struct {
	Report     string
	Confidence string
	// ClassID 分类模型输出的类别 id，固定报告引擎为 nil
	ClassID *int
}

// Analyzer 分析引擎
type Analyzer interface {
	Name() string
	ModelVersion() string
	Analyze(ctx context.Context, analysisType string, image []byte) (*Outcome, error)
}

// NewAnalyzer 按配置创建分析引擎
func NewAnalyzer(cfg *config.AnalysisConfig, model classifier.Model, clock Clock) (Analyzer, error) {
	switch cfg.Engine {
	case "", EngineReport:
		return NewReportAnalyzer(clock), nil
	case EngineLesion:
		return NewLesionAnalyzer(
			classifier.NewLesionClassifier(model),
			classifier.NewRandomFallback(cfg.Seed),
			clock,
		), nil
	default:
		return nil, fmt.Errorf("unknown analysis engine: %s", cfg.Engine)
	}
}

// ReportAnalyzer 按分析类型返回固定报告，不会失败
type ReportAnalyzer struct {
	clock Clock
}

func NewReportAnalyzer(clock Clock) *ReportAnalyzer {
	return &ReportAnalyzer{clock: clockOrDefault(clock)}
}

func (a *ReportAnalyzer) Name() string { return EngineReport }

func (a *ReportAnalyzer) ModelVersion() string { return "未安装" }

func (a *ReportAnalyzer) Analyze(ctx context.Context, analysisType string, image []byte) (*Outcome, error) {
	c := classifier.Classify(analysisType)
	return &Outcome{
		Report:     classifier.Report(analysisType, c.Body, c.Confidence, a.clock.Now()),
		Confidence: c.Confidence,
	}, nil
}

// LesionAnalyzer 皮肤病变分类，模型不可用时返回模拟结果
type LesionAnalyzer struct {
	classifier *classifier.LesionClassifier
	fallback   *classifier.RandomFallback
	clock      Clock
}

func NewLesionAnalyzer(c *classifier.LesionClassifier, fallback *classifier.RandomFallback, clock Clock) *LesionAnalyzer {
	return &LesionAnalyzer{
		classifier: c,
		fallback:   fallback,
		clock:      clockOrDefault(clock),
	}
}

func (a *LesionAnalyzer) Name() string { return EngineLesion }

func (a *LesionAnalyzer) ModelVersion() string { return a.classifier.ModelVersion() }

func (a *LesionAnalyzer) Analyze(ctx context.Context, analysisType string, image []byte) (*Outcome, error) {
	result, err := classifier.ClassifyOrSimulate(ctx, a.classifier, a.fallback, image)
	if err != nil {
		return nil, err
	}
	if result.Simulated {
		log.Printf("Lesion classifier unavailable, returning simulated result: %v", result.Cause)
	}

	body := fmt.Sprintf("%s（%s）", result.Label.Name, result.Label.Code)
	if result.Simulated {
		body += " " + result.Note
	}
	confidence := fmt.Sprintf("%.1f%%", result.Confidence)

	classID := result.Label.ID
	return &Outcome{
		Report:     classifier.Report(analysisType, body, confidence, a.clock.Now()),
		Confidence: confidence,
		ClassID:    &classID,
	}, nil
}
