package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qs3c/med_image_server/internal/model/dto"
	"github.com/qs3c/med_image_server/internal/pkg/classifier"
	"github.com/qs3c/med_image_server/internal/pkg/storage"
	"github.com/qs3c/med_image_server/internal/repository"
	"github.com/qs3c/med_image_server/internal/testutil"
)

type failingAnalyzer struct{}

func (failingAnalyzer) Name() string         { return "failing" }
func (failingAnalyzer) ModelVersion() string { return "未安装" }
func (failingAnalyzer) Analyze(ctx context.Context, analysisType string, image []byte) (*Outcome, error) {
	return nil, errors.New("inference crashed")
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []*dto.RecordEvent
	err    error
}

func (p *recordingPublisher) Publish(ctx context.Context, event *dto.RecordEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

type analysisFixture struct {
	svc     *AnalysisService
	records *repository.RecordRepository
	store   *storage.LocalStore
	events  *recordingPublisher
}

func setupAnalysisService(t *testing.T, analyzer Analyzer, clock Clock) *analysisFixture {
	t.Helper()

	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.CleanupTestDB(t, db) })

	store, err := storage.NewLocalStore(t.TempDir())
	require.NoError(t, err)

	records := repository.NewRecordRepository(db)
	uploads := NewUploadService(store, nil, records, testConfig(), clock)
	if analyzer == nil {
		analyzer = NewReportAnalyzer(clock)
	}
	events := &recordingPublisher{}

	return &analysisFixture{
		svc:     NewAnalysisService(records, uploads, analyzer, events, clock),
		records: records,
		store:   store,
		events:  events,
	}
}

func TestAnalysisService_Analyze_ChestXray(t *testing.T) {
	clock := &testutil.StepClock{T: time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC), Step: time.Second}
	f := setupAnalysisService(t, nil, clock)

	resp, err := f.svc.Analyze(context.Background(), testutil.FileHeader(t, "xray.png", testutil.PNGBytes), "chest_xray")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(resp.Result, "分析类型: 胸部X光片"))
	assert.Equal(t, "95.2%", resp.Confidence)
	assert.Equal(t, "胸部X光片", resp.AnalysisType)
	assert.NotZero(t, resp.RecordID)

	record, err := f.records.GetByID(context.Background(), resp.RecordID)
	require.NoError(t, err)
	assert.Equal(t, "chest_xray", record.AnalysisType)
	assert.Equal(t, resp.Result, record.Result)
	assert.True(t, strings.HasSuffix(record.Filename, "_xray.png"))

	_, err = os.Stat(f.store.Path(record.Filename))
	assert.NoError(t, err)

	require.Len(t, f.events.events, 1)
	assert.Equal(t, EventRecordCreated, f.events.events[0].Type)
	assert.Equal(t, resp.RecordID, f.events.events[0].Record.ID)
	assert.Equal(t, "胸部X光片", f.events.events[0].Record.AnalysisType)
}

func TestAnalysisService_Analyze_ValidationFailures(t *testing.T) {
	f := setupAnalysisService(t, nil, nil)
	ctx := context.Background()

	_, err := f.svc.Analyze(ctx, nil, "general")
	assert.ErrorIs(t, err, ErrNoFile)

	_, err = f.svc.Analyze(ctx, testutil.FileHeader(t, "notes.pdf", []byte("%PDF")), "general")
	assert.ErrorIs(t, err, ErrUnsupportedType)

	count, err := f.records.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)

	files, err := f.store.List()
	require.NoError(t, err)
	assert.Empty(t, files)
	assert.Empty(t, f.events.events)
}

func TestAnalysisService_Analyze_AnalyzerFailure(t *testing.T) {
	f := setupAnalysisService(t, failingAnalyzer{}, nil)
	ctx := context.Background()

	_, err := f.svc.Analyze(ctx, testutil.FileHeader(t, "scan.png", testutil.PNGBytes), "general")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "图像分析失败")

	count, err := f.records.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.Empty(t, f.events.events)
}

func TestAnalysisService_Analyze_PublishFailureIgnored(t *testing.T) {
	f := setupAnalysisService(t, nil, nil)
	f.events.err = errors.New("redis down")

	resp, err := f.svc.Analyze(context.Background(), testutil.FileHeader(t, "scan.png", testutil.PNGBytes), "brain_mri")
	require.NoError(t, err)
	assert.Equal(t, "98.7%", resp.Confidence)
}

func TestAnalysisService_Analyze_RepeatedUploads(t *testing.T) {
	clock := &testutil.StepClock{T: time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC), Step: time.Second}
	f := setupAnalysisService(t, nil, clock)
	ctx := context.Background()

	first, err := f.svc.Analyze(ctx, testutil.FileHeader(t, "scan.png", testutil.PNGBytes), "general")
	require.NoError(t, err)
	second, err := f.svc.Analyze(ctx, testutil.FileHeader(t, "scan.png", testutil.PNGBytes), "general")
	require.NoError(t, err)

	assert.NotEqual(t, first.RecordID, second.RecordID)

	count, err := f.records.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestAnalysisService_History(t *testing.T) {
	clock := &testutil.StepClock{T: time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC), Step: time.Second}
	f := setupAnalysisService(t, nil, clock)
	ctx := context.Background()

	first, err := f.svc.Analyze(ctx, testutil.FileHeader(t, "a.png", testutil.PNGBytes), "skin_lesion")
	require.NoError(t, err)
	second, err := f.svc.Analyze(ctx, testutil.FileHeader(t, "b.jpg", testutil.PNGBytes), "custom_tag")
	require.NoError(t, err)

	items, err := f.svc.History(ctx)
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, second.RecordID, items[0].ID)
	assert.Equal(t, "custom_tag", items[0].AnalysisType)
	assert.Equal(t, first.RecordID, items[1].ID)
	assert.Equal(t, "皮肤病变", items[1].AnalysisType)

	_, err = time.Parse("2006-01-02T15:04:05.000000", items[0].Timestamp)
	assert.NoError(t, err)
}

func TestAnalysisService_History_Limit(t *testing.T) {
	f := setupAnalysisService(t, nil, nil)
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	svc := NewAnalysisService(repository.NewRecordRepository(db), nil, f.svc.analyzer, nil, nil)
	for i := 0; i < 60; i++ {
		testutil.TestRecord(t, db, testutil.WithTimestamp(base.Add(time.Duration(i)*time.Minute)))
	}

	items, err := svc.History(context.Background())
	require.NoError(t, err)
	require.Len(t, items, repository.HistoryLimit)
	assert.Equal(t, "2024-06-01T00:59:00.000000", items[0].Timestamp)
}

func TestAnalysisService_History_Empty(t *testing.T) {
	f := setupAnalysisService(t, nil, nil)

	items, err := f.svc.History(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)
}

func TestAnalysisService_Analyze_LogsMirrorURL(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	t.Cleanup(func() { log.SetOutput(os.Stderr) })

	clock := testutil.FixedClock{T: time.Date(2024, 3, 5, 8, 9, 10, 0, time.Local)}
	uploads, records, _ := setupUploadService(t, &stubMirror{}, clock)
	svc := NewAnalysisService(records, uploads, NewReportAnalyzer(clock), nil, clock)

	resp, err := svc.Analyze(context.Background(), testutil.FileHeader(t, "scan.png", testutil.PNGBytes), "general")
	require.NoError(t, err)

	assert.Contains(t, buf.String(),
		fmt.Sprintf("Record %d mirrored to https://bucket.example.com/images/20240305080910_scan.png", resp.RecordID))
	assert.Nil(t, resp.ClassID)
}

func TestAnalysisService_Analyze_LesionClassID(t *testing.T) {
	analyzer := NewLesionAnalyzer(
		classifier.NewLesionClassifier(fixedModel{classID: 2, confidence: 76}),
		classifier.NewRandomFallback(1),
		nil,
	)
	f := setupAnalysisService(t, analyzer, nil)

	resp, err := f.svc.Analyze(context.Background(), testutil.FileHeader(t, "mole.png", testutil.PNGBytes), "skin_lesion")
	require.NoError(t, err)

	require.NotNil(t, resp.ClassID)
	assert.Equal(t, 2, *resp.ClassID)
	assert.Equal(t, "76.0%", resp.Confidence)
}
