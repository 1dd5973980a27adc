package service

import (
	"context"
	"runtime"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qs3c/med_image_server/internal/repository"
	"github.com/qs3c/med_image_server/internal/testutil"
)

type staticCounter int

func (c staticCounter) ConnectionCount() int { return int(c) }

func TestSystemService_Info(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)
	testutil.TestRecord(t, db)
	testutil.TestRecord(t, db)

	at := time.Date(2024, 6, 1, 8, 30, 0, 0, time.UTC)
	svc := NewSystemService(
		repository.NewRecordRepository(db),
		NewReportAnalyzer(nil),
		nil,
		staticCounter(3),
		testConfig(),
		testutil.FixedClock{T: at},
	)

	info, err := svc.Info(context.Background())
	require.NoError(t, err)

	assert.Equal(t, runtime.GOOS+"-"+runtime.GOARCH, info.OS)
	assert.Equal(t, runtime.Version(), info.RuntimeVersion)
	assert.Equal(t, "未安装", info.ModelVersion)
	assert.Equal(t, "sqlite", info.DBType)
	assert.True(t, info.DBConnected)
	assert.Equal(t, int64(2), info.RecordCount)
	assert.Equal(t, "2024-06-01T08:30:00.000000", info.ServerTime)
	assert.Equal(t, EngineReport, info.AnalysisEngine)
	assert.Nil(t, info.RedisConnected)
	assert.Equal(t, 3, info.WebSocketSessions)
}

func TestSystemService_Info_DatabaseDown(t *testing.T) {
	db := testutil.SetupTestDB(t)
	testutil.CleanupTestDB(t, db)

	svc := NewSystemService(repository.NewRecordRepository(db), NewReportAnalyzer(nil), nil, nil, testConfig(), nil)

	info, err := svc.Info(context.Background())
	require.NoError(t, err)
	assert.False(t, info.DBConnected)
	assert.Zero(t, info.RecordCount)
}

func TestSystemService_Info_Redis(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	svc := NewSystemService(repository.NewRecordRepository(db), NewReportAnalyzer(nil), rdb, nil, testConfig(), nil)

	info, err := svc.Info(context.Background())
	require.NoError(t, err)
	require.NotNil(t, info.RedisConnected)
	assert.True(t, *info.RedisConnected)

	mr.Close()
	info, err = svc.Info(context.Background())
	require.NoError(t, err)
	require.NotNil(t, info.RedisConnected)
	assert.False(t, *info.RedisConnected)
}

func TestSystemService_Info_CanceledContext(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	svc := NewSystemService(repository.NewRecordRepository(db), NewReportAnalyzer(nil), nil, nil, testConfig(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := svc.Info(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
