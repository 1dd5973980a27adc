package service

import (
	"context"
	"fmt"
	"log"
	"runtime"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/qs3c/med_image_server/config"
	"github.com/qs3c/med_image_server/internal/database"
	"github.com/qs3c/med_image_server/internal/model/dto"
	"github.com/qs3c/med_image_server/internal/repository"
)

const probeTimeout = 2 * time.Second

// ConnectionCounter 在线 WebSocket 连接数
type ConnectionCounter interface {
	ConnectionCount() int
}

type SystemService struct {
	records  *repository.RecordRepository
	analyzer Analyzer
	rdb      *redis.Client
	sessions ConnectionCounter
	cfg      *config.Config
	clock    Clock
}

// NewSystemService rdb、sessions 可以为 nil
func NewSystemService(
	records *repository.RecordRepository,
	analyzer Analyzer,
	rdb *redis.Client,
	sessions ConnectionCounter,
	cfg *config.Config,
	clock Clock,
) *SystemService {
	return &SystemService{
		records:  records,
		analyzer: analyzer,
		rdb:      rdb,
		sessions: sessions,
		cfg:      cfg,
		clock:    clockOrDefault(clock),
	}
}

// Info 收集诊断信息；探测失败体现在字段值上而不是返回错误
func (s *SystemService) Info(ctx context.Context) (*dto.SystemInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	info := &dto.SystemInfo{
		OS:             fmt.Sprintf("%s-%s", runtime.GOOS, runtime.GOARCH),
		RuntimeVersion: runtime.Version(),
		ModelVersion:   s.analyzer.ModelVersion(),
		DBType:         database.Type(s.cfg.Database.URL),
		AnalysisEngine: s.analyzer.Name(),
		ServerTime:     s.clock.Now().UTC().Format(historyTimeLayout),
	}

	probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	if err := s.records.Ping(probeCtx); err != nil {
		log.Printf("System info: database ping failed: %v", err)
	} else {
		info.DBConnected = true
	}

	if count, err := s.records.Count(probeCtx); err != nil {
		log.Printf("System info: count records failed: %v", err)
	} else {
		info.RecordCount = count
	}

	if s.rdb != nil {
		connected := s.rdb.Ping(probeCtx).Err() == nil
		info.RedisConnected = &connected
	}

	if s.sessions != nil {
		info.WebSocketSessions = s.sessions.ConnectionCount()
	}

	return info, nil
}
