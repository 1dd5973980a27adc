package cron

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/qs3c/med_image_server/internal/service"
)

// Sweeper 清理没有对应记录的上传文件
type Sweeper interface {
	SweepOrphans(ctx context.Context, olderThan time.Duration, dryRun bool) (*service.SweepResult, error)
}

type Service struct {
	sweeper  Sweeper
	expire   time.Duration
	interval time.Duration
	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewService expireHours <= 0 时不启动清理
func NewService(sweeper Sweeper, expireHours, intervalMinutes int) *Service {
	if intervalMinutes <= 0 {
		intervalMinutes = 60
	}
	return &Service{
		sweeper:  sweeper,
		expire:   time.Duration(expireHours) * time.Hour,
		interval: time.Duration(intervalMinutes) * time.Minute,
		stopChan: make(chan struct{}),
	}
}

// Start 启动定时任务
func (s *Service) Start() {
	if s.sweeper == nil || s.expire <= 0 {
		log.Println("Cron service disabled (orphan upload cleanup off)")
		return
	}

	s.wg.Add(1)
	go s.runCleanup()
	log.Printf("Cron service started (orphan upload cleanup every %s)", s.interval)
}

// Stop 停止定时任务并等待正在执行的清理结束
func (s *Service) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopChan)
	})
	s.wg.Wait()
	log.Println("Cron service stopped")
}

// runCleanup 按周期执行清理
func (s *Service) runCleanup() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.RunNow(context.Background())
		}
	}
}

// RunNow 立即执行一次清理，返回删除的文件数
func (s *Service) RunNow(ctx context.Context) int {
	if s.sweeper == nil || s.expire <= 0 {
		return 0
	}

	result, err := s.sweeper.SweepOrphans(ctx, s.expire, false)
	if err != nil {
		log.Printf("Cleanup uploads failed: %v", err)
		if result == nil {
			return 0
		}
	}

	if len(result.Removed) > 0 {
		log.Printf("Cleanup summary: scanned=%d, removed=%d, freed=%d bytes",
			result.Scanned, len(result.Removed), result.FreedBytes)
	}
	return len(result.Removed)
}
