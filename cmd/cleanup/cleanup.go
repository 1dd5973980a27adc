package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/qs3c/med_image_server/config"
	"github.com/qs3c/med_image_server/internal/database"
	"github.com/qs3c/med_image_server/internal/pkg/storage"
	"github.com/qs3c/med_image_server/internal/repository"
	"github.com/qs3c/med_image_server/internal/service"
)

// 保证至少保留一小时，避免误删正在处理中的上传
const minExpireHours = 1

func runCleanup(ctx context.Context, out io.Writer, configPath string, dryRun bool, expireHours int) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if expireHours <= 0 {
		expireHours = cfg.Upload.OrphanExpireHours
	}
	if expireHours < minExpireHours {
		expireHours = minExpireHours
	}

	db, err := database.Open(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect database: %w", err)
	}
	defer database.Close(db)

	store, err := storage.NewLocalStore(cfg.Upload.Dir)
	if err != nil {
		return err
	}

	uploads := service.NewUploadService(store, nil, repository.NewRecordRepository(db), cfg, nil)
	return sweep(ctx, out, uploads, store.Dir(), time.Duration(expireHours)*time.Hour, dryRun)
}

// sweep 执行清理并输出报告
func sweep(ctx context.Context, out io.Writer, uploads *service.UploadService, dir string, expire time.Duration, dryRun bool) error {
	fmt.Fprintf(out, "Cleaning orphan uploads in %s (older than %s, dry-run=%v)\n", dir, expire, dryRun)

	result, err := uploads.SweepOrphans(ctx, expire, dryRun)
	if err != nil {
		return err
	}

	for _, f := range result.Removed {
		fmt.Fprintf(out, "  - %s (%s, modified %s)\n",
			f.Name, humanize.IBytes(uint64(f.Size)), humanize.Time(f.ModTime))
	}

	line := strings.Repeat("=", 60)
	fmt.Fprintln(out, line)
	fmt.Fprintf(out, "Scanned files: %d\n", result.Scanned)
	fmt.Fprintf(out, "Orphan files:  %d\n", len(result.Removed))
	fmt.Fprintf(out, "Freed space:   %s\n", humanize.IBytes(uint64(result.FreedBytes)))
	if dryRun {
		fmt.Fprintln(out, "DRY RUN MODE - No files were actually deleted")
		fmt.Fprintln(out, "Run with --dry-run=false to actually delete files")
	} else {
		fmt.Fprintln(out, "Cleanup completed")
	}
	fmt.Fprintln(out, line)
	return nil
}
