package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"github.com/qs3c/med_image_server/config"
	"github.com/qs3c/med_image_server/internal/pkg/storage"
	"github.com/qs3c/med_image_server/internal/repository"
)

var (
	ErrNoFile          = errors.New("没有文件上传")
	ErrEmptyFilename   = errors.New("没有选择文件")
	ErrUnsupportedType = errors.New("不支持的文件类型，仅支持常见图片格式")
)

const storageTimeLayout = "20060102150405"

// StoredFile 已写入上传目录的文件
type StoredFile struct {
	Name      string
	Size      int64
	Data      []byte
	MirrorURL string
}

// SweepResult 孤儿文件清理结果
type SweepResult struct {
	Scanned    int
	Removed    []storage.FileInfo
	FreedBytes int64
}

type UploadService struct {
	store   *storage.LocalStore
	mirror  storage.Mirror
	records *repository.RecordRepository
	cfg     *config.Config
	clock   Clock
}

// NewUploadService mirror 可以为 nil
func NewUploadService(
	store *storage.LocalStore,
	mirror storage.Mirror,
	records *repository.RecordRepository,
	cfg *config.Config,
	clock Clock,
) *UploadService {
	return &UploadService{
		store:   store,
		mirror:  mirror,
		records: records,
		cfg:     cfg,
		clock:   clockOrDefault(clock),
	}
}

// Validate 校验上传文件，不产生任何副作用
func (s *UploadService) Validate(header *multipart.FileHeader) error {
	if header == nil {
		return ErrNoFile
	}
	if header.Filename == "" {
		return ErrEmptyFilename
	}

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(header.Filename), "."))
	if ext == "" {
		return ErrUnsupportedType
	}
	for _, allowed := range s.cfg.Upload.AllowedExtensions {
		if ext == allowed {
			return nil
		}
	}
	return ErrUnsupportedType
}

// StorageName 原文件名加秒级时间戳前缀
func StorageName(original string, at time.Time) string {
	return at.Format(storageTimeLayout) + "_" + filepath.Base(original)
}

// Store 写入上传目录，配置了对象存储时同步一份
func (s *UploadService) Store(ctx context.Context, header *multipart.FileHeader) (*StoredFile, error) {
	file, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open upload: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}

	name := StorageName(header.Filename, s.clock.Now())
	size, err := s.store.Save(name, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	stored := &StoredFile{Name: name, Size: size, Data: data}

	if s.mirror != nil {
		key := storage.ObjectKey(s.cfg.Storage.Prefix, name)
		url, err := s.mirror.Put(ctx, key, data, storage.ContentType(name))
		if err != nil {
			log.Printf("Mirror %s upload failed for %s: %v", s.mirror.Name(), name, err)
		} else {
			stored.MirrorURL = url
		}
	}

	return stored, nil
}

// SweepOrphans 删除早于 olderThan 且没有对应记录的上传文件
// 这些文件来自写盘后分析或入库失败的请求
func (s *UploadService) SweepOrphans(ctx context.Context, olderThan time.Duration, dryRun bool) (*SweepResult, error) {
	files, err := s.store.List()
	if err != nil {
		return nil, fmt.Errorf("failed to list upload dir: %w", err)
	}

	result := &SweepResult{Scanned: len(files)}
	cutoff := s.clock.Now().Add(-olderThan)

	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if f.ModTime.After(cutoff) {
			continue
		}

		exists, err := s.records.ExistsByFilename(ctx, f.Name)
		if err != nil {
			return result, fmt.Errorf("failed to check record for %s: %w", f.Name, err)
		}
		if exists {
			continue
		}

		if !dryRun {
			if err := s.store.Remove(f.Name); err != nil {
				log.Printf("Cleanup uploads: failed to remove %s: %v", f.Name, err)
				continue
			}
		}
		result.Removed = append(result.Removed, f)
		result.FreedBytes += f.Size
	}

	return result, nil
}
