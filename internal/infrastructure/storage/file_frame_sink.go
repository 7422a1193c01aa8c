package storage

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"zonewatch/internal/domain/port"
)

// FileFrameSinks хранит кадры в каталогах <root>/<scanID>/frame_<id>.jpg
type FileFrameSinks struct {
	root string
}

// NewFileFrameSinks создаёт корневой каталог, если его нет
func NewFileFrameSinks(root string) (*FileFrameSinks, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create results dir: %w", err)
	}
	return &FileFrameSinks{root: root}, nil
}

// ForScan возвращает хранилище кадров одного сканирования
func (f *FileFrameSinks) ForScan(scanID string) port.FrameSink {
	return &FileFrameSink{dir: filepath.Join(f.root, filepath.Base(scanID))}
}

// Cleanup удаляет каталоги сканирований старше maxAge и возвращает их число
func (f *FileFrameSinks) Cleanup(maxAge time.Duration, now time.Time) (int, error) {
	entries, err := os.ReadDir(f.root)
	if err != nil {
		return 0, fmt.Errorf("read results dir: %w", err)
	}

	removed := 0
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if now.Sub(info.ModTime()) <= maxAge {
			continue
		}

		path := filepath.Join(f.root, e.Name())
		if err := os.RemoveAll(path); err != nil {
			log.Warn().Err(err).Str("path", path).Msg("Failed to remove old scan frames")
			continue
		}
		removed++
	}

	return removed, nil
}

// FileFrameSink каталог кадров одного сканирования
type FileFrameSink struct {
	dir string
}

// Store кодирует кадр в JPEG и пишет на диск
func (s *FileFrameSink) Store(ctx context.Context, id string, img image.Image) error {
	if err := checkFrameID(id); err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create scan dir: %w", err)
	}

	data, err := encodeJPEG(img)
	if err != nil {
		return err
	}

	return os.WriteFile(filepath.Join(s.dir, frameObjectName(id)), data, 0o644)
}

// Load читает сохранённый кадр
func (s *FileFrameSink) Load(ctx context.Context, id string) ([]byte, error) {
	if err := checkFrameID(id); err != nil {
		return nil, err
	}
	return os.ReadFile(filepath.Join(s.dir, frameObjectName(id)))
}

// checkFrameID не даёт выйти за пределы каталога сканирования
func checkFrameID(id string) error {
	if id == "" || strings.ContainsAny(id, `/\`) || strings.Contains(id, "..") {
		return fmt.Errorf("invalid frame id %q", id)
	}
	return nil
}

var (
	_ port.FrameSinkFactory = (*FileFrameSinks)(nil)
	_ port.FrameSink        = (*FileFrameSink)(nil)
)
