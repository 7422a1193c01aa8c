package port

import (
	"context"
	"image"

	"zonewatch/internal/domain/entity"
)

// VideoSource открывает видеофайлы
type VideoSource interface {
	// Open открывает видео; ошибка означает, что источник недоступен
	Open(ctx context.Context, path string) (VideoHandle, error)
}

// VideoHandle открытое видео. Принадлежит одному сканированию.
type VideoHandle interface {
	// Info возвращает размеры, частоту кадров и число кадров
	Info() entity.VideoInfo

	// Read читает следующий кадр; ok == false в конце потока
	Read() (frame image.Image, ok bool)

	// Close освобождает видео
	Close() error
}
