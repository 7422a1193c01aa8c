package storage

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
)

// jpegQuality качество сохраняемых кадров
const jpegQuality = 90

// frameObjectName имя файла кадра по идентификатору
func frameObjectName(id string) string {
	return "frame_" + id + ".jpg"
}

func encodeJPEG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}
