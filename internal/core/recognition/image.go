package recognition

import (
	"bytes"
	"encoding/base64"
	"image"
	"strings"

	_ "image/gif"  // 支援 GIF
	_ "image/jpeg" // 支援 JPEG
	_ "image/png"  // 支援 PNG

	_ "golang.org/x/image/bmp"  // 支援 BMP
	_ "golang.org/x/image/tiff" // 支援 TIFF
	_ "golang.org/x/image/webp" // 支援 WebP

	"recipe-finder/internal/pkg/common"
)

// ImageValidator 驗證前端送來的 data URI 圖片
type ImageValidator struct {
	maxSizeBytes int64
}

// NewImageValidator 建立圖片驗證器
func NewImageValidator(maxSizeBytes int64) *ImageValidator {
	return &ImageValidator{maxSizeBytes: maxSizeBytes}
}

// isSupportedFormat 檢查圖片格式是否支援
func isSupportedFormat(format string) bool {
	switch format {
	case "jpeg", "png", "gif", "webp", "bmp", "tiff":
		return true
	}
	return false
}

// Validate 檢查 data:image/...;base64, 格式、大小與實際圖片格式，回傳格式名稱
func (v *ImageValidator) Validate(imageData string) (string, error) {
	imageData = strings.TrimSpace(imageData)
	if imageData == "" {
		return "", common.ErrNoImageData
	}
	if !strings.HasPrefix(imageData, "data:image/") {
		return "", common.ErrInvalidImage.WithMessage("Image must be a data:image URI.")
	}

	header, payload, ok := strings.Cut(imageData, ",")
	if !ok || !strings.HasSuffix(header, ";base64") {
		return "", common.ErrInvalidImage.WithMessage("Image must be base64 encoded.")
	}

	// 先以編碼長度估算，避免解碼超大資料
	if v.maxSizeBytes > 0 && int64(base64.StdEncoding.DecodedLen(len(payload))) > v.maxSizeBytes+2 {
		return "", common.ErrImageTooLarge
	}

	decoded, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", common.ErrInvalidImage.Wrap(err)
	}
	if v.maxSizeBytes > 0 && int64(len(decoded)) > v.maxSizeBytes {
		return "", common.ErrImageTooLarge
	}

	_, format, err := image.DecodeConfig(bytes.NewReader(decoded))
	if err != nil {
		return "", common.ErrInvalidImage.Wrap(err)
	}
	if !isSupportedFormat(format) {
		return "", common.ErrInvalidImage.WithMessage("Unsupported image format: " + format)
	}
	return format, nil
}
