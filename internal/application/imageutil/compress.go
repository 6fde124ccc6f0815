// Package imageutil 提供图像压缩与缩略图功能
package imageutil

import (
	"bytes"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// CompressJPEG 将图像压缩到字节预算内，输出 JPEG
// 先逐级降低质量，仍超限时逐级缩小尺寸；用于生成提供商参考图
func CompressJPEG(data []byte, budget int) ([]byte, error) {
	if budget <= 0 || len(data) <= budget {
		return data, nil
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	for _, quality := range []int{85, 70, 55, 40} {
		out, err := encodeJPEG(img, quality)
		if err != nil {
			return nil, err
		}
		if len(out) <= budget {
			return out, nil
		}
	}

	// 质量降到底仍超限，逐次减半宽度
	var last []byte
	for i := 0; i < 4; i++ {
		w := img.Bounds().Dx() / 2
		if w < 64 {
			break
		}
		img = imaging.Resize(img, w, 0, imaging.Lanczos)
		out, err := encodeJPEG(img, 55)
		if err != nil {
			return nil, err
		}
		last = out
		if len(out) <= budget {
			return out, nil
		}
	}
	if last != nil {
		return last, nil
	}
	return data, nil
}

// Thumbnail 生成 PNG 缩略图，尽力满足字节预算
func Thumbnail(data []byte, budget int) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	w := img.Bounds().Dx()
	if w > 480 {
		w = 480
	}
	thumb := imaging.Resize(img, w, 0, imaging.Lanczos)

	out, err := encodePNG(thumb)
	if err != nil {
		return nil, err
	}
	for budget > 0 && len(out) > budget && w > 64 {
		w /= 2
		thumb = imaging.Resize(thumb, w, 0, imaging.Lanczos)
		out, err = encodePNG(thumb)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

func encodeJPEG(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, fmt.Errorf("failed to encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("failed to encode png: %w", err)
	}
	return buf.Bytes(), nil
}
