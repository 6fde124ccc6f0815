package provider

import (
	"encoding/base64"
	"regexp"

	"ai-picbook-api/pkg/errors"
)

var (
	dataURIRe       = regexp.MustCompile(`data:image/[a-zA-Z+.-]+;base64,([A-Za-z0-9+/=]+)`)
	markdownImageRe = regexp.MustCompile(`!\[[^\]]*\]\((https?://[^)\s]+)\)`)
	bareURLRe       = regexp.MustCompile(`https?://[^\s"'<>)\]]+\.(?:png|jpe?g|webp|gif)(?:\?[^\s"'<>)\]]*)?`)
)

// ExtractedImage 从模型输出中提取出的图片负载
// Data 与 URL 互斥：内联 base64 时填 Data，仅有链接时填 URL 由调用方下载
type ExtractedImage struct {
	Data []byte
	URL  string
}

// ExtractImage 用启发式规则从对话输出中定位图片
// 依次尝试：data URI 内联 base64、markdown 图片链接、裸图片 URL
func ExtractImage(content string) (*ExtractedImage, error) {
	if m := dataURIRe.FindStringSubmatch(content); m != nil {
		data, err := base64.StdEncoding.DecodeString(m[1])
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeProviderMalformed, "invalid base64 image payload")
		}
		return &ExtractedImage{Data: data}, nil
	}
	if m := markdownImageRe.FindStringSubmatch(content); m != nil {
		return &ExtractedImage{URL: m[1]}, nil
	}
	if url := bareURLRe.FindString(content); url != "" {
		return &ExtractedImage{URL: url}, nil
	}
	return nil, errors.New(errors.CodeProviderMalformed, "no image found in model output").
		WithDetail("流式输出中未发现 data URI、markdown 图片或图片链接")
}
