package provider

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"ai-picbook-api/pkg/errors"
)

// 下载图片的大小上限，防止异常响应耗尽内存
const maxImageBytes = 32 << 20

// fetchImage 下载提取出的图片 URL
func fetchImage(ctx context.Context, client *http.Client, url string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", errors.Wrap(err, errors.CodeProviderMalformed, "invalid image url")
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, "", errors.Wrap(err, errors.CodeGenerationFailed, "failed to download generated image")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", errors.New(errors.CodeGenerationFailed,
			fmt.Sprintf("image download returned status %d", resp.StatusCode))
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return nil, "", errors.Wrap(err, errors.CodeGenerationFailed, "failed to read image body")
	}

	mime := resp.Header.Get("Content-Type")
	if mime == "" {
		mime = "image/png"
	}
	return data, mime, nil
}
