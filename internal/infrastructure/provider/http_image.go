package provider

import (
	"bufio"
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"ai-picbook-api/internal/config"
	"ai-picbook-api/internal/domain/repository"
	"ai-picbook-api/pkg/errors"
)

// httpImageGenerator 通用 HTTP JSON 图像生成器
// image 模式请求单次图像端点；chat 模式请求流式对话端点并从输出中提取图片
type httpImageGenerator struct {
	endpoint  string
	apiKey    string
	model     string
	mode      string
	client    *http.Client
	maxChunks int
}

// NewHTTPImageGenerator 创建通用 HTTP 图像生成器，构造时校验端点与凭证
func NewHTTPImageGenerator(cfg config.ProviderSettings, opts Options) (repository.ImageGenerator, error) {
	if strings.TrimSpace(cfg.Endpoint) == "" {
		return nil, errors.New(errors.CodeProviderConfig, "http provider endpoint missing").
			WithDetail("在图像提供商配置中填写 endpoint")
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New(errors.CodeProviderConfig, "http provider api key missing").
			WithDetail("在图像提供商配置中填写 api_key")
	}

	mode := cfg.Mode
	if mode == "" {
		mode = config.ModeImage
	}

	return &httpImageGenerator{
		endpoint:  cfg.Endpoint,
		apiKey:    cfg.APIKey,
		model:     cfg.Model,
		mode:      mode,
		client:    opts.httpClient(),
		maxChunks: opts.streamMaxChunks(),
	}, nil
}

// Generate 生成单张图像
func (g *httpImageGenerator) Generate(ctx context.Context, req repository.ImageRequest) (*repository.ImageResult, error) {
	if g.mode == config.ModeChat {
		return g.generateChat(ctx, req)
	}
	return g.generateImage(ctx, req)
}

// generateImage 调用单次图像端点
func (g *httpImageGenerator) generateImage(ctx context.Context, req repository.ImageRequest) (*repository.ImageResult, error) {
	payload := map[string]any{
		"model":           g.model,
		"prompt":          req.Prompt,
		"response_format": "b64_json",
	}
	if req.Size != "" {
		payload["size"] = req.Size
	}

	body, err := g.post(ctx, payload, false)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	var parsed struct {
		Data []struct {
			B64JSON string `json:"b64_json"`
			URL     string `json:"url"`
		} `json:"data"`
	}
	if err := json.NewDecoder(body).Decode(&parsed); err != nil {
		return nil, errors.Wrap(err, errors.CodeProviderMalformed, "failed to decode image response")
	}
	if len(parsed.Data) == 0 {
		return nil, errors.New(errors.CodeProviderMalformed, "image response contained no data")
	}

	if parsed.Data[0].B64JSON != "" {
		data, err := base64.StdEncoding.DecodeString(parsed.Data[0].B64JSON)
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeProviderMalformed, "invalid base64 in image response")
		}
		return &repository.ImageResult{Data: data, MimeType: "image/png"}, nil
	}
	if parsed.Data[0].URL != "" {
		data, mime, err := fetchImage(ctx, g.client, parsed.Data[0].URL)
		if err != nil {
			return nil, err
		}
		return &repository.ImageResult{Data: data, MimeType: mime}, nil
	}
	return nil, errors.New(errors.CodeProviderMalformed, "image response missing both b64_json and url")
}

// generateChat 调用流式对话端点并从累计输出中提取图片
// 分块数受 maxChunks 约束：服务端一直不发终止标记时按流超时失败，由调用方重试
func (g *httpImageGenerator) generateChat(ctx context.Context, req repository.ImageRequest) (*repository.ImageResult, error) {
	content := []map[string]any{{"type": "text", "text": req.Prompt}}
	for _, ref := range req.References {
		content = append(content, map[string]any{
			"type": "image_url",
			"image_url": map[string]any{
				"url": "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(ref),
			},
		})
	}

	payload := map[string]any{
		"model":  g.model,
		"stream": true,
		"messages": []map[string]any{
			{"role": "user", "content": content},
		},
	}

	body, err := g.post(ctx, payload, true)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	text, err := readChatStream(body, g.maxChunks)
	if err != nil {
		return nil, err
	}

	extracted, err := ExtractImage(text)
	if err != nil {
		return nil, err
	}
	if extracted.Data != nil {
		return &repository.ImageResult{Data: extracted.Data, MimeType: "image/png"}, nil
	}
	data, mime, err := fetchImage(ctx, g.client, extracted.URL)
	if err != nil {
		return nil, err
	}
	return &repository.ImageResult{Data: data, MimeType: mime}, nil
}

func (g *httpImageGenerator) post(ctx context.Context, payload map[string]any, stream bool) (io.ReadCloser, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternalError, "failed to marshal provider request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, bytes.NewReader(raw))
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeProviderConfig, "invalid provider endpoint")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+g.apiKey)
	if stream {
		httpReq.Header.Set("Accept", "text/event-stream")
	}

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return nil, Explain(err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, Explain(fmt.Errorf("provider returned status %d: %s", resp.StatusCode, string(snippet)))
	}
	return resp.Body, nil
}

// readChatStream 读取 SSE 分块并拼接增量内容
func readChatStream(body io.Reader, maxChunks int) (string, error) {
	var sb strings.Builder
	chunks := 0

	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 4<<20)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if data == "[DONE]" {
			return sb.String(), nil
		}

		chunks++
		if chunks > maxChunks {
			return "", errors.New(errors.CodeProviderStreamTimeout, "stream exceeded max chunk count").
				WithDetail(fmt.Sprintf("读取了超过 %d 个分块仍未收到终止标记", maxChunks))
		}

		var chunk struct {
			Choices []struct {
				Delta struct {
					Content string `json:"content"`
				} `json:"delta"`
				FinishReason string `json:"finish_reason"`
			} `json:"choices"`
		}
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			continue
		}
		for _, c := range chunk.Choices {
			sb.WriteString(c.Delta.Content)
		}
	}
	if err := scanner.Err(); err != nil {
		return "", errors.Wrap(err, errors.CodeGenerationFailed, "failed to read provider stream")
	}
	return sb.String(), nil
}
