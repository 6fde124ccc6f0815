package provider

import (
	"encoding/base64"
	"testing"

	"ai-picbook-api/pkg/errors"
)

func TestExtractImage(t *testing.T) {
	payload := base64.StdEncoding.EncodeToString([]byte("fake-png"))

	tests := []struct {
		name     string
		content  string
		wantData string
		wantURL  string
	}{
		{
			name:     "inline data uri",
			content:  "这是你的图片 data:image/png;base64," + payload + " 请查收",
			wantData: "fake-png",
		},
		{
			name:    "markdown image link",
			content: "生成完毕：![插图](https://cdn.example.com/a/b.png) 希望你喜欢",
			wantURL: "https://cdn.example.com/a/b.png",
		},
		{
			name:    "bare url",
			content: "图片地址 https://img.example.com/out.jpeg?sig=abc123 已就绪",
			wantURL: "https://img.example.com/out.jpeg?sig=abc123",
		},
		{
			name:     "data uri wins over links",
			content:  "![x](https://cdn.example.com/x.png) data:image/png;base64," + payload,
			wantData: "fake-png",
		},
		{
			name:    "markdown wins over bare url",
			content: "https://a.example.com/first.png ![y](https://b.example.com/second.png)",
			wantURL: "https://b.example.com/second.png",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractImage(tt.content)
			if err != nil {
				t.Fatal(err)
			}
			if tt.wantData != "" && string(got.Data) != tt.wantData {
				t.Fatalf("data = %q, want %q", got.Data, tt.wantData)
			}
			if tt.wantURL != "" && got.URL != tt.wantURL {
				t.Fatalf("url = %q, want %q", got.URL, tt.wantURL)
			}
		})
	}
}

func TestExtractImageNoImage(t *testing.T) {
	_, err := ExtractImage("抱歉，我只能输出文字。")
	if err == nil {
		t.Fatal("want error for text-only output")
	}
	if errors.AsAppError(err).Code != errors.CodeProviderMalformed {
		t.Fatalf("error code = %s, want %s", errors.AsAppError(err).Code, errors.CodeProviderMalformed)
	}
}

func TestExtractImageBadBase64(t *testing.T) {
	_, err := ExtractImage("data:image/png;base64,====")
	if err == nil {
		t.Fatal("want error for invalid base64")
	}
	if errors.AsAppError(err).Code != errors.CodeProviderMalformed {
		t.Fatalf("error code = %s, want %s", errors.AsAppError(err).Code, errors.CodeProviderMalformed)
	}
}
