package repository

import "context"

// ImageRequest 图像生成请求
type ImageRequest struct {
	Prompt      string
	Size        string
	AspectRatio string
	// References 参考图字节，用于约束后续页面的画风一致性
	References [][]byte
}

// ImageResult 图像生成结果
type ImageResult struct {
	Data     []byte
	MimeType string
}

// ImageGenerator 图像生成端口
type ImageGenerator interface {
	Generate(ctx context.Context, req ImageRequest) (*ImageResult, error)
}

// TextGenerator 文本生成端口
type TextGenerator interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// ImageStore 任务图片的持久化端口
type ImageStore interface {
	// Save 写入原图与缩略图，返回原图文件名
	Save(ctx context.Context, taskID string, index int, data []byte) (string, error)

	// Load 读取原图或缩略图，未找到时返回 errors.ErrImageNotFound
	Load(ctx context.Context, taskID string, index int, thumb bool) ([]byte, error)
}
