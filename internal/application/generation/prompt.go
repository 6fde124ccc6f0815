package generation

import (
	"fmt"
	"strings"

	"ai-picbook-api/internal/domain/entity"
)

// pagePrompt 按页面类型构造图像生成提示词
// 携带参考图时由提供商侧负责画风约束，提示词只描述画面内容
func pagePrompt(task Task, page entity.OutlinePage) string {
	var b strings.Builder
	b.WriteString("为一本主题为《")
	b.WriteString(task.Topic)
	b.WriteString("》的绘本绘制插画。\n")

	switch page.Type {
	case entity.PageTypeCover:
		b.WriteString("这是封面页，需要醒目的标题构图和统一的整体画风。\n")
	case entity.PageTypeSummary:
		b.WriteString("这是总结页，画面收束全书氛围。\n")
	default:
		b.WriteString(fmt.Sprintf("这是第 %d 页的内容插画。\n", page.Index+1))
	}

	b.WriteString("页面描述：")
	b.WriteString(page.Content)
	b.WriteString("\n画面中不要出现任何文字。")
	return b.String()
}

// thumbName 返回某页缩略图的文件名，与图片存储的命名约定一致
func thumbName(index int) string {
	return fmt.Sprintf("thumb_%d.png", index)
}
