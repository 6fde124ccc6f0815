package entity

import (
	"regexp"
	"time"
)

// TaskContext 一次生成任务的进程内上下文
// 仅在进程生命周期内有效，重启后丢失；封面字节用于后续页面的风格参考
type TaskContext struct {
	TaskID    string
	Topic     string
	Outline   string
	Cover     []byte
	Generated map[int]string
	Failed    map[int]string
	UpdatedAt time.Time
}

// NewTaskContext 创建任务上下文
func NewTaskContext(taskID string) *TaskContext {
	return &TaskContext{
		TaskID:    taskID,
		Generated: make(map[int]string),
		Failed:    make(map[int]string),
		UpdatedAt: time.Now(),
	}
}

// 任务 ID 会成为任务图片目录名，只允许无路径语义的字符
var taskIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// ValidTaskID 校验任务 ID 能否安全用于文件路径
// 客户端可自带任务 ID，必须在进入任何路径拼接前通过该校验
func ValidTaskID(id string) bool {
	return taskIDPattern.MatchString(id)
}
