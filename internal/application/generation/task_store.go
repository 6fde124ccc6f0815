package generation

import (
	"sync"
	"time"

	"ai-picbook-api/internal/domain/entity"
)

// TaskStore 进程内任务上下文存储
// 显式持有、生命周期随应用容器；条目超过 TTL 后被清理，
// 防止长期运行下无界增长。重启后内容丢失是已接受的限制。
type TaskStore struct {
	mu    sync.Mutex
	tasks map[string]*entity.TaskContext
	ttl   time.Duration
}

// NewTaskStore 创建任务上下文存储
func NewTaskStore(ttl time.Duration) *TaskStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &TaskStore{
		tasks: make(map[string]*entity.TaskContext),
		ttl:   ttl,
	}
}

// SetContext 记录任务的主题与大纲上下文
func (s *TaskStore) SetContext(taskID, topic, outline string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.getOrCreateLocked(taskID)
	t.Topic = topic
	t.Outline = outline
}

// SetCover 缓存压缩后的封面参考图
func (s *TaskStore) SetCover(taskID string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.getOrCreateLocked(taskID).Cover = data
}

// Cover 取出缓存的封面参考图
func (s *TaskStore) Cover(taskID string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[taskID]
	if !ok || len(t.Cover) == 0 {
		return nil, false
	}
	return t.Cover, true
}

// MarkGenerated 记录某页生成成功
func (s *TaskStore) MarkGenerated(taskID string, index int, file string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.getOrCreateLocked(taskID)
	t.Generated[index] = file
	delete(t.Failed, index)
}

// MarkFailed 记录某页生成失败
func (s *TaskStore) MarkFailed(taskID string, index int, reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.getOrCreateLocked(taskID)
	if _, ok := t.Generated[index]; ok {
		return
	}
	t.Failed[index] = reason
}

// Snapshot 返回任务状态的拷贝，避免调用方拿到内部 map
func (s *TaskStore) Snapshot(taskID string) (generated map[int]string, failed map[int]string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	generated = make(map[int]string)
	failed = make(map[int]string)
	t, ok := s.tasks[taskID]
	if !ok {
		return generated, failed
	}
	for k, v := range t.Generated {
		generated[k] = v
	}
	for k, v := range t.Failed {
		failed[k] = v
	}
	return generated, failed
}

// Sweep 清理超过 TTL 未活跃的任务，返回清理数量
func (s *TaskStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().Add(-s.ttl)
	removed := 0
	for id, t := range s.tasks {
		if t.UpdatedAt.Before(cutoff) {
			delete(s.tasks, id)
			removed++
		}
	}
	return removed
}

func (s *TaskStore) getOrCreateLocked(taskID string) *entity.TaskContext {
	t, ok := s.tasks[taskID]
	if !ok {
		t = entity.NewTaskContext(taskID)
		s.tasks[taskID] = t
	}
	t.UpdatedAt = time.Now()
	return t
}
