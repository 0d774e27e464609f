package task

import "sync"

// Slot 时间轮槽位
type Slot struct {
	mu    sync.Mutex
	tasks map[string]*Task // key: taskID
	order []string         // 加入顺序，保证同一槽位内先加先执行
}

// NewSlot 创建新槽位
func NewSlot() *Slot {
	return &Slot{
		tasks: make(map[string]*Task),
	}
}

// AddTask 添加任务到槽位，同 ID 任务会被替换并排到末尾
func (s *Slot) AddTask(task *Task) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tasks[task.ID]; exists {
		s.dropOrder(task.ID)
	}
	s.tasks[task.ID] = task
	s.order = append(s.order, task.ID)
}

// RemoveTask 从槽位删除任务
func (s *Slot) RemoveTask(taskID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tasks[taskID]; !exists {
		return false
	}
	delete(s.tasks, taskID)
	s.dropOrder(taskID)
	return true
}

// RemoveByTarget 删除某个对象的全部任务，返回被删除的任务 ID
func (s *Slot) RemoveByTarget(target string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed []string
	for id, task := range s.tasks {
		if task.Target == target {
			removed = append(removed, id)
		}
	}
	for _, id := range removed {
		delete(s.tasks, id)
		s.dropOrder(id)
	}
	return removed
}

// GetAndClear 按加入顺序获取全部任务并清空槽位
func (s *Slot) GetAndClear() []*Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.tasks) == 0 {
		return nil
	}

	tasks := make([]*Task, 0, len(s.tasks))
	for _, id := range s.order {
		tasks = append(tasks, s.tasks[id])
	}

	s.tasks = make(map[string]*Task)
	s.order = nil

	return tasks
}

// Count 获取槽位任务数量
func (s *Slot) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.tasks)
}

func (s *Slot) dropOrder(taskID string) {
	for i, id := range s.order {
		if id == taskID {
			s.order = append(s.order[:i], s.order[i+1:]...)
			return
		}
	}
}
