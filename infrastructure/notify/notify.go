package notify

import (
	"sync"
	"time"
)

type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
	LevelInfo    Level = "info"
)

// Toast is a transient operator notification.
type Toast struct {
	Level     Level
	Title     string
	Message   string
	CreatedAt time.Time
}

const defaultCapacity = 8

// Queue holds toasts until the next page render drains them. When full the
// oldest toast is dropped.
type Queue struct {
	mu    sync.Mutex
	items []Toast
	max   int
}

func NewQueue(capacity int) *Queue {
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	return &Queue{max: capacity}
}

func (q *Queue) Push(level Level, title, message string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, Toast{Level: level, Title: title, Message: message, CreatedAt: time.Now()})
	if over := len(q.items) - q.max; over > 0 {
		q.items = append([]Toast(nil), q.items[over:]...)
	}
}

func (q *Queue) Success(title, message string) { q.Push(LevelSuccess, title, message) }
func (q *Queue) Error(title, message string)   { q.Push(LevelError, title, message) }
func (q *Queue) Info(title, message string)    { q.Push(LevelInfo, title, message) }

// Drain returns queued toasts oldest first and empties the queue.
func (q *Queue) Drain() []Toast {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.items
	q.items = nil
	return out
}

func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
