// internal/worker/task.go
package worker

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrQueueClosed is returned by Dequeue after Close drains the queue.
var ErrQueueClosed = errors.New("task queue is closed")

// Task is a unit of background work. Name and Args identify the task
// for lease purposes: two tasks with the same name and equal args are
// the same work and must not run concurrently.
type Task struct {
	ID   string
	Name string
	Args any
}

// NewTask creates a task with a fresh ID.
func NewTask(name string, args any) *Task {
	return &Task{
		ID:   uuid.NewString(),
		Name: name,
		Args: args,
	}
}

// Queue is an in-memory task queue feeding a Runner.
type Queue struct {
	ch chan *Task
}

// NewQueue creates a queue buffering up to size tasks.
func NewQueue(size int) *Queue {
	if size < 0 {
		size = 0
	}
	return &Queue{ch: make(chan *Task, size)}
}

// Enqueue adds a task, blocking while the queue is full.
func (q *Queue) Enqueue(ctx context.Context, t *Task) error {
	select {
	case q.ch <- t:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Dequeue removes the next task, blocking until one is available, the
// context is cancelled, or the queue is closed and drained.
func (q *Queue) Dequeue(ctx context.Context) (*Task, error) {
	select {
	case t, ok := <-q.ch:
		if !ok {
			return nil, ErrQueueClosed
		}
		return t, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close stops the queue. Tasks already enqueued are still delivered.
func (q *Queue) Close() {
	close(q.ch)
}
