package taskmgr

import (
	"container/list"
	"errors"
	"sync"
)

// HandlerFunc runs one task with the context of the queue it was added to.
type HandlerFunc[C, T any] func(ctx C, task T) error

type queue struct {
	running bool
	tasks   list.List
}

// TaskManager runs tasks grouped in keyed queues. Tasks of one queue run one
// after the other; distinct queues run concurrently.
type TaskManager[C, T any] struct {
	contexts map[string]C
	mutex    sync.Mutex
	queues   map[string]*queue
	handler  HandlerFunc[C, T]
	running  bool
	errs     []error
	wg       sync.WaitGroup
}

func NewTaskManager[C, T any](handler HandlerFunc[C, T]) *TaskManager[C, T] {
	return &TaskManager[C, T]{
		contexts: make(map[string]C),
		queues:   make(map[string]*queue),
		handler:  handler,
	}
}

// AddContext sets the context handed to every task of queue key.
func (t *TaskManager[C, T]) AddContext(key string, ctx C) {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	t.contexts[key] = ctx
}

// AddTask appends a task to queue key. Tasks added while Run is in progress
// are picked up before Run returns.
func (t *TaskManager[C, T]) AddTask(key string, task T) {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	q, ok := t.queues[key]
	if !ok {
		q = &queue{}
		t.queues[key] = q
	}
	q.tasks.PushBack(task)
	if t.running && !q.running {
		q.running = true
		t.wg.Add(1)
		go t.runQueue(key)
	}
}

// runQueue drains queue key; q.running is set by the caller.
func (t *TaskManager[C, T]) runQueue(key string) {
	defer t.wg.Done()
	t.mutex.Lock()
	q := t.queues[key]
	ctx := t.contexts[key]
	for {
		if q.tasks.Len() == 0 {
			q.running = false
			t.mutex.Unlock()
			return
		}
		task := q.tasks.Remove(q.tasks.Front()).(T)
		t.mutex.Unlock()
		err := t.handler(ctx, task)
		t.mutex.Lock()
		if err != nil {
			t.errs = append(t.errs, err)
		}
	}
}

// Run drains every queue and returns the joined task errors.
func (t *TaskManager[C, T]) Run() error {
	t.mutex.Lock()
	t.running = true
	t.errs = nil
	for key, q := range t.queues {
		if q.running || q.tasks.Len() == 0 {
			continue
		}
		q.running = true
		t.wg.Add(1)
		go t.runQueue(key)
	}
	t.mutex.Unlock()

	t.wg.Wait()
	t.mutex.Lock()
	defer t.mutex.Unlock()
	t.running = false
	return errors.Join(t.errs...)
}
