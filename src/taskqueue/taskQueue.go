package taskqueue

import (
	"context"
	"fmt"
	"sync"
)

// TaskQueue runs queued tasks on at most maxWorkers goroutines. Tasks may
// push further tasks while running; Run returns once the queue is drained
// and every worker has finished.
type TaskQueue struct {
	maxWorkers   int
	curWorkers   int
	stopOnErrors bool
	queue        []Task
	lock         *sync.Mutex
	cond         *sync.Cond
}

type Task func() error

func NewTaskQueue(workers int, stopOnErrors bool) *TaskQueue {
	if workers < 1 {
		workers = 1
	}
	lock := &sync.Mutex{}
	return &TaskQueue{
		maxWorkers:   workers,
		stopOnErrors: stopOnErrors,
		queue:        make([]Task, 0),
		lock:         lock,
		cond:         sync.NewCond(lock),
	}
}

// Run dispatches tasks until the queue is empty and idle. When ctx is done
// no new task is started; Run waits for running ones and returns ctx.Err().
func (tq *TaskQueue) Run(ctx context.Context) error {
	var err error

	stop := context.AfterFunc(ctx, func() {
		tq.lock.Lock()
		tq.cond.Broadcast()
		tq.lock.Unlock()
	})
	defer stop()

	tq.lock.Lock()
	defer tq.lock.Unlock()

	for {
		for tq.curWorkers > 0 &&
			(tq.curWorkers == tq.maxWorkers ||
				len(tq.queue) == 0 ||
				(tq.stopOnErrors && err != nil) ||
				ctx.Err() != nil) {
			tq.cond.Wait()
		}

		if ctx.Err() != nil {
			return ctx.Err()
		}
		if len(tq.queue) == 0 || (tq.stopOnErrors && err != nil) {
			return err
		}

		tq.curWorkers++
		task := tq.queue[0]
		tq.queue[0] = nil
		tq.queue = tq.queue[1:]

		go func(task Task) {
			te := run(task)

			tq.lock.Lock()
			tq.curWorkers--
			if te != nil {
				err = te
			}
			tq.cond.Broadcast()
			tq.lock.Unlock()
		}(task)
	}
}

func (tq *TaskQueue) Push(task Task) {
	tq.lock.Lock()
	tq.queue = append(tq.queue, task)
	tq.cond.Broadcast()
	tq.lock.Unlock()
}

func run(task Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task panicked: %v", r)
		}
	}()
	return task()
}
