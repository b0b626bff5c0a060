// Package async provides a small worker pool for running independent fetch
// tasks concurrently and collecting their results by name.
package async

import (
	"context"
	"sync"
)

// Task is a named unit of work.
type Task struct {
	Name    string
	Execute func() (any, error)
}

// Result carries a task's output or error.
type Result struct {
	Name string
	Data any
	Err  error
}

// Pool runs tasks across a fixed number of workers.
type Pool struct {
	workerCount int
}

// NewPool creates a pool with the given worker count.
func NewPool(workerCount int) *Pool {
	if workerCount < 1 {
		workerCount = 1
	}
	return &Pool{workerCount: workerCount}
}

// Execute runs all tasks and returns their results keyed by task name. It
// blocks until every task has finished or the context is cancelled; tasks
// not started before cancellation are absent from the result map.
func (p *Pool) Execute(ctx context.Context, tasks []Task) map[string]Result {
	queue := make(chan Task, len(tasks))
	for _, task := range tasks {
		queue <- task
	}
	close(queue)

	results := make(map[string]Result, len(tasks))
	var mu sync.Mutex
	var wg sync.WaitGroup

	for i := 0; i < p.workerCount; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for task := range queue {
				select {
				case <-ctx.Done():
					return
				default:
				}

				data, err := task.Execute()
				mu.Lock()
				results[task.Name] = Result{Name: task.Name, Data: data, Err: err}
				mu.Unlock()
			}
		}()
	}

	wg.Wait()
	return results
}
