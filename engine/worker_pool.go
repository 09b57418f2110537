package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
)

// Common errors for pool operations
var (
	ErrPoolShutdown = errors.New("worker pool is shut down")
	ErrQueueFull    = errors.New("task queue is full")
)

// BuildFunc produces one column array.
type BuildFunc func(ctx context.Context) (arrow.Array, error)

// Task is a single column build submitted to the pool.
type Task struct {
	ID        string
	Index     int
	Build     BuildFunc
	CreatedAt time.Time
	Ctx       context.Context
}

// NewTask creates a task for the column at index.
func NewTask(id string, index int, fn BuildFunc) *Task {
	return &Task{
		ID:        id,
		Index:     index,
		Build:     fn,
		CreatedAt: time.Now(),
		Ctx:       context.Background(),
	}
}

// WithContext returns the task bound to ctx.
func (t *Task) WithContext(ctx context.Context) *Task {
	t.Ctx = ctx
	return t
}

// Result is the outcome of a Task. Array is nil when Error is set.
type Result struct {
	TaskID   string
	Index    int
	Success  bool
	Array    arrow.Array
	Error    error
	Duration time.Duration
	WorkerID int
}

// PoolStats contains worker pool statistics.
type PoolStats struct {
	Name        string  `json:"name"`
	Workers     int     `json:"workers"`
	Active      int64   `json:"active"`
	Completed   int64   `json:"completed"`
	Failed      int64   `json:"failed"`
	Pending     int     `json:"pending"`
	SuccessRate float64 `json:"success_rate"`
}

// WorkerPool runs column builds on a fixed set of goroutines.
type WorkerPool struct {
	name       string
	workers    int
	taskChan   chan *Task
	resultChan chan *Result
	wg         sync.WaitGroup

	active    int64
	completed int64
	failed    int64

	ctx     context.Context
	cancel  context.CancelFunc
	running bool
	mu      sync.RWMutex
}

// NewWorkerPool creates a pool with the given number of workers.
// Task and result queues hold queueSize entries each.
func NewWorkerPool(name string, workers, queueSize int) *WorkerPool {
	if workers <= 0 {
		workers = 1
	}
	if queueSize < workers {
		queueSize = workers
	}

	ctx, cancel := context.WithCancel(context.Background())

	pool := &WorkerPool{
		name:       name,
		workers:    workers,
		taskChan:   make(chan *Task, queueSize),
		resultChan: make(chan *Result, queueSize),
		ctx:        ctx,
		cancel:     cancel,
		running:    true,
	}

	for i := 0; i < workers; i++ {
		pool.wg.Add(1)
		go pool.worker(i)
	}

	return pool
}

func (p *WorkerPool) worker(id int) {
	defer p.wg.Done()

	for {
		select {
		case <-p.ctx.Done():
			return
		case task, ok := <-p.taskChan:
			if !ok {
				return
			}
			p.deliver(p.run(id, task))
		}
	}
}

// run executes a task, converting panics into failed results.
func (p *WorkerPool) run(workerID int, task *Task) (result *Result) {
	atomic.AddInt64(&p.active, 1)
	defer atomic.AddInt64(&p.active, -1)

	start := time.Now()
	result = &Result{
		TaskID:   task.ID,
		Index:    task.Index,
		WorkerID: workerID,
	}

	defer func() {
		if r := recover(); r != nil {
			result.Array = nil
			result.Error = fmt.Errorf("panic in task %s: %v", task.ID, r)
		}
		result.Success = result.Error == nil
		result.Duration = time.Since(start)
		if result.Success {
			atomic.AddInt64(&p.completed, 1)
		} else {
			atomic.AddInt64(&p.failed, 1)
		}
	}()

	ctx := task.Ctx
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		result.Error = err
		return result
	}

	if task.Build == nil {
		result.Error = errors.New("no build function defined")
		return result
	}

	arr, err := task.Build(ctx)
	if err != nil {
		if arr != nil {
			arr.Release()
		}
		result.Error = err
		return result
	}
	result.Array = arr
	return result
}

// deliver hands a result to consumers, dropping it once the pool is shut down.
func (p *WorkerPool) deliver(result *Result) {
	select {
	case p.resultChan <- result:
	case <-p.ctx.Done():
		if result.Array != nil {
			result.Array.Release()
		}
	}
}

// Submit queues a task without blocking.
func (p *WorkerPool) Submit(task *Task) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if !p.running {
		return ErrPoolShutdown
	}

	select {
	case p.taskChan <- task:
		return nil
	default:
		return ErrQueueFull
	}
}

// Results returns the result channel for consuming results.
func (p *WorkerPool) Results() <-chan *Result {
	return p.resultChan
}

// RunAll submits every task and waits for all results, ordered by task index.
// On the first failure the successful arrays are released and the error returned.
func (p *WorkerPool) RunAll(ctx context.Context, tasks []*Task) ([]*Result, error) {
	for _, task := range tasks {
		task.WithContext(ctx)
		if err := p.Submit(task); err != nil {
			return nil, fmt.Errorf("failed to submit task %s: %w", task.ID, err)
		}
	}

	results := make([]*Result, len(tasks))
	var firstErr error
	for received := 0; received < len(tasks); received++ {
		var res *Result
		select {
		case res = <-p.resultChan:
		case <-p.ctx.Done():
			releaseResults(results)
			return nil, ErrPoolShutdown
		}
		if res.Index < 0 || res.Index >= len(results) {
			return nil, fmt.Errorf("task %s has out of range index %d", res.TaskID, res.Index)
		}
		results[res.Index] = res
		if !res.Success && firstErr == nil {
			firstErr = fmt.Errorf("task %s failed: %w", res.TaskID, res.Error)
		}
	}

	if firstErr != nil {
		releaseResults(results)
		return nil, firstErr
	}

	return results, nil
}

func releaseResults(results []*Result) {
	for _, res := range results {
		if res != nil && res.Array != nil {
			res.Array.Release()
			res.Array = nil
		}
	}
}

// GetStats returns current worker pool statistics.
func (p *WorkerPool) GetStats() PoolStats {
	completed := atomic.LoadInt64(&p.completed)
	failed := atomic.LoadInt64(&p.failed)
	total := completed + failed

	var successRate float64
	if total > 0 {
		successRate = float64(completed) / float64(total) * 100
	}

	return PoolStats{
		Name:        p.name,
		Workers:     p.workers,
		Active:      atomic.LoadInt64(&p.active),
		Completed:   completed,
		Failed:      failed,
		Pending:     len(p.taskChan),
		SuccessRate: successRate,
	}
}

// Shutdown stops accepting tasks and waits for the workers to exit.
func (p *WorkerPool) Shutdown() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	p.mu.Unlock()

	p.cancel()
	close(p.taskChan)
	p.wg.Wait()
}

// IsRunning returns true if the pool is still accepting tasks.
func (p *WorkerPool) IsRunning() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.running
}
