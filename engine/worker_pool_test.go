package engine

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

func int64Column(mem memory.Allocator, n int) BuildFunc {
	return func(ctx context.Context) (arrow.Array, error) {
		b := array.NewInt64Builder(mem)
		defer b.Release()
		for i := 0; i < n; i++ {
			b.Append(int64(i))
		}
		return b.NewArray(), nil
	}
}

func TestNewWorkerPool(t *testing.T) {
	pool := NewWorkerPool("test", 4, 16)
	defer pool.Shutdown()

	if pool == nil {
		t.Fatal("NewWorkerPool returned nil")
	}

	stats := pool.GetStats()
	if stats.Workers != 4 {
		t.Errorf("Expected 4 workers, got %d", stats.Workers)
	}
	if stats.Name != "test" {
		t.Errorf("Expected name 'test', got %s", stats.Name)
	}
}

func TestNewWorkerPoolClampsWorkers(t *testing.T) {
	pool := NewWorkerPool("test", 0, 0)
	defer pool.Shutdown()

	if stats := pool.GetStats(); stats.Workers != 1 {
		t.Errorf("Expected 1 worker, got %d", stats.Workers)
	}
}

func TestWorkerPoolSubmit(t *testing.T) {
	mem := memory.NewGoAllocator()
	pool := NewWorkerPool("test", 2, 8)
	defer pool.Shutdown()

	if err := pool.Submit(NewTask("col-0", 0, int64Column(mem, 10))); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	select {
	case result := <-pool.Results():
		if !result.Success {
			t.Fatalf("Task should succeed: %v", result.Error)
		}
		defer result.Array.Release()
		if result.TaskID != "col-0" {
			t.Errorf("Expected task ID 'col-0', got %s", result.TaskID)
		}
		if result.Array.Len() != 10 {
			t.Errorf("Expected 10 values, got %d", result.Array.Len())
		}
	case <-time.After(time.Second):
		t.Fatal("Timeout waiting for result")
	}
}

func TestWorkerPoolRunAllOrdersByIndex(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	pool := NewWorkerPool("test", 4, 8)
	defer pool.Shutdown()

	tasks := make([]*Task, 4)
	for i := range tasks {
		delay := time.Duration(len(tasks)-i) * time.Millisecond
		n := i + 1
		tasks[i] = NewTask(fmt.Sprintf("col-%d", i), i, func(ctx context.Context) (arrow.Array, error) {
			time.Sleep(delay)
			return int64Column(mem, n)(ctx)
		})
	}

	results, err := pool.RunAll(context.Background(), tasks)
	if err != nil {
		t.Fatalf("RunAll failed: %v", err)
	}

	for i, res := range results {
		if res.Index != i {
			t.Errorf("Result %d has index %d", i, res.Index)
		}
		if res.Array.Len() != i+1 {
			t.Errorf("Result %d: expected %d values, got %d", i, i+1, res.Array.Len())
		}
		res.Array.Release()
	}
}

func TestWorkerPoolRunAllReleasesOnError(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	pool := NewWorkerPool("test", 2, 8)
	defer pool.Shutdown()

	expectedErr := errors.New("build failed")
	tasks := []*Task{
		NewTask("ok", 0, int64Column(mem, 100)),
		NewTask("bad", 1, func(ctx context.Context) (arrow.Array, error) {
			return nil, expectedErr
		}),
	}

	_, err := pool.RunAll(context.Background(), tasks)
	if !errors.Is(err, expectedErr) {
		t.Errorf("Expected build error, got %v", err)
	}
}

func TestWorkerPoolRunAllCancelled(t *testing.T) {
	pool := NewWorkerPool("test", 1, 4)
	defer pool.Shutdown()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	tasks := []*Task{NewTask("col-0", 0, int64Column(memory.NewGoAllocator(), 1))}
	_, err := pool.RunAll(ctx, tasks)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestWorkerPoolPanicRecovery(t *testing.T) {
	pool := NewWorkerPool("test", 1, 4)
	defer pool.Shutdown()

	task := NewTask("panics", 0, func(ctx context.Context) (arrow.Array, error) {
		panic("boom")
	})
	_ = pool.Submit(task)

	select {
	case result := <-pool.Results():
		if result.Success {
			t.Error("Panicking task should fail")
		}
		if result.Error == nil {
			t.Error("Expected error in result")
		}
	case <-time.After(time.Second):
		t.Fatal("Timeout waiting for result")
	}

	if stats := pool.GetStats(); stats.Failed != 1 {
		t.Errorf("Expected 1 failed, got %d", stats.Failed)
	}
}

func TestWorkerPoolShutdown(t *testing.T) {
	pool := NewWorkerPool("test", 4, 8)

	task := NewTask("col-0", 0, int64Column(memory.NewGoAllocator(), 1))
	pool.Shutdown()

	if pool.IsRunning() {
		t.Error("Pool should not be running after shutdown")
	}

	if err := pool.Submit(task); !errors.Is(err, ErrPoolShutdown) {
		t.Errorf("Expected ErrPoolShutdown, got %v", err)
	}

	// Second shutdown is a no-op
	pool.Shutdown()
}

func TestWorkerPoolStats(t *testing.T) {
	pool := NewWorkerPool("stats-test", 2, 16)
	defer pool.Shutdown()

	var built int64
	for i := 0; i < 5; i++ {
		task := NewTask(fmt.Sprintf("ok-%d", i), i, func(ctx context.Context) (arrow.Array, error) {
			atomic.AddInt64(&built, 1)
			return int64Column(memory.NewGoAllocator(), 1)(ctx)
		})
		_ = pool.Submit(task)
	}
	for i := 0; i < 3; i++ {
		task := NewTask(fmt.Sprintf("fail-%d", i), i, func(ctx context.Context) (arrow.Array, error) {
			return nil, errors.New("fail")
		})
		_ = pool.Submit(task)
	}

	for i := 0; i < 8; i++ {
		res := <-pool.Results()
		if res.Array != nil {
			res.Array.Release()
		}
	}

	stats := pool.GetStats()
	if stats.Completed != 5 {
		t.Errorf("Expected 5 completed, got %d", stats.Completed)
	}
	if stats.Failed != 3 {
		t.Errorf("Expected 3 failed, got %d", stats.Failed)
	}
	if atomic.LoadInt64(&built) != 5 {
		t.Errorf("Expected 5 builds, got %d", built)
	}
}

func BenchmarkWorkerPoolRunAll(b *testing.B) {
	mem := memory.NewGoAllocator()
	pool := NewWorkerPool("bench", 4, 16)
	defer pool.Shutdown()

	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		tasks := make([]*Task, 4)
		for j := range tasks {
			tasks[j] = NewTask(fmt.Sprintf("col-%d", j), j, int64Column(mem, 1024))
		}
		results, err := pool.RunAll(context.Background(), tasks)
		if err != nil {
			b.Fatalf("RunAll failed: %v", err)
		}
		for _, res := range results {
			res.Array.Release()
		}
	}
}
