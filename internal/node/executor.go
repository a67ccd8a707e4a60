// internal/node/executor.go
package node

import (
	"context"
	"roam-bridge/internal/interfaces"
	"sync"
)

// Runnable 실행자에서 구동되는 노드
type Runnable interface {
	Run(ctx context.Context) error
}

// Executor runs nodes on background goroutines until Shutdown.
type Executor struct {
	logger interfaces.Logger

	mu      sync.Mutex
	cancels []context.CancelFunc
	wg      sync.WaitGroup
}

// NewExecutor 새 실행자 생성
func NewExecutor(logger interfaces.Logger) *Executor {
	return &Executor{logger: logger}
}

// Execute launches n and returns immediately. A node that fails is logged and
// left stopped; the executor does not restart it.
func (e *Executor) Execute(parent context.Context, n Runnable) {
	ctx, cancel := context.WithCancel(parent)

	e.mu.Lock()
	e.cancels = append(e.cancels, cancel)
	e.mu.Unlock()

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		defer cancel()

		if err := n.Run(ctx); err != nil {
			e.logger.Errorf("❌ Node exited with error: %v", err)
		}
	}()
}

// Shutdown cancels every node and waits for them to return.
func (e *Executor) Shutdown() {
	e.mu.Lock()
	cancels := e.cancels
	e.cancels = nil
	e.mu.Unlock()

	for _, cancel := range cancels {
		cancel()
	}
	e.wg.Wait()
}
