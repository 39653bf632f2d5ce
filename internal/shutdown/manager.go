package shutdown

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"video-quality-dashboard/internal/logger"
)

const DefaultTimeout = 10 * time.Second

type Shutdownable interface {
	Shutdown()
}

// ShutdownFunc adapts a plain function.
type ShutdownFunc func()

func (f ShutdownFunc) Shutdown() { f() }

type registration struct {
	name      string
	component Shutdownable
}

// Manager cancels the session context on SIGINT/SIGTERM and shuts
// registered components down in reverse registration order.
type Manager struct {
	components []registration
	logger     logger.Logger
	timeout    time.Duration
	mu         sync.Mutex
	done       chan struct{}
	ctx        context.Context
	cancel     context.CancelFunc
}

func NewManager(parent context.Context, log logger.Logger) *Manager {
	ctx, cancel := context.WithCancel(parent)

	return &Manager{
		logger:  log,
		timeout: DefaultTimeout,
		done:    make(chan struct{}),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// SetTimeout bounds how long a single component may take to shut down.
func (m *Manager) SetTimeout(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.timeout = d
}

func (m *Manager) Register(name string, component Shutdownable) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.components = append(m.components, registration{name: name, component: component})
}

// Listen cancels the context on the first signal. The returned function
// stops listening.
func (m *Manager) Listen() func() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	stop := make(chan struct{})
	go func() {
		select {
		case sig := <-sigChan:
			m.logger.Info("ShutdownManager", "shutdown signal received", map[string]interface{}{
				"signal": sig.String(),
			})
			m.cancel()
		case <-stop:
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			signal.Stop(sigChan)
			close(stop)
		})
	}
}

// Shutdown runs once; later calls return immediately.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	defer m.mu.Unlock()

	select {
	case <-m.done:
		return
	default:
		close(m.done)
	}

	m.logger.Info("ShutdownManager", "shutdown sequence initiated", map[string]interface{}{
		"components": len(m.components),
	})

	m.cancel()

	for i := len(m.components) - 1; i >= 0; i-- {
		reg := m.components[i]

		finished := make(chan struct{})
		go func() {
			defer close(finished)
			reg.component.Shutdown()
		}()

		select {
		case <-finished:
		case <-time.After(m.timeout):
			m.logger.Warning("ShutdownManager", "component shutdown timeout", map[string]interface{}{
				"component": reg.name,
			})
		}
	}

	m.logger.Info("ShutdownManager", "shutdown sequence completed", nil)
}

func (m *Manager) Context() context.Context {
	return m.ctx
}

func (m *Manager) Done() <-chan struct{} {
	return m.done
}
