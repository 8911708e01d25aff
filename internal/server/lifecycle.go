// Package server manages the startup and graceful shutdown of the
// long-running components that make up the game server process.
package server

import (
	"context"
	"fmt"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// Service is a long-running component under lifecycle management.
type Service interface {
	// Start runs the service, blocking until it stops or fails.
	Start() error
	// Stop asks the service to wind down. Start returns after Stop takes
	// effect.
	Stop()
}

// FuncService adapts a start/stop function pair into a Service.
type FuncService struct {
	StartFn func() error
	StopFn  func()
}

func (f *FuncService) Start() error { return f.StartFn() }

func (f *FuncService) Stop() {
	if f.StopFn != nil {
		f.StopFn()
	}
}

type entry struct {
	name string
	svc  Service
}

// Lifecycle starts registered services in order and stops them in reverse
// order on SIGINT, SIGTERM, service failure, or context cancellation.
type Lifecycle struct {
	logger  *zap.Logger
	mu      sync.Mutex
	entries []entry
}

// NewLifecycle creates a Lifecycle manager.
//
// Precondition: logger must be non-nil.
func NewLifecycle(logger *zap.Logger) *Lifecycle {
	return &Lifecycle{logger: logger}
}

// Add registers a named service. Registration order is start order.
//
// Precondition: name must be non-empty; svc must be non-nil.
func (l *Lifecycle) Add(name string, svc Service) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, entry{name: name, svc: svc})
}

// Run starts every registered service and blocks until shutdown is
// triggered, then stops them in reverse order.
//
// Postcondition: every service's Stop has been called when Run returns.
// Returns the first service failure, if any.
func (l *Lifecycle) Run(ctx context.Context) error {
	began := time.Now()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	failures := make(chan error, len(l.entries))
	for _, e := range l.entries {
		e := e
		l.logger.Info("starting service", zap.String("service", e.name))
		go func() {
			if err := e.svc.Start(); err != nil {
				failures <- fmt.Errorf("service %s: %w", e.name, err)
			}
		}()
	}
	l.logger.Info("server up",
		zap.Int("services", len(l.entries)),
		zap.Duration("startup", time.Since(began)),
	)

	var failure error
	select {
	case <-ctx.Done():
		l.logger.Info("shutdown requested")
	case failure = <-failures:
		l.logger.Error("service failed, shutting down", zap.Error(failure))
	}

	for i := len(l.entries) - 1; i >= 0; i-- {
		e := l.entries[i]
		l.logger.Info("stopping service", zap.String("service", e.name))
		e.svc.Stop()
	}
	l.logger.Info("shutdown complete", zap.Duration("uptime", time.Since(began)))
	return failure
}
