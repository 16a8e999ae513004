package listener

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"rentdesk/internal"
)

// Poller is the single operation the scheduler drives.
type Poller interface {
	PollOnce(ctx context.Context) (internal.PollResult, error)
}

// Status is a point-in-time snapshot for operators.
type Status struct {
	Running    bool                 `json:"running"`
	LastRunAt  *time.Time           `json:"lastRunAt,omitempty"`
	LastResult *internal.PollResult `json:"lastResult,omitempty"`
	LastError  string               `json:"lastError,omitempty"`
}

// Service triggers poll cycles on a fixed cadence and on demand. At
// most one cycle runs at a time; a trigger that fires mid-cycle is
// dropped, not queued — the unread flag makes the next tick pick up
// whatever was missed.
type Service struct {
	poller   Poller
	interval time.Duration

	inFlight atomic.Bool

	mu         sync.Mutex
	lastRunAt  *time.Time
	lastResult *internal.PollResult
	lastError  string
}

func NewService(poller Poller, interval time.Duration) *Service {
	return &Service{poller: poller, interval: interval}
}

// Run blocks until ctx is cancelled, firing a cycle per tick plus one
// immediately on start.
func (s *Service) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.tryRunCycle(ctx)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.tryRunCycle(ctx)
		}
	}
}

// TriggerNow starts a cycle in the background. Returns false when a
// cycle is already in flight and the trigger was dropped.
func (s *Service) TriggerNow() bool {
	if !s.inFlight.CompareAndSwap(false, true) {
		return false
	}
	go s.runCycle(context.Background())
	return true
}

func (s *Service) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Status{
		Running:    s.inFlight.Load(),
		LastRunAt:  s.lastRunAt,
		LastResult: s.lastResult,
		LastError:  s.lastError,
	}
}

func (s *Service) tryRunCycle(ctx context.Context) {
	if !s.inFlight.CompareAndSwap(false, true) {
		return
	}
	s.runCycle(ctx)
}

// runCycle assumes the in-flight flag is held and releases it on exit.
func (s *Service) runCycle(ctx context.Context) {
	defer s.inFlight.Store(false)

	started := time.Now()
	result, err := s.poller.PollOnce(ctx)

	s.mu.Lock()
	s.lastRunAt = &started
	s.lastResult = &result
	if err != nil {
		s.lastError = err.Error()
	} else {
		s.lastError = ""
	}
	s.mu.Unlock()

	if err != nil {
		fmt.Printf("listener cycle error: %v\n", err)
		return
	}
	fmt.Printf("listener cycle done seen=%d ingested=%d skipped=%d errors=%d\n",
		result.MessagesSeen, result.Ingested, result.Skipped, result.Errors)
}
