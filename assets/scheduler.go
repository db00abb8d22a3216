package assets

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SchedulerStatus is the operator-facing view of the scheduler.
type SchedulerStatus struct {
	Running       bool      `json:"running"`
	CheckInterval string    `json:"checkInterval"`
	ResetHour     int       `json:"resetHour"`
	LastRunAt     time.Time `json:"lastRunAt,omitempty"`
	NextCheckAt   time.Time `json:"nextCheckAt,omitempty"`
}

// Scheduler drives the reset engine once per calendar day. It checks on a
// fixed interval and, once the local hour passes the configured reset hour,
// runs the engine for today under the system actor. The engine's own marker
// makes repeated checks for the same day no-ops.
type Scheduler struct {
	engine    *ResetEngine
	actorID   primitive.ObjectID
	interval  time.Duration
	resetHour int
	clock     clockwork.Clock

	mu        sync.Mutex
	running   bool
	stop      chan struct{}
	lastRun   time.Time
	nextCheck time.Time
}

func NewScheduler(engine *ResetEngine, actorID primitive.ObjectID, interval time.Duration, resetHour int, clock clockwork.Clock) *Scheduler {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if interval <= 0 {
		interval = time.Hour
	}
	return &Scheduler{
		engine:    engine,
		actorID:   actorID,
		interval:  interval,
		resetHour: resetHour,
		clock:     clock,
	}
}

// Start launches the check loop. Calling Start on a running scheduler is a
// no-op.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		log.Println("scheduler already running")
		return
	}
	s.running = true
	s.stop = make(chan struct{})
	s.nextCheck = s.clock.Now().Add(s.interval)
	log.Printf("scheduler started: checking every %s, reset hour %02d:00", s.interval, s.resetHour)
	go s.loop(s.stop)
}

// Stop halts the check loop. Safe to call when not running.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	close(s.stop)
	s.running = false
	log.Println("scheduler stopped")
}

func (s *Scheduler) loop(stop chan struct{}) {
	ticker := s.clock.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.Chan():
			s.checkAndRun()
			s.mu.Lock()
			s.nextCheck = s.clock.Now().Add(s.interval)
			s.mu.Unlock()
		}
	}
}

// checkAndRun performs one cycle. Errors and panics are contained so one bad
// cycle never stops the loop.
func (s *Scheduler) checkAndRun() {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("scheduler: recovered from panic: %v", r)
		}
	}()

	now := s.clock.Now()
	if now.Hour() < s.resetHour {
		return
	}
	date := now.Format(dateLayout)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	result, err := s.engine.Run(ctx, s.actorID, date)
	if err != nil {
		log.Printf("scheduler: daily reset for %s failed: %v", date, err)
		return
	}
	if result.Performed {
		s.mu.Lock()
		s.lastRun = now
		s.mu.Unlock()
	}
}

// TriggerNow runs the engine for today immediately, for operator use.
func (s *Scheduler) TriggerNow(ctx context.Context) (*ResetResult, error) {
	date := s.clock.Now().Format(dateLayout)
	result, err := s.engine.Run(ctx, s.actorID, date)
	if err != nil {
		return nil, err
	}
	if result.Performed {
		s.mu.Lock()
		s.lastRun = s.clock.Now()
		s.mu.Unlock()
	}
	return result, nil
}

func (s *Scheduler) Status() SchedulerStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SchedulerStatus{
		Running:       s.running,
		CheckInterval: s.interval.String(),
		ResetHour:     s.resetHour,
		LastRunAt:     s.lastRun,
		NextCheckAt:   s.nextCheck,
	}
}
