package scheduler

import (
	"log"
	"sync"
	"time"
)

// ComplianceChecker is the slice of the compliance service the scheduler runs.
type ComplianceChecker interface {
	RunDailyCheck() error
}

type ComplianceScheduler struct {
	checker  ComplianceChecker
	interval time.Duration
	stopChan chan struct{}
	stopOnce sync.Once
}

func NewComplianceScheduler(checker ComplianceChecker, interval time.Duration) *ComplianceScheduler {
	return &ComplianceScheduler{
		checker:  checker,
		interval: interval,
		stopChan: make(chan struct{}),
	}
}

// Start runs the compliance check loop until Stop is called. The check runs
// once immediately and then on every tick; generation de-duplicates so
// frequent ticks are safe. Callers run it in its own goroutine.
func (s *ComplianceScheduler) Start() {
	log.Printf("Starting compliance check scheduler (interval: %v)", s.interval)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.runCheck()

	for {
		select {
		case <-ticker.C:
			s.runCheck()
		case <-s.stopChan:
			log.Println("Stopping compliance check scheduler")
			return
		}
	}
}

// Stop ends the loop. It is safe to call more than once, and safe even when
// Start never ran.
func (s *ComplianceScheduler) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopChan)
	})
}

func (s *ComplianceScheduler) runCheck() {
	if err := s.checker.RunDailyCheck(); err != nil {
		log.Printf("Compliance check failed: %v", err)
	}
}
