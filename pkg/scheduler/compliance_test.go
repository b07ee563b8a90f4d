package scheduler

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type countingChecker struct {
	runs atomic.Int64
}

func (c *countingChecker) RunDailyCheck() error {
	c.runs.Add(1)
	return nil
}

func TestComplianceScheduler_RunsOnStartAndTicks(t *testing.T) {
	checker := &countingChecker{}
	s := NewComplianceScheduler(checker, 5*time.Millisecond)

	go s.Start()
	defer s.Stop()

	assert.Eventually(t, func() bool {
		return checker.runs.Load() >= 2
	}, time.Second, time.Millisecond, "expected the immediate run plus at least one tick")
}

func TestComplianceScheduler_StopReturnsStart(t *testing.T) {
	checker := &countingChecker{}
	s := NewComplianceScheduler(checker, time.Hour)

	done := make(chan struct{})
	go func() {
		s.Start()
		close(done)
	}()

	assert.Eventually(t, func() bool {
		return checker.runs.Load() == 1
	}, time.Second, time.Millisecond)

	s.Stop()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Start did not return after Stop")
	}
}

func TestComplianceScheduler_StopWithoutStart(t *testing.T) {
	s := NewComplianceScheduler(&countingChecker{}, time.Hour)

	done := make(chan struct{})
	go func() {
		s.Stop()
		s.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop blocked with no running loop")
	}
}
