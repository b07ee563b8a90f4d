package simulator

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDispatch struct {
	mu       sync.Mutex
	accepted []string
	rejected []string
	reasons  []string
}

func (f *fakeDispatch) AcceptOffer(tripID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.accepted = append(f.accepted, tripID)
	return nil
}

func (f *fakeDispatch) RejectOffer(tripID, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rejected = append(f.rejected, tripID)
	f.reasons = append(f.reasons, reason)
	return nil
}

func (f *fakeDispatch) counts() (accepted, rejected int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.accepted), len(f.rejected)
}

func (f *fakeDispatch) reasonsSnapshot() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.reasons...)
}

type fakeOnboarding struct {
	mu       sync.Mutex
	reviewed []string
}

func (f *fakeOnboarding) BeginReview(chauffeurID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reviewed = append(f.reviewed, chauffeurID)
	return nil
}

func (f *fakeOnboarding) reviewedSnapshot() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.reviewed...)
}

func instantConfig(acceptRate float64) Config {
	return Config{
		Enabled:          true,
		MinResponseDelay: 0,
		MaxResponseDelay: 0,
		AcceptRate:       acceptRate,
		OnboardingDelay:  0,
	}
}

func TestResponder_AlwaysAccepts(t *testing.T) {
	dispatch := &fakeDispatch{}
	responder := NewResponder(instantConfig(1.0), dispatch, &fakeOnboarding{})
	defer responder.Stop()

	for i := 0; i < 10; i++ {
		responder.OfferMade("trip-1", "ch-1", "veh-1")
	}

	// Wait for delivery before shutting down; stopping earlier would cancel
	// responses still in flight
	require.Eventually(t, func() bool {
		accepted, _ := dispatch.counts()
		return accepted == 10
	}, 5*time.Second, time.Millisecond)

	_, rejected := dispatch.counts()
	assert.Zero(t, rejected)
}

func TestResponder_AlwaysRejects(t *testing.T) {
	dispatch := &fakeDispatch{}
	responder := NewResponder(instantConfig(0.0), dispatch, &fakeOnboarding{})
	defer responder.Stop()

	for i := 0; i < 10; i++ {
		responder.OfferMade("trip-1", "ch-1", "veh-1")
	}

	require.Eventually(t, func() bool {
		_, rejected := dispatch.counts()
		return rejected == 10
	}, 5*time.Second, time.Millisecond)

	accepted, _ := dispatch.counts()
	assert.Zero(t, accepted)

	// The responder gives no reason; the default one is filled in downstream
	for _, reason := range dispatch.reasonsSnapshot() {
		assert.Empty(t, reason)
	}
}

func TestResponder_Onboarding(t *testing.T) {
	onboarding := &fakeOnboarding{}
	responder := NewResponder(instantConfig(1.0), &fakeDispatch{}, onboarding)
	defer responder.Stop()

	responder.ChauffeurInvited("ch-7")

	require.Eventually(t, func() bool {
		return len(onboarding.reviewedSnapshot()) == 1
	}, 5*time.Second, time.Millisecond)

	assert.Equal(t, []string{"ch-7"}, onboarding.reviewedSnapshot())
}

func TestResponder_DisabledDoesNothing(t *testing.T) {
	dispatch := &fakeDispatch{}
	onboarding := &fakeOnboarding{}
	config := instantConfig(1.0)
	config.Enabled = false
	responder := NewResponder(config, dispatch, onboarding)

	responder.OfferMade("trip-1", "ch-1", "veh-1")
	responder.ChauffeurInvited("ch-1")
	responder.Stop()

	assert.Empty(t, dispatch.accepted)
	assert.Empty(t, dispatch.rejected)
	assert.Empty(t, onboarding.reviewed)
}

func TestResponder_StopCancelsPendingResponses(t *testing.T) {
	dispatch := &fakeDispatch{}
	config := instantConfig(1.0)
	config.MinResponseDelay = time.Hour
	config.MaxResponseDelay = time.Hour
	responder := NewResponder(config, dispatch, &fakeOnboarding{})

	responder.OfferMade("trip-1", "ch-1", "veh-1")

	done := make(chan struct{})
	go func() {
		responder.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Stop did not cancel the pending response")
	}

	assert.Empty(t, dispatch.accepted)
}

func TestResponseDelay_Bounds(t *testing.T) {
	responder := NewResponder(Config{
		MinResponseDelay: 10 * time.Millisecond,
		MaxResponseDelay: 20 * time.Millisecond,
	}, nil, nil)

	for i := 0; i < 100; i++ {
		delay := responder.responseDelay()
		assert.GreaterOrEqual(t, delay, 10*time.Millisecond)
		assert.Less(t, delay, 20*time.Millisecond)
	}

	// Degenerate range falls back to the minimum
	responder.config.MaxResponseDelay = responder.config.MinResponseDelay
	assert.Equal(t, 10*time.Millisecond, responder.responseDelay())
}
