package simulator

import (
	"context"
	"log"
	"math/rand/v2"
	"sync"
	"time"
)

// DispatchAPI is the slice of the dispatch service the responder drives.
type DispatchAPI interface {
	AcceptOffer(tripID string) error
	RejectOffer(tripID, reason string) error
}

// OnboardingAPI is the slice of the chauffeur service the responder drives.
type OnboardingAPI interface {
	BeginReview(chauffeurID string) error
}

type Config struct {
	Enabled          bool
	MinResponseDelay time.Duration
	MaxResponseDelay time.Duration
	AcceptRate       float64
	OnboardingDelay  time.Duration
}

func DefaultConfig() Config {
	return Config{
		Enabled:          false,
		MinResponseDelay: 10 * time.Second,
		MaxResponseDelay: 15 * time.Second,
		AcceptRate:       0.8,
		OnboardingDelay:  5 * time.Second,
	}
}

// Responder stands in for the chauffeur mobile app in demo environments. It
// answers dispatch offers after a random delay, accepting most of them, and
// walks onboarding invitations into review.
type Responder struct {
	config     Config
	dispatch   DispatchAPI
	onboarding OnboardingAPI
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
}

func NewResponder(config Config, dispatch DispatchAPI, onboarding OnboardingAPI) *Responder {
	ctx, cancel := context.WithCancel(context.Background())
	return &Responder{
		config:     config,
		dispatch:   dispatch,
		onboarding: onboarding,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// OfferMade schedules a simulated chauffeur response for the offer.
func (r *Responder) OfferMade(tripID, chauffeurID, vehicleID string) {
	if !r.config.Enabled {
		return
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()

		select {
		case <-r.ctx.Done():
			return
		case <-time.After(r.responseDelay()):
		}

		// The offer may have been withdrawn or re-dispatched while we slept;
		// a stale response failing is expected, just log it.
		if rand.Float64() < r.config.AcceptRate {
			if err := r.dispatch.AcceptOffer(tripID); err != nil {
				log.Printf("simulator: accept for trip %s not applied: %v", tripID, err)
			}
		} else {
			if err := r.dispatch.RejectOffer(tripID, ""); err != nil {
				log.Printf("simulator: reject for trip %s not applied: %v", tripID, err)
			}
		}
	}()
}

// ChauffeurInvited schedules the simulated document submission that moves an
// invited chauffeur into review.
func (r *Responder) ChauffeurInvited(chauffeurID string) {
	if !r.config.Enabled {
		return
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()

		select {
		case <-r.ctx.Done():
			return
		case <-time.After(r.config.OnboardingDelay):
		}

		if err := r.onboarding.BeginReview(chauffeurID); err != nil {
			log.Printf("simulator: review for chauffeur %s not started: %v", chauffeurID, err)
		}
	}()
}

func (r *Responder) responseDelay() time.Duration {
	min := r.config.MinResponseDelay
	max := r.config.MaxResponseDelay
	if max <= min {
		return min
	}
	return min + time.Duration(rand.Int64N(int64(max-min)))
}

// Stop cancels pending responses and waits for in-flight ones to finish.
func (r *Responder) Stop() {
	r.cancel()
	r.wg.Wait()
}
