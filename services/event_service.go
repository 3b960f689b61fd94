package services

import (
	"time"

	"github.com/rs/zerolog"
)

// EventState is where "now" falls relative to the wedding window.
type EventState string

const (
	EventBefore EventState = "before"
	EventDuring EventState = "during"
	EventAfter  EventState = "after"
)

// EventService maps instants to event states against the fixed wedding
// window. Long-lived callers (the UI poller) re-ask at least once a minute;
// the service itself holds no ticking state.
type EventService struct {
	start    time.Time
	end      time.Time
	override EventState

	// Now is the clock source, swappable in tests.
	Now func() time.Time
}

// NewEventService builds the evaluator. A non-empty override pins the state
// unconditionally; that is logged loudly so a forgotten override never
// masquerades as real time.
func NewEventService(start, end time.Time, override string, log zerolog.Logger) *EventService {
	s := &EventService{
		start: start,
		end:   end,
		Now:   time.Now,
	}
	if override != "" {
		s.override = EventState(override)
		log.Warn().
			Str("component", "events").
			Str("override", override).
			Msg("event state override active, real time is ignored")
	}
	return s
}

// Evaluate is pure and total: before = now < start, during = start <= now <
// end, after = now >= end. With an override configured the input is ignored.
func (s *EventService) Evaluate(now time.Time) EventState {
	if s.override != "" {
		return s.override
	}
	if now.Before(s.start) {
		return EventBefore
	}
	if now.Before(s.end) {
		return EventDuring
	}
	return EventAfter
}

// Current evaluates against the service clock.
func (s *EventService) Current() EventState {
	return s.Evaluate(s.Now())
}

// Window returns the configured start and end instants.
func (s *EventService) Window() (time.Time, time.Time) {
	return s.start, s.end
}
