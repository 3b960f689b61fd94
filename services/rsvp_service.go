package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"wedding-backend/models"
	"wedding-backend/utils"

	"github.com/rs/zerolog"
)

// Fingerprint key prefixes. "rsvp:" and "rsvp_ip:" mirror the keys the
// open-RSVP form always used; code-keyed fingerprints get their own prefix
// so the two identity modes can never collide.
const (
	rsvpCodeKeyPrefix = "rsvp:code:"
	rsvpNameKeyPrefix = "rsvp:"
	rsvpIPKeyPrefix   = "rsvp_ip:"
)

const maxPartySize = 2 // guest plus at most one plus-one

// RsvpService is the access facade over the guest directory, the
// idempotency guard and the event gate. It owns the only write path to a
// GuestRecord.
type RsvpService struct {
	directory GuestDirectory
	kv        KeyValueStore
	events    *EventService
	log       zerolog.Logger
}

// NewRsvpService constructor
func NewRsvpService(directory GuestDirectory, kv KeyValueStore, events *EventService, log zerolog.Logger) *RsvpService {
	return &RsvpService{
		directory: directory,
		kv:        kv,
		events:    events,
		log:       log.With().Str("component", "rsvp").Logger(),
	}
}

// RsvpSubmission is an authoritative-mode submission, identified by code.
type RsvpSubmission struct {
	Code        string
	Attendance  models.Attendance
	TotalGuests int
	Song        string
}

// RsvpResult is what the facade reports back for authoritative submissions.
type RsvpResult struct {
	Guest            *models.GuestRecord
	AlreadySubmitted bool
	Prior            *models.RsvpOutcome
}

// ValidateCode resolves a human-entered code to its guest. Only meaningful
// while the event still accepts RSVPs.
func (s *RsvpService) ValidateCode(ctx context.Context, code string) (*models.GuestRecord, error) {
	if state := s.events.Current(); state != EventBefore {
		return nil, fmt.Errorf("%w (state: %s)", ErrEventClosed, state)
	}
	return s.directory.FindByCode(ctx, code)
}

// clampPartySize keeps TotalGuests inside the invariant: [1, maxPartySize]
// when attending (1 without plus-one eligibility), 0 when declining.
func clampPartySize(attendance models.Attendance, requested int, plusOneAllowed bool) int {
	if attendance != models.AttendanceYes {
		return 0
	}
	if !plusOneAllowed || requested < 1 {
		return 1
	}
	if requested > maxPartySize {
		return maxPartySize
	}
	return requested
}

// Submit runs the full authoritative-mode flow: event gate, directory
// resolve, idempotency guard, state machine write.
//
// A duplicate is not an error to the guest: the prior confirmation comes
// back with AlreadySubmitted set so the UI can show "thank you, already
// confirmed". A store outage fails closed instead.
func (s *RsvpService) Submit(ctx context.Context, sub RsvpSubmission) (*RsvpResult, error) {
	if state := s.events.Current(); state != EventBefore {
		return nil, fmt.Errorf("%w (state: %s)", ErrEventClosed, state)
	}

	if sub.Attendance != models.AttendanceYes && sub.Attendance != models.AttendanceNo {
		return nil, fmt.Errorf("%w: attendance must be yes or no", ErrInvalidInput)
	}

	guest, err := s.directory.FindByCode(ctx, sub.Code)
	if err != nil {
		return nil, err
	}

	// Authoritative duplicate signal: the directory already shows a
	// confirmation. Return it instead of writing.
	if guest.HasConfirmed {
		return &RsvpResult{
			Guest:            guest,
			AlreadySubmitted: true,
			Prior:            outcomeFromGuest(guest),
		}, nil
	}

	totalGuests := clampPartySize(sub.Attendance, sub.TotalGuests, guest.PlusOneAllowed)
	song := strings.TrimSpace(sub.Song)

	outcome := models.RsvpOutcome{
		Identity:    guest.Code,
		Name:        guest.Name,
		Attendance:  sub.Attendance,
		TotalGuests: totalGuests,
		Song:        song,
		RecordedAt:  time.Now().UTC(),
	}
	payload, err := json.Marshal(outcome)
	if err != nil {
		return nil, err
	}

	// Conditional reservation closes the window two concurrent submissions
	// could otherwise both slip through between the HasConfirmed read and
	// the directory write.
	fingerprintKey := rsvpCodeKeyPrefix + guest.Code
	inserted, err := s.kv.SetIfAbsent(ctx, fingerprintKey, payload, 0)
	if err != nil {
		// Fail closed: an unreachable store is never "not a duplicate".
		return nil, err
	}
	if !inserted {
		prior := s.loadOutcome(ctx, fingerprintKey)
		if prior == nil {
			prior = outcomeFromGuest(guest)
		}
		return &RsvpResult{Guest: guest, AlreadySubmitted: true, Prior: prior}, nil
	}

	confirmed := true
	upd := models.GuestUpdate{
		HasConfirmed: &confirmed,
		Attendance:   &sub.Attendance,
		TotalGuests:  &totalGuests,
	}
	if song != "" {
		upd.Song = &song
	}

	if err := s.directory.Update(ctx, guest.RecordID, upd); err != nil {
		// The directory write never happened, so release the reservation:
		// leaving it would lock the guest out of retrying forever.
		if delErr := s.kv.Delete(ctx, fingerprintKey); delErr != nil {
			s.log.Error().Err(delErr).Str("code", guest.Code).
				Msg("failed to release fingerprint after directory error")
		}
		return nil, err
	}

	guest.HasConfirmed = true
	guest.Attendance = sub.Attendance
	guest.TotalGuests = totalGuests
	if song != "" {
		guest.Song = song
	}

	s.log.Info().Str("code", guest.Code).Str("attendance", string(sub.Attendance)).
		Int("totalGuests", totalGuests).Msg("rsvp recorded")

	return &RsvpResult{Guest: guest}, nil
}

func (s *RsvpService) loadOutcome(ctx context.Context, key string) *models.RsvpOutcome {
	payload, found, err := s.kv.Get(ctx, key)
	if err != nil || !found {
		return nil
	}
	var outcome models.RsvpOutcome
	if err := json.Unmarshal(payload, &outcome); err != nil {
		return nil
	}
	return &outcome
}

func outcomeFromGuest(guest *models.GuestRecord) *models.RsvpOutcome {
	return &models.RsvpOutcome{
		Identity:    guest.Code,
		Name:        guest.Name,
		Attendance:  guest.Attendance,
		TotalGuests: guest.TotalGuests,
		Song:        guest.Song,
	}
}

// --- Fallback mode (no directory: open RSVP form) ---

// OpenRsvpStatus reports both duplicate signals separately. Name collisions
// and shared household addresses are each possible, so the caller's UI gets
// to decide instead of this layer hard-blocking on either alone.
type OpenRsvpStatus struct {
	HasSubmitted  bool
	NameMatch     bool
	IPMatch       bool
	SubmittedName string
}

// OpenRsvpSubmission is a fallback-mode submission, identified by display
// name plus client network address.
type OpenRsvpSubmission struct {
	Name        string
	Attendance  models.Attendance
	TotalGuests int
	Song        string
	IP          string
}

// OpenRsvpResult reports a fallback-mode write.
type OpenRsvpResult struct {
	Outcome       models.RsvpOutcome
	IPAlreadyUsed bool
}

type ipMarker struct {
	Name        string    `json:"name"`
	SubmittedAt time.Time `json:"submittedAt"`
}

// CheckOpen answers "has this name or this address already RSVP'd?".
func (s *RsvpService) CheckOpen(ctx context.Context, name, ip string) (*OpenRsvpStatus, error) {
	status := &OpenRsvpStatus{}

	if ip != "" {
		payload, found, err := s.kv.Get(ctx, rsvpIPKeyPrefix+ip)
		if err != nil {
			return nil, err
		}
		if found {
			status.IPMatch = true
			var marker ipMarker
			if err := json.Unmarshal(payload, &marker); err == nil {
				status.SubmittedName = marker.Name
			}
		}
	}

	if normalized := utils.NormalizeDisplayName(name); normalized != "" {
		exists, err := s.kv.Exists(ctx, rsvpNameKeyPrefix+normalized)
		if err != nil {
			return nil, err
		}
		status.NameMatch = exists
	}

	status.HasSubmitted = status.NameMatch || status.IPMatch
	return status, nil
}

// SubmitOpen registers a fallback-mode RSVP. The normalized name key is the
// hard duplicate signal (first submission wins, atomically); the address
// key is advisory only, so a second household member is not rejected.
func (s *RsvpService) SubmitOpen(ctx context.Context, sub OpenRsvpSubmission) (*OpenRsvpResult, error) {
	if state := s.events.Current(); state != EventBefore {
		return nil, fmt.Errorf("%w (state: %s)", ErrEventClosed, state)
	}

	normalized := utils.NormalizeDisplayName(sub.Name)
	if normalized == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}

	attendance := sub.Attendance
	if attendance == "" {
		attendance = models.AttendanceYes
	}
	if attendance != models.AttendanceYes && attendance != models.AttendanceNo {
		return nil, fmt.Errorf("%w: attendance must be yes or no", ErrInvalidInput)
	}

	outcome := models.RsvpOutcome{
		Identity:    normalized,
		Name:        strings.TrimSpace(sub.Name),
		Attendance:  attendance,
		TotalGuests: clampPartySize(attendance, sub.TotalGuests, true),
		Song:        strings.TrimSpace(sub.Song),
		IP:          sub.IP,
		RecordedAt:  time.Now().UTC(),
	}
	payload, err := json.Marshal(outcome)
	if err != nil {
		return nil, err
	}

	inserted, err := s.kv.SetIfAbsent(ctx, rsvpNameKeyPrefix+normalized, payload, 0)
	if err != nil {
		return nil, err
	}
	if !inserted {
		return nil, fmt.Errorf("%w: this name has already submitted an RSVP", ErrDuplicate)
	}

	result := &OpenRsvpResult{Outcome: outcome}

	if sub.IP != "" && sub.IP != "unknown" {
		marker, _ := json.Marshal(ipMarker{Name: outcome.Name, SubmittedAt: outcome.RecordedAt})
		insertedIP, err := s.kv.SetIfAbsent(ctx, rsvpIPKeyPrefix+sub.IP, marker, 0)
		if err != nil {
			// The name reservation already holds; losing the advisory
			// marker is not worth failing the submission over.
			s.log.Warn().Err(err).Msg("failed to record address marker")
		} else if !insertedIP {
			result.IPAlreadyUsed = true
		}
	}

	s.log.Info().Str("identity", normalized).Str("attendance", string(attendance)).
		Msg("open rsvp recorded")

	return result, nil
}
