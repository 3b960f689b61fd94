package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"wedding-backend/models"
	"wedding-backend/utils"

	"github.com/rs/zerolog"
)

const sessionKeyPrefix = "session:"

// SessionService mints and validates bearer tokens bound to guest codes.
// Tokens live in the KV store with the same TTL as the cookie that carries
// them. There is no revocation list beyond deleting the record: a stolen
// token stays valid until expiry, an accepted tradeoff for a dance-request
// form.
type SessionService struct {
	kv        KeyValueStore
	directory GuestDirectory
	ttl       time.Duration
	log       zerolog.Logger
}

// NewSessionService constructor
func NewSessionService(kv KeyValueStore, directory GuestDirectory, ttl time.Duration, log zerolog.Logger) *SessionService {
	return &SessionService{
		kv:        kv,
		directory: directory,
		ttl:       ttl,
		log:       log.With().Str("component", "sessions").Logger(),
	}
}

// TTL returns the session lifetime, also used for the cookie Max-Age.
func (s *SessionService) TTL() time.Duration {
	return s.ttl
}

// Issue mints an unguessable token bound to the guest's normalized code.
func (s *SessionService) Issue(ctx context.Context, guest *models.GuestRecord) (*models.Session, error) {
	token, err := utils.GenerateSecureToken(32)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	session := models.Session{
		Token:     token,
		Code:      utils.NormalizeGuestCode(guest.Code),
		IssuedAt:  now,
		ExpiresAt: now.Add(s.ttl),
	}

	payload, err := json.Marshal(session)
	if err != nil {
		return nil, err
	}
	if err := s.kv.Set(ctx, sessionKeyPrefix+token, payload, s.ttl); err != nil {
		return nil, err
	}
	return &session, nil
}

// Validate resolves a token back to the live GuestRecord. The directory is
// always re-queried so out-of-band edits (an organizer changing plus-one
// eligibility) are observed on the next request.
func (s *SessionService) Validate(ctx context.Context, token string) (*models.GuestRecord, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: empty session token", ErrNotFound)
	}

	payload, found, err := s.kv.Get(ctx, sessionKeyPrefix+token)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("%w: unknown session", ErrNotFound)
	}

	var session models.Session
	if err := json.Unmarshal(payload, &session); err != nil {
		s.log.Warn().Err(err).Msg("dropping undecodable session record")
		_ = s.kv.Delete(ctx, sessionKeyPrefix+token)
		return nil, fmt.Errorf("%w: corrupt session", ErrNotFound)
	}

	guest, err := s.directory.FindByCode(ctx, session.Code)
	if err != nil {
		return nil, err
	}
	return guest, nil
}

// Revoke deletes the session record. Calling it without a live session is a
// no-op, so logout is idempotent.
func (s *SessionService) Revoke(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.kv.Delete(ctx, sessionKeyPrefix+token)
}
