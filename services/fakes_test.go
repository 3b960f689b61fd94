package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"wedding-backend/models"
	"wedding-backend/utils"
)

// fakeDirectory is an in-memory GuestDirectory honoring the same error
// contract as the real adapters.
type fakeDirectory struct {
	mu     sync.Mutex
	guests map[string]*models.GuestRecord // keyed by normalized code

	findErr   error
	updateErr error
	updates   int
}

func newFakeDirectory(guests ...*models.GuestRecord) *fakeDirectory {
	d := &fakeDirectory{guests: make(map[string]*models.GuestRecord)}
	for _, g := range guests {
		if g.Attendance == "" {
			g.Attendance = models.AttendancePending
		}
		d.guests[utils.NormalizeGuestCode(g.Code)] = g
	}
	return d
}

func (d *fakeDirectory) FindByCode(_ context.Context, code string) (*models.GuestRecord, error) {
	normalized := utils.NormalizeGuestCode(code)
	if normalized == "" {
		return nil, fmt.Errorf("%w: code is required", ErrInvalidInput)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.findErr != nil {
		return nil, d.findErr
	}
	g, ok := d.guests[normalized]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *g
	return &copied, nil
}

func (d *fakeDirectory) Update(_ context.Context, recordID string, upd models.GuestUpdate) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.updateErr != nil {
		return d.updateErr
	}

	for _, g := range d.guests {
		if g.RecordID != recordID {
			continue
		}
		if upd.HasConfirmed != nil {
			g.HasConfirmed = *upd.HasConfirmed
		}
		if upd.Attendance != nil {
			g.Attendance = *upd.Attendance
		}
		if upd.TotalGuests != nil {
			g.TotalGuests = *upd.TotalGuests
		}
		if upd.Song != nil {
			g.Song = *upd.Song
		}
		d.updates++
		return nil
	}
	return ErrNotFound
}

func (d *fakeDirectory) updateCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.updates
}

func (d *fakeDirectory) guestByCode(code string) models.GuestRecord {
	d.mu.Lock()
	defer d.mu.Unlock()
	return *d.guests[utils.NormalizeGuestCode(code)]
}

// brokenKV simulates a store outage on every operation.
type brokenKV struct{}

func (brokenKV) SetIfAbsent(context.Context, string, []byte, time.Duration) (bool, error) {
	return false, fmt.Errorf("%w: kv down", ErrUpstreamUnavailable)
}

func (brokenKV) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, fmt.Errorf("%w: kv down", ErrUpstreamUnavailable)
}

func (brokenKV) Exists(context.Context, string) (bool, error) {
	return false, fmt.Errorf("%w: kv down", ErrUpstreamUnavailable)
}

func (brokenKV) Set(context.Context, string, []byte, time.Duration) error {
	return fmt.Errorf("%w: kv down", ErrUpstreamUnavailable)
}

func (brokenKV) Delete(context.Context, string) error {
	return fmt.Errorf("%w: kv down", ErrUpstreamUnavailable)
}
