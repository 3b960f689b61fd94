package services

import (
	"context"
	"testing"
	"time"

	"wedding-backend/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSessionService(guests ...*models.GuestRecord) (*SessionService, *fakeDirectory, *MemoryKV) {
	dir := newFakeDirectory(guests...)
	kv := NewMemoryKV()
	return NewSessionService(kv, dir, 30*24*time.Hour, zerolog.Nop()), dir, kv
}

func TestSessionRoundTrip(t *testing.T) {
	svc, _, _ := newTestSessionService(anaGuest())
	ctx := context.Background()

	session, err := svc.Issue(ctx, anaGuest())
	require.NoError(t, err)
	assert.Len(t, session.Token, 64)
	assert.Equal(t, "AB12", session.Code)

	guest, err := svc.Validate(ctx, session.Token)
	require.NoError(t, err)
	assert.Equal(t, "AB12", guest.Code)
	assert.Equal(t, "Ana Rivera", guest.Name)
}

func TestValidateReResolvesLiveRecord(t *testing.T) {
	svc, dir, _ := newTestSessionService(anaGuest())
	ctx := context.Background()

	session, err := svc.Issue(ctx, anaGuest())
	require.NoError(t, err)

	// Organizer edits the directory out of band; the next validation must
	// observe it instead of any cached copy.
	confirmed := true
	yes := models.AttendanceYes
	require.NoError(t, dir.Update(ctx, "rec-ana", models.GuestUpdate{
		HasConfirmed: &confirmed,
		Attendance:   &yes,
	}))

	guest, err := svc.Validate(ctx, session.Token)
	require.NoError(t, err)
	assert.True(t, guest.HasConfirmed)
	assert.Equal(t, models.AttendanceYes, guest.Attendance)
}

func TestValidateUnknownToken(t *testing.T) {
	svc, _, _ := newTestSessionService(anaGuest())

	_, err := svc.Validate(context.Background(), "deadbeef")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.Validate(context.Background(), "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestValidateExpiredSession(t *testing.T) {
	dir := newFakeDirectory(anaGuest())
	kv := NewMemoryKV()
	svc := NewSessionService(kv, dir, time.Hour, zerolog.Nop())
	ctx := context.Background()

	session, err := svc.Issue(ctx, anaGuest())
	require.NoError(t, err)

	kv.Now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = svc.Validate(ctx, session.Token)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRevokeIsIdempotent(t *testing.T) {
	svc, _, _ := newTestSessionService(anaGuest())
	ctx := context.Background()

	session, err := svc.Issue(ctx, anaGuest())
	require.NoError(t, err)

	require.NoError(t, svc.Revoke(ctx, session.Token))
	require.NoError(t, svc.Revoke(ctx, session.Token))
	require.NoError(t, svc.Revoke(ctx, ""))

	_, err = svc.Validate(ctx, session.Token)
	assert.ErrorIs(t, err, ErrNotFound)
}
