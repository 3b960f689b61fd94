package controllers_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"wedding-backend/controllers"
	"wedding-backend/models"
	"wedding-backend/routes"
	"wedding-backend/services"
	"wedding-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubDirectory struct {
	mu     sync.Mutex
	guests map[string]*models.GuestRecord
}

func newStubDirectory(guests ...*models.GuestRecord) *stubDirectory {
	d := &stubDirectory{guests: make(map[string]*models.GuestRecord)}
	for _, g := range guests {
		if g.Attendance == "" {
			g.Attendance = models.AttendancePending
		}
		d.guests[utils.NormalizeGuestCode(g.Code)] = g
	}
	return d
}

func (d *stubDirectory) FindByCode(_ context.Context, code string) (*models.GuestRecord, error) {
	normalized := utils.NormalizeGuestCode(code)
	if normalized == "" {
		return nil, fmt.Errorf("%w: code is required", services.ErrInvalidInput)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	g, ok := d.guests[normalized]
	if !ok {
		return nil, services.ErrNotFound
	}
	copied := *g
	return &copied, nil
}

func (d *stubDirectory) Update(_ context.Context, recordID string, upd models.GuestUpdate) error {
	d.mu.Lock()
	defer d.mu.Unlock()
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
		return nil
	}
	return services.ErrNotFound
}

func testRouter(t *testing.T, state services.EventState) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	start, err := time.Parse(time.RFC3339, "2026-07-18T17:00:00-04:00")
	require.NoError(t, err)
	end, err := time.Parse(time.RFC3339, "2026-07-18T23:00:00-04:00")
	require.NoError(t, err)

	events := services.NewEventService(start, end, "", zerolog.Nop())
	switch state {
	case services.EventBefore:
		events.Now = func() time.Time { return start.Add(-time.Hour) }
	case services.EventDuring:
		events.Now = func() time.Time { return start.Add(3 * time.Hour) }
	case services.EventAfter:
		events.Now = func() time.Time { return end.Add(time.Hour) }
	}

	dir := newStubDirectory(
		&models.GuestRecord{RecordID: "rec-ana", Code: "AB12", Name: "Ana Rivera", PlusOneAllowed: true},
		&models.GuestRecord{RecordID: "rec-luis", Code: "CD34", Name: "Luis Ortiz"},
	)
	kv := services.NewMemoryKV()

	sessions := services.NewSessionService(kv, dir, 30*24*time.Hour, zerolog.Nop())
	rsvp := services.NewRsvpService(dir, kv, events, zerolog.Nop())

	return routes.SetupRouter(
		controllers.NewGuestController(rsvp, sessions, false, zerolog.Nop()),
		controllers.NewOpenRsvpController(rsvp, zerolog.Nop()),
		controllers.NewEventController(events),
		zerolog.Nop(),
	)
}

func doJSON(router *gin.Engine, method, path, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func sessionCookie(w *httptest.ResponseRecorder) *http.Cookie {
	for _, ck := range w.Result().Cookies() {
		if ck.Name == "guest_session" && ck.Value != "" {
			return ck
		}
	}
	return nil
}

func TestValidateUnknownCodeReturns404(t *testing.T) {
	router := testRouter(t, services.EventBefore)

	w := doJSON(router, http.MethodGet, "/api/guest?code=xy12", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	body := decodeBody(t, w)
	assert.Equal(t, false, body["success"])
	assert.Nil(t, sessionCookie(w), "no session for an invalid code")
}

func TestValidateCodeSetsSessionCookie(t *testing.T) {
	router := testRouter(t, services.EventBefore)

	w := doJSON(router, http.MethodGet, "/api/guest?code=+ab12+", "")
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	assert.Equal(t, true, body["success"])
	guest := body["guest"].(map[string]interface{})
	assert.Equal(t, "AB12", guest["code"])

	ck := sessionCookie(w)
	require.NotNil(t, ck)
	assert.True(t, ck.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, ck.SameSite)

	// Returning visit: cookie alone resolves the guest.
	w = doJSON(router, http.MethodGet, "/api/guest", "", ck)
	require.Equal(t, http.StatusOK, w.Code)
	body = decodeBody(t, w)
	assert.Equal(t, true, body["fromCookie"])
}

func TestMissingCodeReturns400(t *testing.T) {
	router := testRouter(t, services.EventBefore)

	w := doJSON(router, http.MethodGet, "/api/guest", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSubmitThenReplay(t *testing.T) {
	router := testRouter(t, services.EventBefore)

	payload := `{"code":"AB12","attendance":"yes","totalGuests":2,"song":"Callaita"}`
	w := doJSON(router, http.MethodPatch, "/api/guest", payload)
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	guest := body["guest"].(map[string]interface{})
	assert.Equal(t, true, guest["hasConfirmed"])
	assert.Equal(t, float64(2), guest["totalGuests"])

	// Replay: no new write, first outcome comes back.
	w = doJSON(router, http.MethodPatch, "/api/guest", `{"code":"AB12","attendance":"no","totalGuests":1}`)
	assert.Equal(t, http.StatusConflict, w.Code)
	body = decodeBody(t, w)
	assert.Equal(t, true, body["alreadySubmitted"])
	prior := body["prior"].(map[string]interface{})
	assert.Equal(t, "yes", prior["attendance"])
	assert.Equal(t, float64(2), prior["totalGuests"])
}

func TestSubmitGatedDuringEvent(t *testing.T) {
	router := testRouter(t, services.EventDuring)

	w := doJSON(router, http.MethodPatch, "/api/guest", `{"code":"AB12","attendance":"yes","totalGuests":1}`)
	assert.Equal(t, http.StatusConflict, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, false, body["success"])
	assert.Contains(t, body["error"], "not accepting")

	w = doJSON(router, http.MethodGet, "/api/guest?code=AB12", "")
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestEventStateEndpoint(t *testing.T) {
	router := testRouter(t, services.EventDuring)

	w := doJSON(router, http.MethodGet, "/api/event", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "during", body["state"])
}

func TestLogoutWithoutSessionIsOK(t *testing.T) {
	router := testRouter(t, services.EventBefore)

	w := doJSON(router, http.MethodGet, "/api/guest?logout=true", "")
	assert.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, true, body["success"])
}

func TestOpenRsvpDuplicateName(t *testing.T) {
	router := testRouter(t, services.EventBefore)

	w := doJSON(router, http.MethodPost, "/api/rsvp", `{"name":"Maria Garcia","attendance":"yes","guests":1}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(router, http.MethodPost, "/api/rsvp", `{"name":"MARÍA GARCÍA","attendance":"yes","guests":1}`)
	assert.Equal(t, http.StatusConflict, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, true, body["alreadySubmitted"])
	assert.Equal(t, false, body["success"])
}
