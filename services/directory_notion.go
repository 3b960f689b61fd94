package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"wedding-backend/models"
	"wedding-backend/utils"

	"github.com/gojektech/heimdall/v6"
	"github.com/gojektech/heimdall/v6/httpclient"
	"github.com/rs/zerolog"
)

const (
	notionBaseURL = "https://api.notion.com/v1"
	notionVersion = "2022-06-28"
)

// NotionDirectory serves the guest list from a Notion database, the same
// one the site organizers edit directly. One query per lookup, filtered on
// the Code property by strict equality.
type NotionDirectory struct {
	client     *httpclient.Client
	apiKey     string
	databaseID string
	log        zerolog.Logger
}

// NewNotionDirectory builds the adapter with a bounded timeout and constant
// backoff retries around the Notion REST API.
func NewNotionDirectory(apiKey, databaseID string, timeout time.Duration, log zerolog.Logger) *NotionDirectory {
	backoff := heimdall.NewConstantBackoff(500*time.Millisecond, 5*time.Millisecond)
	retrier := heimdall.NewRetrier(backoff)

	client := httpclient.NewClient(
		httpclient.WithHTTPTimeout(timeout),
		httpclient.WithRetrier(retrier),
		httpclient.WithRetryCount(2),
	)

	return &NotionDirectory{
		client:     client,
		apiKey:     apiKey,
		databaseID: databaseID,
		log:        log.With().Str("component", "notion").Logger(),
	}
}

// --- Notion wire types (fixed schema contract, no property-name guessing) ---

type notionRichText struct {
	PlainText string `json:"plain_text"`
}

type notionSelect struct {
	Name string `json:"name"`
}

type notionPage struct {
	ID         string `json:"id"`
	Properties struct {
		Name struct {
			Title []notionRichText `json:"title"`
		} `json:"Name"`
		Code struct {
			RichText []notionRichText `json:"rich_text"`
		} `json:"Code"`
		PlusOneAllowed struct {
			Checkbox bool `json:"checkbox"`
		} `json:"PlusOneAllowed"`
		PlusOneName struct {
			RichText []notionRichText `json:"rich_text"`
		} `json:"PlusOneName"`
		HasConfirmed struct {
			Checkbox bool `json:"checkbox"`
		} `json:"HasConfirmed"`
		Attendance struct {
			Select *notionSelect `json:"select"`
		} `json:"Attendance"`
		TotalGuests struct {
			Number *int `json:"number"`
		} `json:"TotalGuests"`
		Song struct {
			RichText []notionRichText `json:"rich_text"`
		} `json:"Song"`
		Email struct {
			Email *string `json:"email"`
		} `json:"Email"`
	} `json:"properties"`
}

type notionQueryResponse struct {
	Results []notionPage `json:"results"`
}

func joinPlainText(parts []notionRichText) string {
	var sb strings.Builder
	for _, p := range parts {
		sb.WriteString(p.PlainText)
	}
	return sb.String()
}

func richTextValue(content string) map[string]interface{} {
	return map[string]interface{}{
		"rich_text": []map[string]interface{}{
			{"type": "text", "text": map[string]string{"content": content}},
		},
	}
}

func (d *NotionDirectory) do(ctx context.Context, method, endpoint string, body interface{}) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, notionBaseURL+endpoint, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+d.apiKey)
	req.Header.Set("Notion-Version", notionVersion)
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: notion request: %v", ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: notion response: %v", ErrUpstreamUnavailable, err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		d.log.Error().Int("status", resp.StatusCode).Str("endpoint", endpoint).Msg("notion API error")
		return nil, fmt.Errorf("%w: notion API status %d", ErrUpstreamUnavailable, resp.StatusCode)
	}

	return respBody, nil
}

func (d *NotionDirectory) parseGuest(page notionPage) *models.GuestRecord {
	props := page.Properties

	attendance := models.AttendancePending
	if props.Attendance.Select != nil {
		if a := models.Attendance(strings.ToLower(props.Attendance.Select.Name)); a.Valid() {
			attendance = a
		}
	}

	totalGuests := 1
	if props.TotalGuests.Number != nil {
		totalGuests = *props.TotalGuests.Number
	}

	email := ""
	if props.Email.Email != nil {
		email = *props.Email.Email
	}

	return &models.GuestRecord{
		RecordID:       page.ID,
		Code:           utils.NormalizeGuestCode(joinPlainText(props.Code.RichText)),
		Name:           joinPlainText(props.Name.Title),
		PlusOneAllowed: props.PlusOneAllowed.Checkbox,
		PlusOneName:    joinPlainText(props.PlusOneName.RichText),
		HasConfirmed:   props.HasConfirmed.Checkbox,
		Attendance:     attendance,
		TotalGuests:    totalGuests,
		Song:           joinPlainText(props.Song.RichText),
		Email:          email,
	}
}

func (d *NotionDirectory) FindByCode(ctx context.Context, code string) (*models.GuestRecord, error) {
	normalized := utils.NormalizeGuestCode(code)
	if normalized == "" {
		return nil, fmt.Errorf("%w: code is required", ErrInvalidInput)
	}

	query := map[string]interface{}{
		"filter": map[string]interface{}{
			"property": "Code",
			"rich_text": map[string]string{
				"equals": normalized,
			},
		},
	}

	raw, err := d.do(ctx, http.MethodPost, "/databases/"+d.databaseID+"/query", query)
	if err != nil {
		return nil, err
	}

	var parsed notionQueryResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("%w: notion decode: %v", ErrUpstreamUnavailable, err)
	}
	if len(parsed.Results) == 0 {
		return nil, ErrNotFound
	}

	guest := d.parseGuest(parsed.Results[0])
	if guest.Name == "" || guest.Code == "" {
		return nil, ErrNotFound
	}
	return guest, nil
}

func (d *NotionDirectory) Update(ctx context.Context, recordID string, upd models.GuestUpdate) error {
	properties := map[string]interface{}{}
	if upd.HasConfirmed != nil {
		properties["HasConfirmed"] = map[string]bool{"checkbox": *upd.HasConfirmed}
	}
	if upd.Attendance != nil {
		properties["Attendance"] = map[string]interface{}{
			"select": map[string]string{"name": string(*upd.Attendance)},
		}
	}
	if upd.TotalGuests != nil {
		properties["TotalGuests"] = map[string]int{"number": *upd.TotalGuests}
	}
	if upd.Song != nil {
		properties["Song"] = richTextValue(*upd.Song)
	}
	if len(properties) == 0 {
		return nil
	}

	body := map[string]interface{}{"properties": properties}
	_, err := d.do(ctx, http.MethodPatch, "/pages/"+recordID, body)
	return err
}
