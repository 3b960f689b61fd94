package models

import "time"

// Session ties one bearer token to exactly one guest code. The record is the
// KV value under "session:<token>"; authorization always re-resolves the
// guest from the directory rather than trusting these fields.
type Session struct {
	Token     string    `json:"-"`
	Code      string    `json:"code"`
	IssuedAt  time.Time `json:"issuedAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}
