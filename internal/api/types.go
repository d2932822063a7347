package api

import (
	"time"
)

const legacyTimestampLayout = "2006-01-02 15:04:05"

// User mirrors an entry of /users.
type User struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Role string `json:"role,omitempty"`
}

// Event describes a tasting session.
type Event struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Date   string `json:"date,omitempty"`
	Closed bool   `json:"closed,omitempty"`
}

// Wine is a bottle registered for an event.
type Wine struct {
	ID       int64  `json:"id"`
	EventID  int64  `json:"eventId"`
	Name     string `json:"name"`
	Producer string `json:"producer,omitempty"`
	Vintage  int    `json:"vintage,omitempty"`
}

// LoginResponse mirrors the body of a successful login.
type LoginResponse struct {
	User      User   `json:"user"`
	SessionID string `json:"sessionId"`
}

// Pagella is the shared note of an event.
type Pagella struct {
	Content   string `json:"content"`
	UpdatedAt string `json:"updatedAt"`
}

// ParsedUpdatedAt returns the modification time, or the zero time when the
// note was never saved.
func (p Pagella) ParsedUpdatedAt() time.Time {
	return parseTime(p.UpdatedAt)
}

// SavePagellaRequest is the PUT /events/{id}/pagella body.
type SavePagellaRequest struct {
	Content string `json:"content"`
	UserID  int64  `json:"userId"`
}

// FormatTime renders t the way the API transmits timestamps.
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339} {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	if t, err := time.ParseInLocation(legacyTimestampLayout, value, time.UTC); err == nil {
		return t
	}
	return time.Time{}
}
