package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Client talks to the tasting HTTP API.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	userAgent string
	deviceID  string
}

const (
	defaultAPIBind   = "127.0.0.1:8787"
	defaultUserAgent = "sommelier/0.1"
	requestTimeout   = 5 * time.Second

	// UniqueSessionHeader carries the client's single-session preference on login.
	UniqueSessionHeader = "X-Unique-Session"
	// DeviceHeader identifies the installation making the request.
	DeviceHeader = "X-Device-ID"
	// RequestIDHeader tags each request for server-side log correlation.
	RequestIDHeader = "X-Request-ID"
)

// NewClient builds a Client using the provided apiBind host:port value.
func NewClient(apiBind, deviceID string) (*Client, error) {
	base, err := parseBaseURL(apiBind)
	if err != nil {
		return nil, err
	}
	return &Client{
		baseURL: base,
		http: &http.Client{
			Timeout: requestTimeout,
		},
		userAgent: defaultUserAgent,
		deviceID:  strings.TrimSpace(deviceID),
	}, nil
}

// StatusError reports a non-2xx response.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("api %s %s returned status %d", e.Method, e.Path, e.StatusCode)
}

// IsStatus reports whether err is a StatusError with the given code.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == code
}

// IsRejection reports whether the server answered with a non-2xx status, as
// opposed to the request never completing.
func IsRejection(err error) bool {
	var se *StatusError
	return errors.As(err, &se)
}

// FetchUsers retrieves the authoritative user list.
func (c *Client) FetchUsers(ctx context.Context) ([]User, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	var payload struct {
		Data []User `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/users", nil, nil, &payload); err != nil {
		return nil, err
	}
	return payload.Data, nil
}

// FetchEvents retrieves the tasting events.
func (c *Client) FetchEvents(ctx context.Context) ([]Event, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	var payload struct {
		Data []Event `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/events", nil, nil, &payload); err != nil {
		return nil, err
	}
	return payload.Data, nil
}

// FetchWines retrieves the wines registered for an event.
func (c *Client) FetchWines(ctx context.Context, eventID int64) ([]Wine, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	var payload struct {
		Data []Wine `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, eventPath(eventID, "wines"), nil, nil, &payload); err != nil {
		return nil, err
	}
	return payload.Data, nil
}

// Login opens a session for userID. When unique is true the server rejects
// the login with 409 if the user already has a live session elsewhere.
func (c *Client) Login(ctx context.Context, userID int64, unique bool) (LoginResponse, error) {
	if c == nil {
		return LoginResponse{}, fmt.Errorf("client is nil")
	}
	headers := http.Header{}
	headers.Set(UniqueSessionHeader, strconv.FormatBool(unique))
	var payload LoginResponse
	if err := c.do(ctx, http.MethodPost, userPath(userID, "login"), struct{}{}, headers, &payload); err != nil {
		return LoginResponse{}, err
	}
	if strings.TrimSpace(payload.SessionID) == "" {
		return LoginResponse{}, fmt.Errorf("login response missing sessionId")
	}
	return payload, nil
}

// Logout closes sessionID for userID. An empty sessionID asks the server to
// drop every session the user holds.
func (c *Client) Logout(ctx context.Context, userID int64, sessionID string) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	return c.do(ctx, http.MethodPost, userPath(userID, "logout"), sessionBody{SessionID: sessionID}, nil, nil)
}

// Heartbeat proves sessionID is still in use.
func (c *Client) Heartbeat(ctx context.Context, userID int64, sessionID string) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	return c.do(ctx, http.MethodPost, userPath(userID, "heartbeat"), sessionBody{SessionID: sessionID}, nil, nil)
}

// FetchPagella retrieves the shared note of an event.
func (c *Client) FetchPagella(ctx context.Context, eventID int64) (Pagella, error) {
	if c == nil {
		return Pagella{}, fmt.Errorf("client is nil")
	}
	var payload struct {
		Data Pagella `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, eventPath(eventID, "pagella"), nil, nil, &payload); err != nil {
		return Pagella{}, err
	}
	return payload.Data, nil
}

// SavePagella stores content as the event's note and returns the server's
// new modification time.
func (c *Client) SavePagella(ctx context.Context, eventID int64, content string, userID int64) (time.Time, error) {
	if c == nil {
		return time.Time{}, fmt.Errorf("client is nil")
	}
	body := SavePagellaRequest{Content: content, UserID: userID}
	var payload struct {
		Data struct {
			UpdatedAt string `json:"updatedAt"`
		} `json:"data"`
	}
	if err := c.do(ctx, http.MethodPut, eventPath(eventID, "pagella"), body, nil, &payload); err != nil {
		return time.Time{}, err
	}
	return parseTime(payload.Data.UpdatedAt), nil
}

type sessionBody struct {
	SessionID string `json:"sessionId"`
}

func userPath(id int64, action string) string {
	return "/users/" + strconv.FormatInt(id, 10) + "/" + action
}

func eventPath(id int64, action string) string {
	return "/events/" + strconv.FormatInt(id, 10) + "/" + action
}

func (c *Client) do(ctx context.Context, method, path string, body any, headers http.Header, dest any) error {
	rel := &url.URL{Path: path}
	return c.doURL(ctx, method, rel, body, headers, dest)
}

func (c *Client) doURL(ctx context.Context, method string, rel *url.URL, body any, headers http.Header, dest any) error {
	reqURL := c.baseURL.ResolveReference(rel)

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set(RequestIDHeader, uuid.NewString())
	if c.deviceID != "" {
		req.Header.Set(DeviceHeader, c.deviceID)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for key, values := range headers {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{Method: method, Path: rel.Path, StatusCode: resp.StatusCode}
	}
	if dest == nil {
		return nil
	}
	decoder := json.NewDecoder(resp.Body)
	if err := decoder.Decode(dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func parseBaseURL(apiBind string) (*url.URL, error) {
	trimmed := strings.TrimSpace(apiBind)
	if trimmed == "" {
		trimmed = defaultAPIBind
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse api_bind %q: %w", apiBind, err)
	}
	u.Path = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
