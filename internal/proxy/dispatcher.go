package proxy

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"wati-proxy/internal/models"
	"wati-proxy/internal/wati"

	"github.com/rs/zerolog/log"
)

// Settings keys holding the provider credentials.
const (
	KeyAPIKey = "wati_api_key"
	KeyAPIURL = "wati_api_url"
)

type SettingsReader interface {
	Strings(ctx context.Context, keys ...string) (map[string]string, error)
}

type Sender interface {
	Do(ctx context.Context, creds wati.Credentials, req wati.Request) (*wati.Response, error)
}

type ActivityAppender interface {
	Append(ctx context.Context, action string, details any) (*models.ActivityLog, error)
}

// ConfigurationMissingError is returned when either credential is empty.
type ConfigurationMissingError struct {
	HasAPIKey bool
	HasAPIURL bool
}

func (e *ConfigurationMissingError) Error() string {
	return "WATI API configuration missing"
}

// AuditDetails is the payload stored with every proxied call.
type AuditDetails struct {
	Endpoint  string    `json:"endpoint"`
	Method    string    `json:"method"`
	Status    int       `json:"status"`
	Success   bool      `json:"success"`
	Timestamp time.Time `json:"timestamp"`
	Error     string    `json:"error,omitempty"`
}

// Dispatcher relays one action to the provider per call.
type Dispatcher struct {
	settings SettingsReader
	sender   Sender
	activity ActivityAppender

	mu      sync.Mutex
	closed  bool
	pending sync.WaitGroup
}

func NewDispatcher(settings SettingsReader, sender Sender, activity ActivityAppender) *Dispatcher {
	return &Dispatcher{settings: settings, sender: sender, activity: activity}
}

// Dispatch resolves the action, loads credentials and sends the request. The
// action is checked before any I/O. Once the request is sent an audit entry is
// written in the background whatever the outcome.
func (d *Dispatcher) Dispatch(ctx context.Context, action string, data json.RawMessage) (*wati.Response, error) {
	req, err := wati.Resolve(action, data)
	if err != nil {
		return nil, err
	}

	// the outbound call is not cancelled by the caller going away
	ctx = context.WithoutCancel(ctx)

	values, err := d.settings.Strings(ctx, KeyAPIKey, KeyAPIURL)
	if err != nil {
		return nil, fmt.Errorf("failed to load WATI settings: %w", err)
	}
	creds := wati.Credentials{APIKey: values[KeyAPIKey], APIURL: values[KeyAPIURL]}
	if creds.APIKey == "" || creds.APIURL == "" {
		return nil, &ConfigurationMissingError{HasAPIKey: creds.APIKey != "", HasAPIURL: creds.APIURL != ""}
	}

	resp, sendErr := d.sender.Do(ctx, creds, req)

	details := AuditDetails{
		Endpoint:  req.Path,
		Method:    req.Method,
		Timestamp: time.Now().UTC(),
	}
	if resp != nil {
		details.Status = resp.StatusCode
		details.Success = sendErr == nil && resp.OK()
	}
	if sendErr != nil {
		details.Error = sendErr.Error()
	}
	d.audit(ctx, "wati_"+string(req.Action), details)

	if sendErr != nil {
		return nil, fmt.Errorf("WATI request failed: %w", sendErr)
	}
	return resp, nil
}

func (d *Dispatcher) audit(ctx context.Context, action string, details AuditDetails) {
	if d.activity == nil {
		return
	}

	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		// Close is already draining, write inline instead of joining the group
		d.writeAudit(ctx, action, details)
		return
	}
	d.pending.Add(1)
	d.mu.Unlock()

	go func() {
		defer d.pending.Done()
		d.writeAudit(ctx, action, details)
	}()
}

func (d *Dispatcher) writeAudit(ctx context.Context, action string, details AuditDetails) {
	if _, err := d.activity.Append(ctx, action, details); err != nil {
		log.Error().Err(err).Str("action", action).Msg("Failed to write activity log")
	}
}

// Wait blocks until every background audit write has finished.
func (d *Dispatcher) Wait() {
	d.pending.Wait()
}

// Close stops background audit writes and waits for the pending ones. Calls to
// Dispatch still in flight afterwards write their audit entry synchronously.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
	d.pending.Wait()
}
