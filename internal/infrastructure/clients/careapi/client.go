package careapi

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/zatekoja/Patientbookingtriage/internal/domain/entities"
	"github.com/zatekoja/Patientbookingtriage/internal/domain/providers"
	"github.com/zatekoja/Patientbookingtriage/internal/domain/repositories"
	"github.com/zatekoja/Patientbookingtriage/pkg/config"
	apperrors "github.com/zatekoja/Patientbookingtriage/pkg/errors"
)

// maxErrorBody bounds how much of an error response is kept for messages
const maxErrorBody = 512

// HTTPClient talks to the care API, which publishes the facility directory
// and accepts bookings.
type HTTPClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

var (
	_ repositories.FacilityRepository    = (*HTTPClient)(nil)
	_ repositories.AppointmentRepository = (*HTTPClient)(nil)
	_ providers.BookingGateway           = (*HTTPClient)(nil)
)

// StatusError is returned for non-2xx responses
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("care api returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("care api returned status %d: %s", e.StatusCode, e.Body)
}

// NewClient creates a care API client
func NewClient(cfg *config.CareAPIConfig) *HTTPClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return NewClientWithHTTP(cfg.BaseURL, cfg.APIKey, &http.Client{Timeout: timeout})
}

// NewClientWithHTTP allows overriding the HTTP client (used for tests)
func NewClientWithHTTP(baseURL, apiKey string, httpClient *http.Client) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: httpClient,
	}
}

// List fetches the whole facility directory
func (c *HTTPClient) List(ctx context.Context) ([]*entities.Facility, error) {
	var facilities []*entities.Facility
	if err := c.getList(ctx, c.baseURL+"/facilities", &facilities); err != nil {
		return nil, err
	}
	return compactFacilities(facilities), nil
}

// GetByIDs fetches the named facilities
func (c *HTTPClient) GetByIDs(ctx context.Context, ids []string) ([]*entities.Facility, error) {
	if len(ids) == 0 {
		return []*entities.Facility{}, nil
	}
	query := url.Values{"ids": []string{strings.Join(ids, ",")}}

	var facilities []*entities.Facility
	if err := c.getList(ctx, c.baseURL+"/facilities?"+query.Encode(), &facilities); err != nil {
		return nil, err
	}
	return compactFacilities(facilities), nil
}

// Submit posts a booking request. Any 4xx answer is a rejection of the
// booking itself; everything else means the service could not be reached.
// The idempotency key travels in the Idempotency-Key header.
func (c *HTTPClient) Submit(ctx context.Context, req *entities.BookingRequest) (*entities.Appointment, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode booking request: %w", err)
	}

	var header http.Header
	if req.IdempotencyKey != "" {
		header = http.Header{"Idempotency-Key": []string{req.IdempotencyKey}}
	}

	appointment := &entities.Appointment{}
	err = c.doJSON(ctx, http.MethodPost, c.baseURL+"/bookings", bytes.NewReader(body), header, appointment)
	var statusErr *StatusError
	if errors.As(err, &statusErr) && statusErr.StatusCode >= 400 && statusErr.StatusCode < 500 {
		return nil, fmt.Errorf("%w: %s", providers.ErrBookingRejected, statusErr.Error())
	}
	if err != nil {
		return nil, err
	}

	if appointment.ID == "" {
		return nil, fmt.Errorf("care api accepted the booking without an appointment id")
	}
	fillFromRequest(appointment, req)
	return appointment, nil
}

// GetByID fetches one appointment
func (c *HTTPClient) GetByID(ctx context.Context, id string) (*entities.Appointment, error) {
	appointment := &entities.Appointment{}
	err := c.doJSON(ctx, http.MethodGet, c.baseURL+"/appointments/"+url.PathEscape(id), nil, nil, appointment)
	if isNotFound(err) {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("appointment with id %s not found", id))
	}
	if err != nil {
		return nil, apperrors.NewExternalError("failed to get appointment", err)
	}
	return appointment, nil
}

// ListByPatient fetches a patient's appointments
func (c *HTTPClient) ListByPatient(ctx context.Context, patientID string, filter repositories.AppointmentFilter) ([]*entities.Appointment, error) {
	query := url.Values{}
	if filter.Status != "" {
		query.Set("status", string(filter.Status))
	}
	if filter.From != nil {
		query.Set("from", filter.From.Format(time.RFC3339))
	}
	if filter.To != nil {
		query.Set("to", filter.To.Format(time.RFC3339))
	}
	if filter.Limit > 0 {
		query.Set("limit", strconv.Itoa(filter.Limit))
	}
	if filter.Offset > 0 {
		query.Set("offset", strconv.Itoa(filter.Offset))
	}

	endpoint := c.baseURL + "/patients/" + url.PathEscape(patientID) + "/appointments"
	if encoded := query.Encode(); encoded != "" {
		endpoint += "?" + encoded
	}

	appointments := []*entities.Appointment{}
	err := c.getList(ctx, endpoint, &appointments)
	if isNotFound(err) {
		return []*entities.Appointment{}, nil
	}
	if err != nil {
		return nil, apperrors.NewExternalError("failed to list appointments", err)
	}
	return appointments, nil
}

// getList decodes either a bare JSON array or a {"data": [...]} envelope
func (c *HTTPClient) getList(ctx context.Context, endpoint string, out interface{}) error {
	var raw json.RawMessage
	if err := c.doJSON(ctx, http.MethodGet, endpoint, nil, nil, &raw); err != nil {
		return err
	}

	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var envelope struct {
			Data json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(trimmed, &envelope); err != nil {
			return fmt.Errorf("failed to decode care api envelope: %w", err)
		}
		trimmed = envelope.Data
	}
	if len(trimmed) == 0 || string(trimmed) == "null" {
		return nil
	}
	if err := json.Unmarshal(trimmed, out); err != nil {
		return fmt.Errorf("failed to decode care api list: %w", err)
	}
	return nil
}

func (c *HTTPClient) doJSON(ctx context.Context, method, endpoint string, body io.Reader, header http.Header, out interface{}) error {
	httpReq, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return err
	}
	for key, values := range header {
		httpReq.Header[key] = values
	}
	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		httpReq.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(snippet))}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode care api response: %w", err)
	}
	return nil
}

func isNotFound(err error) bool {
	var statusErr *StatusError
	return errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound
}

func compactFacilities(facilities []*entities.Facility) []*entities.Facility {
	out := make([]*entities.Facility, 0, len(facilities))
	for _, f := range facilities {
		if f != nil && f.ID != "" {
			out = append(out, f)
		}
	}
	return out
}

// fillFromRequest completes an appointment echo that left fields out
func fillFromRequest(appointment *entities.Appointment, req *entities.BookingRequest) {
	if appointment.PatientID == "" {
		appointment.PatientID = req.PatientID
	}
	if appointment.FacilityID == "" {
		appointment.FacilityID = req.FacilityID
	}
	if appointment.FacilityName == "" {
		appointment.FacilityName = req.FacilityName
	}
	if appointment.Specialty == "" {
		appointment.Specialty = req.Specialty
	}
	if appointment.ScheduledAt.IsZero() {
		appointment.ScheduledAt = req.DateTime
	}
	if appointment.UrgencyLabel == "" {
		appointment.UrgencyLabel = req.UrgencyLabel
		appointment.UrgencyPoints = req.UrgencyPoints
	}
	if appointment.Status == "" {
		appointment.Status = entities.AppointmentStatusConfirmed
	}
}
