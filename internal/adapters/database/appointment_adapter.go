package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/zatekoja/Patientbookingtriage/internal/domain/entities"
	"github.com/zatekoja/Patientbookingtriage/internal/domain/providers"
	"github.com/zatekoja/Patientbookingtriage/internal/domain/repositories"
	"github.com/zatekoja/Patientbookingtriage/internal/infrastructure/clients/postgres"
	apperrors "github.com/zatekoja/Patientbookingtriage/pkg/errors"
)

// PostgreSQL error codes that mean the booking itself is unacceptable
const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
)

const appointmentsPrimaryKey = "appointments_pkey"

// bookingNamespace scopes appointment IDs derived from idempotency keys
var bookingNamespace = uuid.MustParse("6f1c3a52-8d0e-4b7a-9c41-2e5d7f9a0b13")

var appointmentColumns = []interface{}{
	"id", "patient_id", "facility_id", "facility_name", "specialty",
	"scheduled_at", "urgency_label", "urgency_points", "status",
	"created_at", "updated_at",
}

// AppointmentAdapter stores bookings in PostgreSQL. It serves both as the
// booking sink and as the read side for a patient's appointments.
type AppointmentAdapter struct {
	client *postgres.Client
	db     *goqu.Database
	now    func() time.Time
}

var (
	_ repositories.AppointmentRepository = (*AppointmentAdapter)(nil)
	_ providers.BookingGateway           = (*AppointmentAdapter)(nil)
)

// NewAppointmentAdapter creates a new appointment adapter
func NewAppointmentAdapter(client *postgres.Client) *AppointmentAdapter {
	return &AppointmentAdapter{
		client: client,
		db:     client.Goqu(),
		now:    time.Now,
	}
}

// Submit records the booking request as a confirmed appointment. A slot
// already taken or an unknown facility is reported as ErrBookingRejected.
// Requests carrying an idempotency key get an ID derived from it; repeating
// one returns the appointment stored the first time.
func (a *AppointmentAdapter) Submit(ctx context.Context, req *entities.BookingRequest) (*entities.Appointment, error) {
	now := a.now().UTC()
	appointment := &entities.Appointment{
		ID:            appointmentID(req.IdempotencyKey),
		PatientID:     req.PatientID,
		FacilityID:    req.FacilityID,
		FacilityName:  req.FacilityName,
		Specialty:     req.Specialty,
		ScheduledAt:   req.DateTime.UTC(),
		UrgencyLabel:  req.UrgencyLabel,
		UrgencyPoints: req.UrgencyPoints,
		Status:        entities.AppointmentStatusConfirmed,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	record := goqu.Record{
		"id":             appointment.ID,
		"patient_id":     appointment.PatientID,
		"facility_id":    appointment.FacilityID,
		"facility_name":  appointment.FacilityName,
		"specialty":      appointment.Specialty,
		"scheduled_at":   appointment.ScheduledAt,
		"urgency_label":  appointment.UrgencyLabel,
		"urgency_points": appointment.UrgencyPoints,
		"status":         appointment.Status,
		"created_at":     appointment.CreatedAt,
		"updated_at":     appointment.UpdatedAt,
	}

	query, args, err := a.db.Insert("appointments").Rows(record).ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build insert query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && req.IdempotencyKey != "" &&
			pqErr.Code == pqUniqueViolation && pqErr.Constraint == appointmentsPrimaryKey {
			return a.replayed(ctx, appointment.ID, req)
		}
		if errors.As(err, &pqErr) && (pqErr.Code == pqUniqueViolation || pqErr.Code == pqForeignKeyViolation) {
			return nil, fmt.Errorf("%w: %s", providers.ErrBookingRejected, pqErr.Message)
		}
		return nil, fmt.Errorf("failed to create appointment: %w", err)
	}

	return appointment, nil
}

// replayed returns the appointment an earlier submit with the same key
// created. A different patient behind the same key is a rejection.
func (a *AppointmentAdapter) replayed(ctx context.Context, id string, req *entities.BookingRequest) (*entities.Appointment, error) {
	existing, err := a.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load replayed appointment: %w", err)
	}
	if existing.PatientID != req.PatientID {
		return nil, fmt.Errorf("%w: idempotency key already used by another patient", providers.ErrBookingRejected)
	}
	return existing, nil
}

func appointmentID(idempotencyKey string) string {
	if idempotencyKey == "" {
		return uuid.NewString()
	}
	return uuid.NewSHA1(bookingNamespace, []byte(idempotencyKey)).String()
}

// GetByID retrieves an appointment by ID
func (a *AppointmentAdapter) GetByID(ctx context.Context, id string) (*entities.Appointment, error) {
	query, args, err := a.db.Select(appointmentColumns...).
		From("appointments").
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	appointment, err := scanAppointment(a.client.DB().QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("appointment with id %s not found", id))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get appointment", err)
	}
	return appointment, nil
}

// ListByPatient retrieves appointments for a patient, latest first
func (a *AppointmentAdapter) ListByPatient(ctx context.Context, patientID string, filter repositories.AppointmentFilter) ([]*entities.Appointment, error) {
	ds := a.db.Select(appointmentColumns...).
		From("appointments").
		Where(goqu.Ex{"patient_id": patientID})

	if filter.Status != "" {
		ds = ds.Where(goqu.Ex{"status": filter.Status})
	}
	if filter.From != nil {
		ds = ds.Where(goqu.C("scheduled_at").Gte(*filter.From))
	}
	if filter.To != nil {
		ds = ds.Where(goqu.C("scheduled_at").Lte(*filter.To))
	}

	ds = ds.Order(goqu.I("scheduled_at").Desc())

	if filter.Limit > 0 {
		ds = ds.Limit(uint(filter.Limit))
	}
	if filter.Offset > 0 {
		ds = ds.Offset(uint(filter.Offset))
	}

	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build list query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list appointments", err)
	}
	defer rows.Close()

	appointments := []*entities.Appointment{}
	for rows.Next() {
		appointment, err := scanAppointment(rows)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan appointment", err)
		}
		appointments = append(appointments, appointment)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("error iterating appointments", err)
	}

	return appointments, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAppointment(row rowScanner) (*entities.Appointment, error) {
	appointment := &entities.Appointment{}
	var facilityID, specialty sql.NullString

	err := row.Scan(
		&appointment.ID,
		&appointment.PatientID,
		&facilityID,
		&appointment.FacilityName,
		&specialty,
		&appointment.ScheduledAt,
		&appointment.UrgencyLabel,
		&appointment.UrgencyPoints,
		&appointment.Status,
		&appointment.CreatedAt,
		&appointment.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	appointment.FacilityID = facilityID.String
	appointment.Specialty = specialty.String
	return appointment, nil
}
