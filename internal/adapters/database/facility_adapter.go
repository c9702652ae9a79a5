package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/lib/pq"

	"github.com/zatekoja/Patientbookingtriage/internal/domain/entities"
	"github.com/zatekoja/Patientbookingtriage/internal/domain/repositories"
	"github.com/zatekoja/Patientbookingtriage/internal/infrastructure/clients/postgres"
	apperrors "github.com/zatekoja/Patientbookingtriage/pkg/errors"
	"github.com/zatekoja/Patientbookingtriage/pkg/utils"
)

const facilityColumns = `id, name, latitude, longitude, address, specialty_list, specialties, updated_at`

// FacilityAdapter reads the facility directory from PostgreSQL. Specialties
// come from the specialty_list array, with the older comma-separated
// specialties column merged in for rows that still carry it.
type FacilityAdapter struct {
	client *postgres.Client
}

// NewFacilityAdapter creates a new facility adapter
func NewFacilityAdapter(client *postgres.Client) repositories.FacilityRepository {
	return &FacilityAdapter{
		client: client,
	}
}

// List retrieves every active facility with its available dates
func (a *FacilityAdapter) List(ctx context.Context) ([]*entities.Facility, error) {
	query := `SELECT ` + facilityColumns + ` FROM facilities WHERE is_active = true ORDER BY name`

	rows, err := a.client.DB().QueryContext(ctx, query)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list facilities", err)
	}
	facilities, err := scanFacilities(rows)
	if err != nil {
		return nil, err
	}

	if err := a.attachDates(ctx, facilities, nil); err != nil {
		return nil, err
	}
	return facilities, nil
}

// GetByIDs retrieves multiple facilities by their IDs
func (a *FacilityAdapter) GetByIDs(ctx context.Context, ids []string) ([]*entities.Facility, error) {
	if len(ids) == 0 {
		return []*entities.Facility{}, nil
	}

	query := `SELECT ` + facilityColumns + ` FROM facilities WHERE id = ANY($1)`

	rows, err := a.client.DB().QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get facilities", err)
	}
	facilities, err := scanFacilities(rows)
	if err != nil {
		return nil, err
	}

	if err := a.attachDates(ctx, facilities, ids); err != nil {
		return nil, err
	}
	return facilities, nil
}

// attachDates loads facility_available_dates for the given facilities.
// A nil ids slice loads every row.
func (a *FacilityAdapter) attachDates(ctx context.Context, facilities []*entities.Facility, ids []string) error {
	if len(facilities) == 0 {
		return nil
	}

	query := `SELECT facility_id, specialty, available_at FROM facility_available_dates`
	var args []interface{}
	if ids != nil {
		query += ` WHERE facility_id = ANY($1)`
		args = append(args, pq.Array(ids))
	}
	query += ` ORDER BY facility_id, available_at`

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to list available dates", err)
	}
	defer rows.Close()

	byID := make(map[string]*entities.Facility, len(facilities))
	for _, f := range facilities {
		byID[f.ID] = f
	}

	for rows.Next() {
		var facilityID, specialty string
		var at time.Time
		if err := rows.Scan(&facilityID, &specialty, &at); err != nil {
			return apperrors.NewInternalError("failed to scan available date", err)
		}
		f, ok := byID[facilityID]
		if !ok {
			continue
		}
		if f.AvailableDates == nil {
			f.AvailableDates = make(map[string][]time.Time)
		}
		f.AvailableDates[specialty] = append(f.AvailableDates[specialty], at.UTC())
	}

	if err := rows.Err(); err != nil {
		return apperrors.NewInternalError("error iterating available dates", err)
	}
	return nil
}

func scanFacilities(rows *sql.Rows) ([]*entities.Facility, error) {
	defer rows.Close()

	facilities := []*entities.Facility{}
	for rows.Next() {
		facility := &entities.Facility{}
		var lat, lon sql.NullFloat64
		var address, legacy sql.NullString
		var list pq.StringArray
		var updatedAt sql.NullTime

		err := rows.Scan(
			&facility.ID,
			&facility.Name,
			&lat,
			&lon,
			&address,
			&list,
			&legacy,
			&updatedAt,
		)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan facility", err)
		}

		if lat.Valid && lon.Valid {
			facility.Latitude = &lat.Float64
			facility.Longitude = &lon.Float64
		}
		facility.Address = address.String
		facility.UpdatedAt = updatedAt.Time
		facility.Specialties = mergeSpecialties(list, legacy.String)

		facilities = append(facilities, facility)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("error iterating facilities", err)
	}
	return facilities, nil
}

// mergeSpecialties keeps the first spelling of each specialty, array entries first
func mergeSpecialties(list []string, legacy string) entities.SpecialtyList {
	all := utils.NormalizeSpecialties(append(append([]string{}, list...), legacy))
	seen := make(map[string]struct{}, len(all))
	merged := make(entities.SpecialtyList, 0, len(all))
	for _, name := range all {
		key := utils.FoldSpecialty(name)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		merged = append(merged, name)
	}
	return merged
}
