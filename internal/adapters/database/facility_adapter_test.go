package database

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/Patientbookingtriage/internal/domain/entities"
	"github.com/zatekoja/Patientbookingtriage/internal/infrastructure/clients/postgres"
	apperrors "github.com/zatekoja/Patientbookingtriage/pkg/errors"
)

func setupMockDB(t *testing.T) (*postgres.Client, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return postgres.NewClientFromDB(db), mock
}

var facilityRowColumns = []string{"id", "name", "latitude", "longitude", "address", "specialty_list", "specialties", "updated_at"}

func TestFacilityAdapter_List(t *testing.T) {
	client, mock := setupMockDB(t)
	adapter := NewFacilityAdapter(client)
	updated := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	day1 := time.Date(2030, 1, 15, 9, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("FROM facilities WHERE is_active = true")).
		WillReturnRows(sqlmock.NewRows(facilityRowColumns).
			AddRow("fac-a", "Hospital A", -8.84, 13.29, "Rua Direita", "{Cardiologia,Pediatria}", "cardiologia, Ortopedia", updated).
			AddRow("fac-c", "Centro C", nil, nil, nil, "{}", "Cardiologia", updated))
	mock.ExpectQuery(regexp.QuoteMeta("FROM facility_available_dates ORDER BY")).
		WillReturnRows(sqlmock.NewRows([]string{"facility_id", "specialty", "available_at"}).
			AddRow("fac-a", "Cardiologia", day1).
			AddRow("fac-x", "Cardiologia", day1))

	facilities, err := adapter.List(context.Background())

	require.NoError(t, err)
	require.Len(t, facilities, 2)

	a := facilities[0]
	assert.Equal(t, entities.SpecialtyList{"Cardiologia", "Pediatria", "Ortopedia"}, a.Specialties)
	require.NotNil(t, a.Location())
	assert.Equal(t, -8.84, a.Location().Latitude)
	assert.Equal(t, []time.Time{day1}, a.AvailableDates["Cardiologia"])

	c := facilities[1]
	assert.Nil(t, c.Location())
	assert.Empty(t, c.Address)
	assert.Equal(t, entities.SpecialtyList{"Cardiologia"}, c.Specialties)
	assert.Empty(t, c.AvailableDates)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFacilityAdapter_GetByIDs(t *testing.T) {
	client, mock := setupMockDB(t)
	adapter := NewFacilityAdapter(client)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE id = ANY($1)")).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(facilityRowColumns).
			AddRow("fac-b", "Clínica B", -9.0, 13.0, "Av. 4 de Fevereiro", "{Ortopedia}", nil, time.Now()))
	mock.ExpectQuery(regexp.QuoteMeta("WHERE facility_id = ANY($1)")).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"facility_id", "specialty", "available_at"}))

	facilities, err := adapter.GetByIDs(context.Background(), []string{"fac-b"})

	require.NoError(t, err)
	require.Len(t, facilities, 1)
	assert.Equal(t, "Clínica B", facilities[0].Name)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFacilityAdapter_GetByIDsEmpty(t *testing.T) {
	client, mock := setupMockDB(t)
	adapter := NewFacilityAdapter(client)

	facilities, err := adapter.GetByIDs(context.Background(), nil)

	require.NoError(t, err)
	assert.Empty(t, facilities)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFacilityAdapter_QueryFailure(t *testing.T) {
	client, mock := setupMockDB(t)
	adapter := NewFacilityAdapter(client)

	mock.ExpectQuery("FROM facilities").WillReturnError(errors.New("connection reset by peer"))

	_, err := adapter.List(context.Background())

	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeInternal))
}
