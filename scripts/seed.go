package main

import (
	"context"
	"os"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"github.com/zatekoja/Patientbookingtriage/internal/adapters/database"
	"github.com/zatekoja/Patientbookingtriage/internal/adapters/events"
	"github.com/zatekoja/Patientbookingtriage/internal/adapters/search"
	"github.com/zatekoja/Patientbookingtriage/internal/application/services"
	"github.com/zatekoja/Patientbookingtriage/internal/domain/entities"
	"github.com/zatekoja/Patientbookingtriage/internal/domain/providers"
	"github.com/zatekoja/Patientbookingtriage/internal/domain/repositories"
	"github.com/zatekoja/Patientbookingtriage/internal/infrastructure/clients/postgres"
	"github.com/zatekoja/Patientbookingtriage/internal/infrastructure/clients/redis"
	"github.com/zatekoja/Patientbookingtriage/internal/infrastructure/clients/typesense"
	"github.com/zatekoja/Patientbookingtriage/internal/infrastructure/observability"
	"github.com/zatekoja/Patientbookingtriage/pkg/config"
)

const schema = `
CREATE TABLE IF NOT EXISTS facilities (
	id             TEXT PRIMARY KEY,
	name           TEXT NOT NULL,
	latitude       DOUBLE PRECISION,
	longitude      DOUBLE PRECISION,
	address        TEXT,
	specialty_list TEXT[] NOT NULL DEFAULT '{}',
	specialties    TEXT,
	is_active      BOOLEAN NOT NULL DEFAULT true,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS facility_available_dates (
	facility_id  TEXT NOT NULL REFERENCES facilities(id) ON DELETE CASCADE,
	specialty    TEXT NOT NULL,
	available_at TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (facility_id, specialty, available_at)
);

CREATE TABLE IF NOT EXISTS appointments (
	id             TEXT PRIMARY KEY,
	patient_id     TEXT NOT NULL,
	facility_id    TEXT NOT NULL REFERENCES facilities(id),
	facility_name  TEXT NOT NULL,
	specialty      TEXT NOT NULL DEFAULT '',
	scheduled_at   TIMESTAMPTZ NOT NULL,
	urgency_label  TEXT NOT NULL,
	urgency_points INTEGER NOT NULL DEFAULT 0,
	status         TEXT NOT NULL,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE UNIQUE INDEX IF NOT EXISTS appointments_slot_idx
	ON appointments (facility_id, specialty, scheduled_at)
	WHERE status <> 'cancelled';

CREATE INDEX IF NOT EXISTS appointments_patient_idx ON appointments (patient_id, scheduled_at DESC);
`

type seedFacility struct {
	ID          string
	Name        string
	Latitude    *float64
	Longitude   *float64
	Address     string
	Specialties []string
}

func coord(v float64) *float64 { return &v }

// Demo facilities in the Luanda area. One has no coordinates so ranking
// without distance can be exercised.
var seedFacilities = []seedFacility{
	{
		ID:          "hosp-josina-machel",
		Name:        "Hospital Josina Machel",
		Latitude:    coord(-8.8147),
		Longitude:   coord(13.2302),
		Address:     "Rua Amílcar Cabral, Ingombota, Luanda",
		Specialties: []string{"Cardiologia", "Clínica Geral", "Ortopedia", "Neurologia"},
	},
	{
		ID:          "hosp-americo-boavida",
		Name:        "Hospital Américo Boavida",
		Latitude:    coord(-8.8261),
		Longitude:   coord(13.2574),
		Address:     "Avenida Hoji Ya Henda, Rangel, Luanda",
		Specialties: []string{"Cardiologia", "Clínica Geral", "Dermatologia"},
	},
	{
		ID:          "hosp-david-bernardino",
		Name:        "Hospital Pediátrico David Bernardino",
		Latitude:    coord(-8.8299),
		Longitude:   coord(13.2431),
		Address:     "Rua Cmdt. Valódia, Luanda",
		Specialties: []string{"Pediatria"},
	},
	{
		ID:          "clinica-girassol",
		Name:        "Clínica Girassol",
		Latitude:    coord(-8.8386),
		Longitude:   coord(13.2361),
		Address:     "Rua Comandante Gika, Alvalade, Luanda",
		Specialties: []string{"Cardiologia", "Ginecologia", "Oftalmologia", "Pediatria"},
	},
	{
		ID:          "centro-saude-viana",
		Name:        "Centro de Saúde de Viana",
		Latitude:    coord(-8.9035),
		Longitude:   coord(13.3747),
		Address:     "Estrada de Catete, Viana",
		Specialties: []string{"Clínica Geral", "Pediatria", "Ginecologia"},
	},
	{
		ID:          "posto-cazenga",
		Name:        "Posto Médico do Cazenga",
		Address:     "Cazenga, Luanda",
		Specialties: []string{"Clínica Geral"},
	},
}

// slotTimes are the appointment times offered each weekday, Luanda time
var slotTimes = [][2]int{{8, 30}, {11, 0}, {14, 30}}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	observability.InitLogger("seed", cfg.Env)

	ctx := context.Background()

	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pgClient.Close()

	if _, err := pgClient.DB().ExecContext(ctx, schema); err != nil {
		log.Fatal().Err(err).Msg("failed to create schema")
	}

	if os.Getenv("RESET_DB") == "true" {
		log.Info().Msg("RESET_DB=true detected, truncating tables before seeding")
		if _, err := pgClient.DB().ExecContext(ctx,
			`TRUNCATE TABLE appointments, facility_available_dates, facilities RESTART IDENTITY CASCADE`); err != nil {
			log.Fatal().Err(err).Msg("failed to reset tables")
		}
	}

	db := pgClient.Goqu()
	luanda := time.FixedZone("WAT", 60*60)
	days := upcomingWeekdays(time.Now().In(luanda), 10)
	now := time.Now().UTC()

	for i, f := range seedFacilities {
		if err := upsertFacility(ctx, pgClient, db, f, now); err != nil {
			log.Error().Err(err).Str("facility", f.Name).Msg("failed to seed facility")
			continue
		}

		var dates int
		for s, specialty := range f.Specialties {
			for d, day := range days {
				// Stagger availability so facilities differ
				if (d+i+s)%3 == 0 {
					continue
				}
				for _, slot := range slotTimes {
					at := time.Date(day.Year(), day.Month(), day.Day(), slot[0], slot[1], 0, 0, luanda)
					if err := insertDate(ctx, pgClient, db, f.ID, specialty, at); err != nil {
						log.Error().Err(err).Str("facility", f.Name).Msg("failed to seed available date")
						continue
					}
					dates++
				}
			}
		}
		log.Info().Str("facility", f.Name).Int("dates", dates).Msg("facility seeded")
	}

	refreshSpecialtyIndex(ctx, cfg, database.NewFacilityAdapter(pgClient))
	announceUpdate(ctx, cfg)

	log.Info().Int("facilities", len(seedFacilities)).Msg("seeding completed")
}

func upsertFacility(ctx context.Context, client *postgres.Client, db *goqu.Database, f seedFacility, now time.Time) error {
	record := goqu.Record{
		"id":             f.ID,
		"name":           f.Name,
		"latitude":       f.Latitude,
		"longitude":      f.Longitude,
		"address":        f.Address,
		"specialty_list": pq.Array(f.Specialties),
		"is_active":      true,
		"updated_at":     now,
	}
	query, args, err := db.Insert("facilities").Prepared(true).
		Rows(record).
		OnConflict(goqu.DoUpdate("id", record)).
		ToSQL()
	if err != nil {
		return err
	}
	_, err = client.DB().ExecContext(ctx, query, args...)
	return err
}

func insertDate(ctx context.Context, client *postgres.Client, db *goqu.Database, facilityID, specialty string, at time.Time) error {
	query, args, err := db.Insert("facility_available_dates").Prepared(true).
		Rows(goqu.Record{"facility_id": facilityID, "specialty": specialty, "available_at": at}).
		OnConflict(goqu.DoNothing()).
		ToSQL()
	if err != nil {
		return err
	}
	_, err = client.DB().ExecContext(ctx, query, args...)
	return err
}

// upcomingWeekdays returns the next n weekdays after from
func upcomingWeekdays(from time.Time, n int) []time.Time {
	days := make([]time.Time, 0, n)
	for day := from.AddDate(0, 0, 1); len(days) < n; day = day.AddDate(0, 0, 1) {
		if day.Weekday() == time.Saturday || day.Weekday() == time.Sunday {
			continue
		}
		days = append(days, day)
	}
	return days
}

// refreshSpecialtyIndex loads the seeded catalog once so the specialty index
// is rebuilt when Typesense is enabled.
func refreshSpecialtyIndex(ctx context.Context, cfg *config.Config, facilities repositories.FacilityRepository) {
	if !cfg.Typesense.Enabled {
		return
	}
	tsClient, err := typesense.NewClient(&cfg.Typesense)
	if err != nil {
		log.Warn().Err(err).Msg("typesense unavailable, skipping specialty index")
		return
	}
	if err := tsClient.InitSchema(ctx); err != nil {
		log.Warn().Err(err).Msg("failed to init typesense schema")
		return
	}

	catalog := services.NewCatalogService(facilities, search.NewTypesenseAdapter(tsClient), 0)
	loaded, err := catalog.Refresh(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("failed to load catalog for indexing")
		return
	}
	log.Info().Int("specialties", len(loaded.Specialties())).Msg("specialty index refreshed")
}

// announceUpdate tells running API instances to drop their cached catalog
func announceUpdate(ctx context.Context, cfg *config.Config) {
	redisClient, err := redis.NewClient(&cfg.Redis)
	if err != nil {
		log.Warn().Err(err).Msg("redis unavailable, running instances keep their catalog until it expires")
		return
	}
	defer redisClient.Close()

	bus := events.NewRedisEventBus(redisClient)
	defer bus.Close()

	event := entities.NewDomainEvent(entities.DomainEventFacilityUpdated, "seed", map[string]interface{}{
		"facilities": len(seedFacilities),
	})
	if err := bus.Publish(ctx, providers.EventChannelFacilityUpdates, event); err != nil {
		log.Warn().Err(err).Msg("failed to announce facility update")
	}
}
