package loaders

import (
	"context"
	"net/http"
	"time"

	"github.com/graph-gophers/dataloader/v7"

	"github.com/zatekoja/Patientbookingtriage/internal/domain/entities"
	"github.com/zatekoja/Patientbookingtriage/internal/domain/repositories"
	apperrors "github.com/zatekoja/Patientbookingtriage/pkg/errors"
)

type ctxKey string

const loadersKey ctxKey = "dataloaders"

// Loaders contains the request-scoped dataloaders
type Loaders struct {
	FacilityLoader *dataloader.Loader[string, *entities.Facility]
}

// NewLoaders creates a new instance of Loaders
func NewLoaders(facilityRepo repositories.FacilityRepository) *Loaders {
	return &Loaders{
		FacilityLoader: dataloader.NewBatchedLoader(
			facilityBatch(facilityRepo),
			dataloader.WithWait[string, *entities.Facility](2*time.Millisecond),
		),
	}
}

func facilityBatch(facilityRepo repositories.FacilityRepository) dataloader.BatchFunc[string, *entities.Facility] {
	return func(ctx context.Context, keys []string) []*dataloader.Result[*entities.Facility] {
		results := make([]*dataloader.Result[*entities.Facility], len(keys))
		facilities, err := facilityRepo.GetByIDs(ctx, keys)

		facilityMap := make(map[string]*entities.Facility, len(facilities))
		if err == nil {
			for _, f := range facilities {
				facilityMap[f.ID] = f
			}
		}

		for i, key := range keys {
			if err != nil {
				results[i] = &dataloader.Result[*entities.Facility]{Error: err}
			} else if f, ok := facilityMap[key]; ok {
				results[i] = &dataloader.Result[*entities.Facility]{Data: f}
			} else {
				results[i] = &dataloader.Result[*entities.Facility]{Error: apperrors.NewNotFoundError("facility " + key + " not found")}
			}
		}
		return results
	}
}

// For returns the loaders for a given context, or nil
func For(ctx context.Context) *Loaders {
	loaders, _ := ctx.Value(loadersKey).(*Loaders)
	return loaders
}

// WithLoaders returns a new context with the loaders attached
func WithLoaders(ctx context.Context, loaders *Loaders) context.Context {
	return context.WithValue(ctx, loadersKey, loaders)
}

// Middleware attaches fresh loaders to every request so cached results
// never outlive the request.
func Middleware(facilityRepo repositories.FacilityRepository) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := WithLoaders(r.Context(), NewLoaders(facilityRepo))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
