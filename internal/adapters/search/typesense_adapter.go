package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/typesense/typesense-go/v2/typesense/api"
	"github.com/typesense/typesense-go/v2/typesense/api/pointer"

	"github.com/zatekoja/Patientbookingtriage/internal/domain/repositories"
	tsclient "github.com/zatekoja/Patientbookingtriage/internal/infrastructure/clients/typesense"
	"github.com/zatekoja/Patientbookingtriage/pkg/utils"
)

// TypesenseAdapter implements specialty suggestions using Typesense
type TypesenseAdapter struct {
	client *tsclient.Client
}

var _ repositories.SpecialtySearchRepository = (*TypesenseAdapter)(nil)

// NewTypesenseAdapter creates a new Typesense adapter
func NewTypesenseAdapter(client *tsclient.Client) *TypesenseAdapter {
	return &TypesenseAdapter{client: client}
}

// IndexSpecialties upserts one document per specialty
func (a *TypesenseAdapter) IndexSpecialties(ctx context.Context, entries []repositories.SpecialtyEntry) error {
	documents := a.client.Client().Collection(tsclient.SpecialtiesCollection).Documents()
	for _, entry := range entries {
		doc := specialtyDocument(entry)
		if doc == nil {
			continue
		}
		if _, err := documents.Upsert(ctx, doc); err != nil {
			return fmt.Errorf("failed to index specialty %q: %w", entry.Name, err)
		}
	}
	return nil
}

// Suggest returns specialties whose name starts with prefix, most offered first
func (a *TypesenseAdapter) Suggest(ctx context.Context, prefix string, limit int) ([]repositories.SpecialtyEntry, error) {
	q := utils.FoldSpecialty(prefix)
	if q == "" {
		q = "*"
	}
	if limit <= 0 {
		limit = 10
	}

	params := &api.SearchCollectionParams{
		Q:       pointer.String(q),
		QueryBy: pointer.String("name_folded,name"),
		SortBy:  pointer.String("facility_count:desc"),
		PerPage: pointer.Int(limit),
	}

	result, err := a.client.Client().Collection(tsclient.SpecialtiesCollection).Documents().Search(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("failed to search specialties: %w", err)
	}
	if result.Hits == nil {
		return []repositories.SpecialtyEntry{}, nil
	}

	entries := make([]repositories.SpecialtyEntry, 0, len(*result.Hits))
	for _, hit := range *result.Hits {
		if hit.Document == nil {
			continue
		}
		if entry, ok := entryFromDocument(*hit.Document); ok {
			entries = append(entries, entry)
		}
	}
	return entries, nil
}

func specialtyDocument(entry repositories.SpecialtyEntry) map[string]interface{} {
	folded := utils.FoldSpecialty(entry.Name)
	if folded == "" {
		return nil
	}
	return map[string]interface{}{
		"id":             strings.Join(strings.Fields(folded), "-"),
		"name":           strings.TrimSpace(entry.Name),
		"name_folded":    folded,
		"facility_count": entry.FacilityCount,
	}
}

func entryFromDocument(doc map[string]interface{}) (repositories.SpecialtyEntry, bool) {
	name, ok := doc["name"].(string)
	if !ok || name == "" {
		return repositories.SpecialtyEntry{}, false
	}
	entry := repositories.SpecialtyEntry{Name: name}
	// JSON numbers decode as float64
	switch count := doc["facility_count"].(type) {
	case float64:
		entry.FacilityCount = int(count)
	case int:
		entry.FacilityCount = count
	}
	return entry, true
}
