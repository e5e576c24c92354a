package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"masterclass.link/configs/configslog"
	"masterclass.link/models"
	"masterclass.link/repositories"

	"go.uber.org/zap"
)

// MaxLocationCandidates caps the candidates returned by Resolve.
const MaxLocationCandidates = 3

// Provenance tells where a location candidate came from.
type Provenance string

const (
	ProvenanceStored   Provenance = "stored"
	ProvenanceExternal Provenance = "external"
)

// LocationResolverError location resolution errors.
type LocationResolverError string

func (e LocationResolverError) Error() string { return string(e) }

const (
	ErrLocationQueryRequired  LocationResolverError = "a location search term is required"
	ErrPlaceLookupUnavailable LocationResolverError = "place lookup is not configured"
	ErrPlaceLookupFailed      LocationResolverError = "place lookup failed"
	ErrUnknownProvenance      LocationResolverError = "location candidate has no provenance"
)

// Place is one result of an external place lookup.
type Place struct {
	ExternalPlaceID  string
	Name             string
	FormattedAddress string
}

// PlaceLookup searches an external places provider by free text.
type PlaceLookup interface {
	SearchPlaces(ctx context.Context, query string) ([]Place, error)
}

// LocationCandidate is a ranked search result. Stored candidates carry the
// row id, external ones the provider's place id. It is kept in the wizard
// session between the search and the selection step.
type LocationCandidate struct {
	Provenance      Provenance `json:"provenance"`
	LocationID      uint       `json:"location_id,omitempty"`
	ExternalPlaceID string     `json:"external_place_id,omitempty"`
	Name            string     `json:"name"`
	Address         string     `json:"address"`
}

// ILocationResolver turns free text into location candidates.
type ILocationResolver interface {
	Resolve(ctx context.Context, query string) ([]LocationCandidate, error)
	Materialize(ctx context.Context, candidate LocationCandidate) (*models.Location, error)
}

// LocationResolver implements ILocationResolver. lookup may be nil, in
// which case only stored locations can be found.
type LocationResolver struct {
	repo   repositories.ILocationRepository
	lookup PlaceLookup
}

func NewLocationResolver(repo repositories.ILocationRepository, lookup PlaceLookup) ILocationResolver {
	return &LocationResolver{repo: repo, lookup: lookup}
}

// Resolve returns stored matches when there are any, otherwise the first
// external results. The two sources are never merged.
func (r *LocationResolver) Resolve(ctx context.Context, query string) ([]LocationCandidate, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrLocationQueryRequired
	}

	stored, err := r.repo.Search(ctx, query, MaxLocationCandidates)
	if err != nil {
		return nil, err
	}
	if len(stored) > 0 {
		candidates := make([]LocationCandidate, 0, len(stored))
		for _, l := range stored {
			candidates = append(candidates, LocationCandidate{
				Provenance: ProvenanceStored,
				LocationID: l.ID,
				Name:       l.Name,
				Address:    l.Address,
			})
		}
		return candidates, nil
	}

	if r.lookup == nil {
		return nil, ErrPlaceLookupUnavailable
	}
	places, err := r.lookup.SearchPlaces(ctx, query)
	if err != nil {
		configslog.Log.Error("External place lookup failed", zap.String("query", query), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrPlaceLookupFailed, err)
	}
	if len(places) > MaxLocationCandidates {
		places = places[:MaxLocationCandidates]
	}
	candidates := make([]LocationCandidate, 0, len(places))
	for _, p := range places {
		candidates = append(candidates, LocationCandidate{
			Provenance:      ProvenanceExternal,
			ExternalPlaceID: p.ExternalPlaceID,
			Name:            p.Name,
			Address:         p.FormattedAddress,
		})
	}
	return candidates, nil
}

// Materialize returns the Location row for a candidate. External
// candidates reuse a row with the same place id before creating one.
func (r *LocationResolver) Materialize(ctx context.Context, candidate LocationCandidate) (*models.Location, error) {
	switch candidate.Provenance {
	case ProvenanceStored:
		location, err := r.repo.FindByID(ctx, candidate.LocationID)
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrLocationNotFound
		}
		return location, err

	case ProvenanceExternal:
		if candidate.ExternalPlaceID != "" {
			existing, err := r.repo.FindByExternalPlaceID(ctx, candidate.ExternalPlaceID)
			if err == nil {
				return existing, nil
			}
			if !errors.Is(err, repositories.ErrNotFound) {
				return nil, err
			}
		}
		location := &models.Location{
			Name:    candidate.Name,
			Address: candidate.Address,
		}
		if candidate.ExternalPlaceID != "" {
			placeID := candidate.ExternalPlaceID
			location.ExternalPlaceID = &placeID
		}
		if err := r.repo.Create(ctx, location); err != nil {
			if errors.Is(err, repositories.ErrLocationExists) {
				return r.repo.FindByExternalPlaceID(ctx, candidate.ExternalPlaceID)
			}
			return nil, err
		}
		configslog.Log.Info("Location materialized from place lookup",
			zap.Uint("location_id", location.ID), zap.String("place_id", candidate.ExternalPlaceID))
		return location, nil
	}
	return nil, ErrUnknownProvenance
}

var _ ILocationResolver = (*LocationResolver)(nil)
