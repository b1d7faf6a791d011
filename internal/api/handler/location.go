package handler

import (
	"context"
	"net/http"

	"github.com/haulroute/haulroute/internal/api/models"
	"github.com/haulroute/haulroute/internal/api/response"
	"github.com/haulroute/haulroute/internal/geocoding"
)

// LocationSearcher resolves free-text location queries.
type LocationSearcher interface {
	Search(ctx context.Context, query string) (*geocoding.SearchResult, error)
}

// LocationHandler handles location search.
type LocationHandler struct {
	searcher LocationSearcher
}

// NewLocationHandler creates a new LocationHandler.
func NewLocationHandler(searcher LocationSearcher) *LocationHandler {
	return &LocationHandler{searcher: searcher}
}

// SearchLocation handles POST /api/search-location.
func (h *LocationHandler) SearchLocation(w http.ResponseWriter, r *http.Request) {
	input, ok := decodeBody[models.SearchLocationRequest](w, r)
	if !ok {
		return
	}

	result, err := h.searcher.Search(r.Context(), input.Query)
	if err != nil {
		writeServiceError(w, r, err, err.Error())
		return
	}

	resp := models.SearchLocationResponse{Locations: make([]models.Location, 0, len(result.Locations))}
	for _, loc := range result.Locations {
		resp.Locations = append(resp.Locations, models.Location{
			Name:    loc.Name,
			Address: loc.Address,
			Lat:     loc.Lat,
			Lng:     loc.Lng,
		})
	}

	response.JSON(w, r, http.StatusOK, resp)
}
