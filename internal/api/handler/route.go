package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/haulroute/haulroute/internal/api/models"
	"github.com/haulroute/haulroute/internal/api/response"
	"github.com/haulroute/haulroute/internal/routing"
)

// RoutePlanner computes driving routes.
type RoutePlanner interface {
	PlanRoute(ctx context.Context, req routing.RouteRequest) (json.RawMessage, error)
}

// RouteHandler handles route calculation.
type RouteHandler struct {
	planner RoutePlanner
}

// NewRouteHandler creates a new RouteHandler.
func NewRouteHandler(planner RoutePlanner) *RouteHandler {
	return &RouteHandler{planner: planner}
}

// CalculateRoute handles POST /api/calculate-route. The provider's route JSON
// is relayed as-is.
func (h *RouteHandler) CalculateRoute(w http.ResponseWriter, r *http.Request) {
	input, ok := decodeBody[models.CalculateRouteRequest](w, r)
	if !ok {
		return
	}

	raw, err := h.planner.PlanRoute(r.Context(), routing.RouteRequest{
		Start:  toPoint(input.Start),
		End:    toPoint(input.End),
		Pickup: toPoint(input.Pickup),
	})
	if err != nil {
		writeServiceError(w, r, err, routing.MsgUnexpected)
		return
	}

	response.Raw(w, r, http.StatusOK, raw)
}

// toPoint returns nil for absent or incomplete coordinates.
func toPoint(c *models.Coordinate) *routing.Point {
	if !c.Complete() {
		return nil
	}
	return &routing.Point{Lat: *c.Lat, Lng: *c.Lng}
}
