// README: Match handler; origin and destination in, ranked taxis out.
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"routecab/internal/modules/matching"
	"routecab/internal/types"
)

type MatchHandler struct {
	matching *matching.Service
}

func NewMatchHandler(svc *matching.Service) *MatchHandler {
	return &MatchHandler{matching: svc}
}

type tuningDTO struct {
	MaxOriginKm      float64 `json:"max_origin_km"`
	MaxDestinationKm float64 `json:"max_destination_km"`
	MaxDriverKm      float64 `json:"max_driver_km"`
	MaxResults       int     `json:"max_results"`
}

type matchReq struct {
	Origin      *pointDTO  `json:"origin"`
	Destination *pointDTO  `json:"destination"`
	Tuning      *tuningDTO `json:"tuning"`
}

type routeSummaryDTO struct {
	ID          types.ID  `json:"id"`
	Name        string    `json:"name"`
	Start       string    `json:"start"`
	Destination string    `json:"destination"`
	Fare        *moneyDTO `json:"fare,omitempty"`
}

// taxiDTO carries both driver ids; rides are requested with DriverUserID.
type taxiDTO struct {
	DriverID     types.ID        `json:"driver_id"`
	DriverUserID types.ID        `json:"driver_user_id"`
	Plate        string          `json:"plate"`
	Capacity     int             `json:"capacity"`
	Model        string          `json:"model"`
	Route        routeSummaryDTO `json:"route"`
	Location     pointDTO        `json:"location"`
	LastSeen     time.Time       `json:"last_seen"`
	DistanceKm   float64         `json:"distance_km"`
}

type routeMatchDTO struct {
	Route            routeSummaryDTO `json:"route"`
	StartStop        string          `json:"start_stop"`
	EndStop          string          `json:"end_stop"`
	StartDistanceKm  float64         `json:"start_distance_km"`
	EndDistanceKm    float64         `json:"end_distance_km"`
	AvailableDrivers int             `json:"available_drivers"`
}

type matchResp struct {
	AvailableTaxis   []taxiDTO       `json:"available_taxis"`
	MatchingRoutes   []routeMatchDTO `json:"matching_routes"`
	TotalTaxisFound  int             `json:"total_taxis_found"`
	ValidRoutesFound int             `json:"valid_routes_found"`
}

func (h *MatchHandler) Match(c *gin.Context) {
	var req matchReq
	if !bindJSON(c, &req) {
		return
	}
	if req.Origin == nil || req.Destination == nil {
		writeError(c, http.StatusBadRequest, "origin and destination are required")
		return
	}
	q := matching.Query{Origin: req.Origin.point(), Destination: req.Destination.point()}
	if t := req.Tuning; t != nil {
		q.Tuning = matching.Tuning{
			MaxOriginKm:      t.MaxOriginKm,
			MaxDestinationKm: t.MaxDestinationKm,
			MaxDriverKm:      t.MaxDriverKm,
			MaxResults:       t.MaxResults,
		}
	}
	res, err := h.matching.Match(c.Request.Context(), q)
	if err != nil {
		writeDomainError(c, err)
		return
	}

	resp := matchResp{
		AvailableTaxis:   make([]taxiDTO, 0, len(res.AvailableTaxis)),
		MatchingRoutes:   make([]routeMatchDTO, 0, len(res.MatchingRoutes)),
		TotalTaxisFound:  res.TotalTaxisFound,
		ValidRoutesFound: res.ValidRoutesFound,
	}
	for _, t := range res.AvailableTaxis {
		resp.AvailableTaxis = append(resp.AvailableTaxis, taxiDTO{
			DriverID:     t.DriverID,
			DriverUserID: t.UserID,
			Plate:        t.Vehicle.Plate,
			Capacity:     t.Vehicle.Capacity,
			Model:        t.Vehicle.Model,
			Route:        toRouteSummaryDTO(t.Route),
			Location:     toPointDTO(t.Position.Point),
			LastSeen:     t.Position.RecordedAt,
			DistanceKm:   t.DistanceKm,
		})
	}
	for _, m := range res.MatchingRoutes {
		resp.MatchingRoutes = append(resp.MatchingRoutes, routeMatchDTO{
			Route:            toRouteSummaryDTO(m.Route),
			StartStop:        m.StartStop.Name,
			EndStop:          m.EndStop.Name,
			StartDistanceKm:  m.StartDistanceKm,
			EndDistanceKm:    m.EndDistanceKm,
			AvailableDrivers: m.AvailableDrivers,
		})
	}
	writeJSON(c, http.StatusOK, resp)
}

func toRouteSummaryDTO(s matching.RouteSummary) routeSummaryDTO {
	return routeSummaryDTO{
		ID:          s.ID,
		Name:        s.Name,
		Start:       s.Start,
		Destination: s.Destination,
		Fare:        toMoneyDTO(s.Fare),
	}
}
