// README: Route catalog handlers.
package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"routecab/internal/modules/route"
	"routecab/internal/types"
)

type RouteHandler struct {
	routes *route.Catalog
}

func NewRouteHandler(catalog *route.Catalog) *RouteHandler {
	return &RouteHandler{routes: catalog}
}

type stopDTO struct {
	ID    types.ID `json:"id"`
	Name  string   `json:"name"`
	Lat   float64  `json:"lat"`
	Lng   float64  `json:"lng"`
	Order int      `json:"order"`
}

type routeDTO struct {
	ID            types.ID  `json:"id"`
	Name          string    `json:"name"`
	Start         string    `json:"start,omitempty"`
	Destination   string    `json:"destination,omitempty"`
	AssociationID types.ID  `json:"association_id"`
	Active        bool      `json:"active"`
	Fare          *moneyDTO `json:"fare,omitempty"`
	Stops         []stopDTO `json:"stops"`
}

func toRouteDTO(r *route.Route) routeDTO {
	start, dest := r.Labels()
	out := routeDTO{
		ID:            r.ID,
		Name:          r.Name,
		Start:         start,
		Destination:   dest,
		AssociationID: r.AssociationID,
		Active:        r.Active,
		Fare:          toMoneyDTO(r.Fare),
		Stops:         make([]stopDTO, 0, len(r.Stops)),
	}
	for _, s := range r.Stops {
		out.Stops = append(out.Stops, stopDTO{ID: s.ID, Name: s.Name, Lat: s.Point.Lat, Lng: s.Point.Lng, Order: s.Order})
	}
	return out
}

func (d routeDTO) route() *route.Route {
	r := &route.Route{
		ID:            d.ID,
		Name:          d.Name,
		AssociationID: d.AssociationID,
		Active:        d.Active,
		Fare:          d.Fare.money(),
		Stops:         make([]route.Stop, 0, len(d.Stops)),
	}
	for _, s := range d.Stops {
		r.Stops = append(r.Stops, route.Stop{ID: s.ID, Name: s.Name, Point: types.Point{Lat: s.Lat, Lng: s.Lng}, Order: s.Order})
	}
	return r
}

func (h *RouteHandler) ListActive(c *gin.Context) {
	routes, err := h.routes.ActiveRoutes(c.Request.Context())
	if err != nil {
		writeDomainError(c, err)
		return
	}
	out := make([]routeDTO, 0, len(routes))
	for _, r := range routes {
		out = append(out, toRouteDTO(r))
	}
	writeJSON(c, http.StatusOK, gin.H{"routes": out})
}

// Nearby lists active routes with a stop within max_km (default 1) of lat,lng.
func (h *RouteHandler) Nearby(c *gin.Context) {
	lat, errLat := strconv.ParseFloat(c.Query("lat"), 64)
	lng, errLng := strconv.ParseFloat(c.Query("lng"), 64)
	if errLat != nil || errLng != nil {
		writeError(c, http.StatusBadRequest, "lat and lng are required")
		return
	}
	maxKm := 1.0
	if v := c.Query("max_km"); v != "" {
		n, err := strconv.ParseFloat(v, 64)
		if err != nil || n <= 0 {
			writeError(c, http.StatusBadRequest, "invalid max_km")
			return
		}
		maxKm = n
	}
	p := types.Point{Lat: lat, Lng: lng}
	if !p.Valid() {
		writeError(c, http.StatusBadRequest, "invalid coordinates")
		return
	}
	routes, err := h.routes.NearbyRoutes(c.Request.Context(), p, maxKm)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	out := make([]routeDTO, 0, len(routes))
	for _, r := range routes {
		out = append(out, toRouteDTO(r))
	}
	writeJSON(c, http.StatusOK, gin.H{"routes": out})
}

func (h *RouteHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	r, err := h.routes.Get(c.Request.Context(), id)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, toRouteDTO(r))
}

// Save creates or replaces the :id route; mounted behind the admin role.
func (h *RouteHandler) Save(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req routeDTO
	if !bindJSON(c, &req) {
		return
	}
	req.ID = id
	r := req.route()
	if err := h.routes.Save(c.Request.Context(), r); err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, toRouteDTO(r))
}
