// README: Driver handlers for location reports, availability and route assignment.
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"routecab/internal/modules/driver"
	"routecab/internal/modules/location"
	"routecab/internal/types"
)

type DriverHandler struct {
	drivers  *driver.Registry
	location *location.Service
}

func NewDriverHandler(drivers *driver.Registry, locationSvc *location.Service) *DriverHandler {
	return &DriverHandler{drivers: drivers, location: locationSvc}
}

type driverResp struct {
	ID        types.ID   `json:"id"`
	UserID    types.ID   `json:"user_id"`
	RouteID   *types.ID  `json:"route_id,omitempty"`
	Available bool       `json:"available"`
	Vehicle   vehicleDTO `json:"vehicle"`
	Location  *pointDTO  `json:"location,omitempty"`
	LastSeen  *time.Time `json:"last_seen,omitempty"`
}

func toDriverResp(d *driver.Driver) driverResp {
	resp := driverResp{
		ID:        d.ID,
		UserID:    d.UserID,
		RouteID:   d.RouteID,
		Available: d.Available,
		Vehicle:   vehicleDTO{Plate: d.Vehicle.Plate, Capacity: d.Vehicle.Capacity, Model: d.Vehicle.Model},
	}
	if d.Position != nil {
		p := toPointDTO(d.Position.Point)
		at := d.Position.RecordedAt
		resp.Location = &p
		resp.LastSeen = &at
	}
	return resp
}

func (h *DriverHandler) Me(c *gin.Context) {
	d, err := h.drivers.GetByUser(c.Request.Context(), caller(c))
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, toDriverResp(d))
}

type locationReq struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

func (h *DriverHandler) UpdateLocation(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req locationReq
	if !bindJSON(c, &req) {
		return
	}
	if req.Latitude == nil || req.Longitude == nil {
		writeError(c, http.StatusBadRequest, "latitude and longitude are required")
		return
	}
	err := h.location.UpdateDriverLocation(c.Request.Context(), location.UpdateCommand{
		DriverID: id,
		CallerID: caller(c),
		Lat:      *req.Latitude,
		Lng:      *req.Longitude,
	})
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type availabilityReq struct {
	Available *bool `json:"available"`
}

func (h *DriverHandler) SetAvailability(c *gin.Context) {
	d, ok := h.ownDriver(c)
	if !ok {
		return
	}
	var req availabilityReq
	if !bindJSON(c, &req) {
		return
	}
	if req.Available == nil {
		writeError(c, http.StatusBadRequest, "available is required")
		return
	}
	if err := h.drivers.SetAvailability(c.Request.Context(), d.ID, *req.Available); err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"available": *req.Available})
}

type assignRouteReq struct {
	RouteID string `json:"route_id"`
}

// AssignRoute is the driver's one-time choice of route.
func (h *DriverHandler) AssignRoute(c *gin.Context) {
	d, ok := h.ownDriver(c)
	if !ok {
		return
	}
	var req assignRouteReq
	if !bindJSON(c, &req) {
		return
	}
	if !isValidID(req.RouteID) {
		writeError(c, http.StatusBadRequest, "invalid route_id")
		return
	}
	if err := h.drivers.AssignRoute(c.Request.Context(), d.ID, types.ID(req.RouteID)); err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"route_id": req.RouteID})
}

// ReassignRoute is mounted behind the admin role.
func (h *DriverHandler) ReassignRoute(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req assignRouteReq
	if !bindJSON(c, &req) {
		return
	}
	if !isValidID(req.RouteID) {
		writeError(c, http.StatusBadRequest, "invalid route_id")
		return
	}
	if err := h.drivers.ReassignRoute(c.Request.Context(), id, types.ID(req.RouteID)); err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"route_id": req.RouteID})
}

// ownDriver loads the :id driver and checks it belongs to the caller.
func (h *DriverHandler) ownDriver(c *gin.Context) (*driver.Driver, bool) {
	id, ok := pathID(c, "id")
	if !ok {
		return nil, false
	}
	d, err := h.drivers.Get(c.Request.Context(), id)
	if err != nil {
		writeDomainError(c, err)
		return nil, false
	}
	if d.UserID != caller(c) {
		writeError(c, http.StatusForbidden, "forbidden: id does not match authenticated user")
		return nil, false
	}
	return d, true
}
