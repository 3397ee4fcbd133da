// README: Ride handlers; the caller's uid is the acting passenger or driver.
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"routecab/internal/modules/ride"
	"routecab/internal/types"
)

type RideHandler struct {
	rides *ride.Service
}

func NewRideHandler(svc *ride.Service) *RideHandler {
	return &RideHandler{rides: svc}
}

type requestRideReq struct {
	// PassengerID is optional; when present it must be the caller.
	PassengerID         string    `json:"passenger_id"`
	DriverUserID        string    `json:"driver_user_id"`
	StartLocation       *placeDTO `json:"start_location"`
	EndLocation         *placeDTO `json:"end_location"`
	EstimatedFare       *moneyDTO `json:"estimated_fare"`
	EstimatedDistanceKm *float64  `json:"estimated_distance_km"`
}

type requestRideResp struct {
	RideID  types.ID    `json:"ride_id"`
	Status  ride.Status `json:"status"`
	Message string      `json:"message"`
}

type rideResp struct {
	ID                  types.ID    `json:"id"`
	PassengerID         types.ID    `json:"passenger_id"`
	DriverUserID        types.ID    `json:"driver_user_id"`
	Status              ride.Status `json:"status"`
	StartLocation       placeDTO    `json:"start_location"`
	EndLocation         placeDTO    `json:"end_location"`
	EstimatedFare       *moneyDTO   `json:"estimated_fare,omitempty"`
	EstimatedDistanceKm *float64    `json:"estimated_distance_km,omitempty"`
	RequestedAt         time.Time   `json:"requested_at"`
	AcceptedAt          *time.Time  `json:"accepted_at,omitempty"`
	StartedAt           *time.Time  `json:"started_at,omitempty"`
	CompletedAt         *time.Time  `json:"completed_at,omitempty"`
	CancelledAt         *time.Time  `json:"cancelled_at,omitempty"`
	CancelledBy         *types.ID   `json:"cancelled_by,omitempty"`
}

func toRideResp(r *ride.Ride) rideResp {
	return rideResp{
		ID:                  r.ID,
		PassengerID:         r.PassengerID,
		DriverUserID:        r.DriverID,
		Status:              r.Status,
		StartLocation:       toPlaceDTO(r.Origin),
		EndLocation:         toPlaceDTO(r.Destination),
		EstimatedFare:       toMoneyDTO(r.EstimatedFare),
		EstimatedDistanceKm: r.EstimatedDistanceKm,
		RequestedAt:         r.RequestedAt,
		AcceptedAt:          r.AcceptedAt,
		StartedAt:           r.StartedAt,
		CompletedAt:         r.CompletedAt,
		CancelledAt:         r.CancelledAt,
		CancelledBy:         r.CancelledBy,
	}
}

func (h *RideHandler) Request(c *gin.Context) {
	var req requestRideReq
	if !bindJSON(c, &req) {
		return
	}
	uid := caller(c)
	if req.PassengerID != "" && types.ID(req.PassengerID) != uid {
		writeError(c, http.StatusForbidden, "forbidden: passenger_id does not match authenticated user")
		return
	}
	if !isValidID(req.DriverUserID) || req.StartLocation == nil || req.EndLocation == nil {
		writeError(c, http.StatusBadRequest, "driver_user_id, start_location and end_location are required")
		return
	}
	r, err := h.rides.Request(c.Request.Context(), ride.RequestCommand{
		PassengerID:         uid,
		DriverID:            types.ID(req.DriverUserID),
		Origin:              req.StartLocation.place(),
		Destination:         req.EndLocation.place(),
		EstimatedFare:       req.EstimatedFare.money(),
		EstimatedDistanceKm: req.EstimatedDistanceKm,
	})
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, requestRideResp{RideID: r.ID, Status: r.Status, Message: "Ride requested"})
}

// Get is limited to the ride's passenger and driver.
func (h *RideHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	r, err := h.rides.Get(c.Request.Context(), id)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	if _, ok := r.PartyOf(caller(c)); !ok {
		writeError(c, http.StatusForbidden, "forbidden: not a party to this ride")
		return
	}
	writeJSON(c, http.StatusOK, toRideResp(r))
}

func (h *RideHandler) Accept(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	r, err := h.rides.Accept(c.Request.Context(), ride.AcceptCommand{RideID: id, DriverID: caller(c)})
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"message": "Ride accepted", "status": r.Status})
}

func (h *RideHandler) Cancel(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	r, err := h.rides.Cancel(c.Request.Context(), ride.CancelCommand{RideID: id, CallerID: caller(c)})
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"message": "Ride cancelled", "status": r.Status})
}

func (h *RideHandler) Complete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	r, err := h.rides.Complete(c.Request.Context(), ride.CompleteCommand{RideID: id, DriverID: caller(c)})
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"message": "Ride completed", "status": r.Status})
}
