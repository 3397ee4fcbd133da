// README: Base handler utilities (JSON helpers, error mapping).
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"routecab/internal/http/middleware"
	"routecab/internal/types"
)

type errorResponse struct {
	Error string `json:"error"`
}

// isValidID accepts the uuid and firebase uid shapes we issue or receive.
func isValidID(v string) bool {
	if v == "" || len(v) > 128 {
		return false
	}
	for _, c := range v {
		if (c >= '0' && c <= '9') || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '-' || c == '_' {
			continue
		}
		return false
	}
	return true
}

func writeJSON(c *gin.Context, status int, v any) {
	c.JSON(status, v)
}

func writeError(c *gin.Context, status int, msg string) {
	writeJSON(c, status, errorResponse{Error: msg})
}

// writeDomainError maps a failure kind onto a status code.
func writeDomainError(c *gin.Context, err error) {
	_ = c.Error(err)
	switch {
	case errors.Is(err, types.ErrBadRequest):
		writeError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, types.ErrUnauthorized):
		writeError(c, http.StatusForbidden, err.Error())
	case errors.Is(err, types.ErrNotFound):
		writeError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, types.ErrInvalidTransition),
		errors.Is(err, types.ErrRoleConflict),
		errors.Is(err, types.ErrInvalidAccountState):
		writeError(c, http.StatusConflict, err.Error())
	default:
		writeError(c, http.StatusInternalServerError, "internal error")
	}
}

// pathID reads and validates a path parameter; it writes the 400 itself.
func pathID(c *gin.Context, name string) (types.ID, bool) {
	v := c.Param(name)
	if !isValidID(v) {
		writeError(c, http.StatusBadRequest, "invalid "+name)
		return "", false
	}
	return types.ID(v), true
}

func caller(c *gin.Context) types.ID {
	return types.ID(middleware.CallerUID(c))
}

// bindJSON decodes the body; it writes the 400 itself.
func bindJSON(c *gin.Context, v any) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return false
	}
	return true
}

type pointDTO struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

func (p pointDTO) point() types.Point {
	return types.Point{Lat: p.Lat, Lng: p.Lng}
}

func toPointDTO(p types.Point) pointDTO {
	return pointDTO{Lat: p.Lat, Lng: p.Lng}
}

type placeDTO struct {
	Lat   float64 `json:"lat"`
	Lng   float64 `json:"lng"`
	Label string  `json:"label,omitempty"`
}

func (p placeDTO) place() types.Place {
	return types.Place{Point: types.Point{Lat: p.Lat, Lng: p.Lng}, Label: p.Label}
}

func toPlaceDTO(p types.Place) placeDTO {
	return placeDTO{Lat: p.Point.Lat, Lng: p.Point.Lng, Label: p.Label}
}

type moneyDTO struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

func (m *moneyDTO) money() *types.Money {
	if m == nil {
		return nil
	}
	return &types.Money{Amount: m.Amount, Currency: m.Currency}
}

func toMoneyDTO(m *types.Money) *moneyDTO {
	if m == nil {
		return nil
	}
	return &moneyDTO{Amount: m.Amount, Currency: m.Currency}
}
