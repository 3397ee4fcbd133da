// README: Account handlers; every operation acts on the caller's own account.
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"routecab/internal/modules/account"
	"routecab/internal/modules/driver"
	"routecab/internal/types"
)

type AccountHandler struct {
	accounts *account.Service
}

func NewAccountHandler(svc *account.Service) *AccountHandler {
	return &AccountHandler{accounts: svc}
}

type vehicleDTO struct {
	Plate    string `json:"plate"`
	Capacity int    `json:"capacity"`
	Model    string `json:"model"`
}

func (v *vehicleDTO) vehicle() driver.Vehicle {
	if v == nil {
		return driver.Vehicle{}
	}
	return driver.Vehicle{Plate: v.Plate, Capacity: v.Capacity, Model: v.Model}
}

type createAccountReq struct {
	AccountType string      `json:"account_type"`
	ActiveRole  string      `json:"active_role"`
	Vehicle     *vehicleDTO `json:"vehicle"`
}

type accountResp struct {
	ID            types.ID   `json:"id"`
	AccountType   string     `json:"account_type"`
	ActiveRole    string     `json:"current_active_role"`
	CreatedAt     time.Time  `json:"created_at"`
	RoleChangedAt *time.Time `json:"role_changed_at,omitempty"`
}

func toAccountResp(a *account.Account) accountResp {
	return accountResp{
		ID:            a.ID,
		AccountType:   string(a.Roles.Type()),
		ActiveRole:    string(a.Roles.Active()),
		CreatedAt:     a.CreatedAt,
		RoleChangedAt: a.RoleChangedAt,
	}
}

func (h *AccountHandler) Create(c *gin.Context) {
	var req createAccountReq
	if !bindJSON(c, &req) {
		return
	}
	a, err := h.accounts.Create(c.Request.Context(), account.CreateCommand{
		UserID:     caller(c),
		Type:       account.Type(req.AccountType),
		ActiveRole: account.Role(req.ActiveRole),
		Vehicle:    req.Vehicle.vehicle(),
	})
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, toAccountResp(a))
}

func (h *AccountHandler) Me(c *gin.Context) {
	a, err := h.accounts.Get(c.Request.Context(), caller(c))
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, toAccountResp(a))
}

type switchRoleReq struct {
	Role string `json:"role"`
}

type switchRoleResp struct {
	Success bool   `json:"success"`
	NewRole string `json:"new_role"`
}

func (h *AccountHandler) SwitchActiveRole(c *gin.Context) {
	var req switchRoleReq
	if !bindJSON(c, &req) {
		return
	}
	a, err := h.accounts.SwitchActiveRole(c.Request.Context(), caller(c), account.Role(req.Role))
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, switchRoleResp{Success: true, NewRole: string(a.Roles.Active())})
}

type upgradeReq struct {
	Vehicle *vehicleDTO `json:"vehicle"`
}

func (h *AccountHandler) Upgrade(c *gin.Context) {
	var req upgradeReq
	if c.Request.ContentLength > 0 && !bindJSON(c, &req) {
		return
	}
	a, err := h.accounts.Upgrade(c.Request.Context(), account.UpgradeCommand{
		UserID:  caller(c),
		Vehicle: req.Vehicle.vehicle(),
	})
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, toAccountResp(a))
}

type downgradeReq struct {
	Keep string `json:"keep"`
}

func (h *AccountHandler) Downgrade(c *gin.Context) {
	var req downgradeReq
	if !bindJSON(c, &req) {
		return
	}
	a, err := h.accounts.Downgrade(c.Request.Context(), caller(c), account.Role(req.Keep))
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, toAccountResp(a))
}
