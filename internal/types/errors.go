// README: Failure kinds shared by every module; module errors wrap one of these.
package types

import "errors"

var (
	ErrBadRequest          = errors.New("bad request")
	ErrNotFound            = errors.New("not found")
	ErrInvalidTransition   = errors.New("invalid transition")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrRoleConflict        = errors.New("role conflict")
	ErrInvalidAccountState = errors.New("invalid account state")
)
