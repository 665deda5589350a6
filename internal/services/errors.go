package services

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidStatus      = errors.New("unknown order status")
	ErrInvalidTransition  = errors.New("invalid order status transition")
	ErrOrderNotDeletable  = errors.New("only finished orders can be deleted")
	ErrInvalidImage       = errors.New("file is not a supported image")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidPermission  = errors.New("unknown push permission")
)
