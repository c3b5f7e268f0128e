package service

import "errors"

var (
	ErrCustomerNotFound    = errors.New("customer not found")
	ErrDeviceNotRegistered = errors.New("device not registered")
	ErrDuplicatePhone      = errors.New("customer with this phone already exists")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrInvalidAmount       = errors.New("amount must be positive")
)
