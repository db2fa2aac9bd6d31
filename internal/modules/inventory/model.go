package inventory

import (
	"errors"
	"fmt"
)

var (
	ErrInsufficientInventory = errors.New("insufficient inventory")
	ErrNoKeys                = errors.New("no keys supplied")
)

// LowStockThreshold marks a pool as running low on the stock screen.
const LowStockThreshold = 5

// Stock statuses.
const (
	StatusOK    = "ok"
	StatusLow   = "low"
	StatusEmpty = "empty"
)

// ShortageError names the product that could not be served and how many keys remain.
type ShortageError struct {
	ProductID string
	Requested int
	Available int
}

func (e *ShortageError) Error() string {
	return fmt.Sprintf("not enough keys for %s: requested %d, available %d", e.ProductID, e.Requested, e.Available)
}

func (e *ShortageError) Unwrap() error { return ErrInsufficientInventory }

// Availability is the read-only answer to "can qty keys be taken right now".
type Availability struct {
	Available bool `json:"available"`
	Count     int  `json:"count"`
}

// StockLevel is one row of the operator stock screen.
type StockLevel struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name,omitempty"`
	Count     int    `json:"count"`
	Status    string `json:"status"`
}

func statusFor(count int) string {
	switch {
	case count == 0:
		return StatusEmpty
	case count < LowStockThreshold:
		return StatusLow
	default:
		return StatusOK
	}
}
