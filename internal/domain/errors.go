package domain

import (
	"errors"
	"fmt"
)

// RejectKind discriminates why an order or player action was refused.
type RejectKind int

const (
	RejectInvalidQuantity RejectKind = iota + 1
	RejectInvalidPrice
	RejectPriceOutOfBand
	RejectInsufficientCash
	RejectInsufficientInventory
	RejectUnknownItem
	RejectUnknownPlayer
	RejectWrongPhase
	RejectTradeBanned
	RejectNoGovEvent
	RejectNotGovTarget
	RejectGovPriceTooHigh
	RejectNotRawMaterial
)

// String returns the stable identifier used in logs and metric labels.
func (k RejectKind) String() string {
	switch k {
	case RejectInvalidQuantity:
		return "invalid_quantity"
	case RejectInvalidPrice:
		return "invalid_price"
	case RejectPriceOutOfBand:
		return "price_out_of_band"
	case RejectInsufficientCash:
		return "insufficient_cash"
	case RejectInsufficientInventory:
		return "insufficient_inventory"
	case RejectUnknownItem:
		return "unknown_item"
	case RejectUnknownPlayer:
		return "unknown_player"
	case RejectWrongPhase:
		return "wrong_phase"
	case RejectTradeBanned:
		return "trade_banned"
	case RejectNoGovEvent:
		return "no_gov_event"
	case RejectNotGovTarget:
		return "not_gov_target"
	case RejectGovPriceTooHigh:
		return "gov_price_too_high"
	case RejectNotRawMaterial:
		return "not_raw_material"
	default:
		return "unknown"
	}
}

// RejectionError is an expected, non-fatal refusal. State is never mutated
// when one is returned.
type RejectionError struct {
	Kind    RejectKind
	Message string
}

func (e *RejectionError) Error() string {
	return e.Kind.String() + ": " + e.Message
}

// Reject builds a RejectionError with a formatted message.
func Reject(kind RejectKind, format string, args ...any) *RejectionError {
	return &RejectionError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the RejectKind wrapped in err, or 0 if err is not a rejection.
func KindOf(err error) RejectKind {
	var re *RejectionError
	if errors.As(err, &re) {
		return re.Kind
	}
	return 0
}

// IntegrityError reports state that cannot exist if upstream code is correct,
// e.g. an order that references a player who is no longer registered.
type IntegrityError struct {
	Op       string
	PlayerID string
	ItemID   string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("integrity violation in %s: player=%q item=%q", e.Op, e.PlayerID, e.ItemID)
}

// ConfigError represents a configuration or catalog error (never retriable)
type ConfigError struct {
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	return "config error [" + e.Field + "]: " + e.Err.Error()
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

var (
	// ErrGameOver is returned by any turn operation once final scoring has run.
	ErrGameOver = errors.New("game over")

	// ErrWrongPhase is returned when an operation is not allowed in the current phase.
	ErrWrongPhase = errors.New("wrong phase")

	// ErrPlayerNotFound is returned when a player id is not registered.
	ErrPlayerNotFound = errors.New("player not found")

	// ErrUnknownItem is returned when an item id is not in the catalog.
	ErrUnknownItem = errors.New("unknown item")

	// ErrConfigNotFound is returned when configuration file is missing
	ErrConfigNotFound = errors.New("configuration not found")
)
