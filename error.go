package cardano

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

var (
	ErrInvalidOptions      = fmt.Errorf("invalid options")
	ErrBackendUnavailable  = fmt.Errorf("backend unavailable")
	ErrInsufficientBalance = fmt.Errorf("insufficient balance")
	ErrInsufficientAssets  = fmt.Errorf("insufficient assets")
	ErrCancelled           = fmt.Errorf("cancelled")
	ErrUnhandled           = fmt.Errorf("unhandled error")
	ErrValueOverflow       = fmt.Errorf("value overflow")
	ErrNetworkInvalid      = fmt.Errorf("invalid network")
	ErrInvalidAddress      = fmt.Errorf("invalid address")
	ErrInvalidSigningKey   = fmt.Errorf("invalid signing key")
	ErrInvalidAmount       = fmt.Errorf("invalid amount")
	ErrInvalidAssetId      = fmt.Errorf("invalid asset id")
	ErrRpcFailed           = fmt.Errorf("rpc failed")
)

// AllErrors lists every sentinel a remote caller can map an error string
// back onto.
var AllErrors = []error{
	ErrInvalidOptions,
	ErrBackendUnavailable,
	ErrInsufficientBalance,
	ErrInsufficientAssets,
	ErrCancelled,
	ErrUnhandled,
	ErrValueOverflow,
	ErrNetworkInvalid,
	ErrInvalidAddress,
	ErrInvalidSigningKey,
	ErrInvalidAmount,
	ErrInvalidAssetId,
	ErrRpcFailed,
}

// OptionsError carries every violation found while validating a request, in
// the order they were found.
type OptionsError struct {
	Violations []string
}

func (e *OptionsError) Error() string {
	return strings.Join(e.Violations, "\n")
}

func (e *OptionsError) Is(target error) bool {
	return target == ErrInvalidOptions
}

type AssetShortfall struct {
	Asset     AssetId `json:"asset"`
	Required  uint64  `json:"required"`
	Available uint64  `json:"available"`
}

type InsufficientAssetsError struct {
	Shortfalls []AssetShortfall
}

func (e *InsufficientAssetsError) Error() string {
	parts := make([]string, 0, len(e.Shortfalls))
	for _, s := range e.Shortfalls {
		parts = append(parts, fmt.Sprintf("%s (required %d, available %d)", s.Asset, s.Required, s.Available))
	}
	return fmt.Sprintf("%s: %s", ErrInsufficientAssets, strings.Join(parts, ", "))
}

func (e *InsufficientAssetsError) Is(target error) bool {
	return target == ErrInsufficientAssets
}

type ErrorCategory string

const (
	CategoryNone                ErrorCategory = ""
	CategoryInvalidOptions      ErrorCategory = "invalid-options"
	CategoryBackendUnavailable  ErrorCategory = "backend-unavailable"
	CategoryInsufficientBalance ErrorCategory = "insufficient-balance"
	CategoryInsufficientAssets  ErrorCategory = "insufficient-assets"
	CategoryCancelled           ErrorCategory = "cancelled"
	CategoryUnhandled           ErrorCategory = "unhandled"
)

// Classify maps an error onto the user-facing failure taxonomy. Anything not
// recognised is Unhandled.
func Classify(err error) ErrorCategory {
	switch {
	case err == nil:
		return CategoryNone
	case errors.Is(err, ErrCancelled),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return CategoryCancelled
	case errors.Is(err, ErrInvalidOptions):
		return CategoryInvalidOptions
	case errors.Is(err, ErrBackendUnavailable):
		return CategoryBackendUnavailable
	case errors.Is(err, ErrInsufficientAssets):
		return CategoryInsufficientAssets
	case errors.Is(err, ErrInsufficientBalance):
		return CategoryInsufficientBalance
	default:
		return CategoryUnhandled
	}
}

// UserMessage renders an error for the command line. Unhandled errors get a
// generic message, the caller is expected to log the details.
func UserMessage(err error) string {
	switch Classify(err) {
	case CategoryNone:
		return ""
	case CategoryUnhandled:
		return ErrUnhandled.Error()
	case CategoryCancelled:
		return ErrCancelled.Error()
	default:
		return err.Error()
	}
}
