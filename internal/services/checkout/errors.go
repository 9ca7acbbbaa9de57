package checkout

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrValidation       = errors.New("validation failed")
	ErrPlanNotFound     = errors.New("plan not found")
	ErrInvalidPeriod    = errors.New("period must be monthly or yearly")
	ErrAtFirstStep      = errors.New("already at the first step")
	ErrNoNextStep       = errors.New("no next step, complete the payment instead")
	ErrNotReady         = errors.New("payment can only be completed from the confirmation step")
	ErrCompleted        = errors.New("checkout already completed")
	ErrInvalidPromoCode = errors.New("invalid promo code")
	ErrWorkflowNotFound = errors.New("checkout not found or expired")
	ErrInvalidRecipient = errors.New("invalid recipient email")
	ErrUserNotFound     = errors.New("signed-in user no longer exists")
)

// ValidationError lists the fields of one step that failed validation,
// keyed by JSON field name.
type ValidationError struct {
	Step   Step
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return fmt.Sprintf("%s: invalid %s", e.Step, strings.Join(keys, ", "))
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}
