package errors_test

import (
	"fmt"

	"github.com/feelpp/aptforge/pkg/errors"
)

// Example demonstrates basic error creation and checking.
func Example() {
	// A conflict between an incoming artifact and a published one
	err := errors.NewConflictError("mmg", "mmg_5.8.0_amd64.deb", "aaa111", "bbb222")

	// Check error type
	if errors.IsConflict(err) {
		fmt.Println("Conflict detected")
	}

	// Output: Conflict detected
}

// Example_retryable shows how callers decide whether to retry a failed run.
func Example_retryable() {
	err := errors.NewWindowError("stable", "ubuntu-24.04", errors.New("publish interrupted"))

	if errors.IsRetryable(err) {
		fmt.Println("Retry from state recovery")
	}

	// Output: Retry from state recovery
}

// Example_phaseError shows how pipeline failures report unaffected components.
func Example_phaseError() {
	cause := errors.NewConflictError("mmg", "mmg_5.8.0_amd64.deb", "aaa111", "bbb222")
	err := errors.NewPhaseError("stage", "mmg", []string{"feelpp", "parmmg"}, cause)

	fmt.Println(errors.IsConflict(err))
	fmt.Println(errors.IsRetryable(err))

	// Output:
	// true
	// false
}
