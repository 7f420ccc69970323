package discovery

import (
	"errors"
	"fmt"

	"github.com/jeanpaul/cookbook/internal/item"
	"github.com/jeanpaul/cookbook/internal/oracle"
)

// ScanError is returned when a scan stops before exhausting its candidates,
// either because the policy said abort or because the context ended.
// Completed counts the pairs answered before Pair.
type ScanError struct {
	Pair        item.Pair
	Completed   int
	Cause       error // *oracle.Failure or a context error
	SnapshotErr error // set when the out-of-band snapshot also failed
}

func (e *ScanError) Error() string {
	msg := fmt.Sprintf("scan stopped at %s after %d pairs: %v", e.Pair, e.Completed, e.Cause)
	if e.SnapshotErr != nil {
		msg += fmt.Sprintf(" (snapshot failed: %v)", e.SnapshotErr)
	}
	return msg
}

func (e *ScanError) Unwrap() []error {
	errs := []error{e.Cause}
	if e.SnapshotErr != nil {
		errs = append(errs, e.SnapshotErr)
	}
	return errs
}

// Failure returns the oracle failure that stopped the scan, if any.
func (e *ScanError) Failure() *oracle.Failure {
	var f *oracle.Failure
	if errors.As(e.Cause, &f) {
		return f
	}
	return nil
}
