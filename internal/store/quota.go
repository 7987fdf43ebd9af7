package store

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// QuotaCleanupState signals that a write was refused because storage capacity
// is exhausted. It is distinguished from generic I/O failure so callers can
// branch into cleanup flows instead of retry loops. The failed transaction is
// rolled back; no partial write is committed.
type QuotaCleanupState struct {
	Reason string
	At     time.Time
}

func (q *QuotaCleanupState) Error() string {
	return fmt.Sprintf("storage quota exhausted: %s", q.Reason)
}

// AsQuotaCleanupState extracts a QuotaCleanupState from an error chain.
func AsQuotaCleanupState(err error) (*QuotaCleanupState, bool) {
	var state *QuotaCleanupState
	if errors.As(err, &state) {
		return state, true
	}
	return nil, false
}

var quotaMessageMarkers = []string{
	"database or disk is full",
	"disk is full",
	"sqlite_full",
	"file too large",
}

// mapQuotaError converts a capacity failure into a QuotaCleanupState and
// returns other errors unchanged.
func mapQuotaError(err error, at time.Time) error {
	if err == nil {
		return nil
	}
	message := strings.ToLower(err.Error())
	for _, marker := range quotaMessageMarkers {
		if strings.Contains(message, marker) {
			return &QuotaCleanupState{Reason: err.Error(), At: at}
		}
	}
	return err
}
