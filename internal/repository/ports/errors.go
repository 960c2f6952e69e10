package ports

import "errors"

// Storage-level sentinels shared by the postgres and memory implementations.
// Driver-specific failures (sql.ErrNoRows, pgconn unique violations) may also
// surface; services normalize both shapes.
var (
	ErrNotFound = errors.New("record not found")
	// ErrConflict signals a compare-and-swap update that matched no row in the
	// expected state.
	ErrConflict = errors.New("record state conflict")
	// ErrSlotCapacity signals a reservation that would push a slot past its
	// headcount.
	ErrSlotCapacity = errors.New("slot capacity exceeded")
	// ErrSlotUnderflow signals a release that would drive an assignment count
	// negative. That is a bookkeeping bug upstream, never clamped.
	ErrSlotUnderflow = errors.New("slot assignment underflow")
)
