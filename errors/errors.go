package errors

import "fmt"

var (
	ErrWorkerPanic       = fmt.Errorf("worker panic")
	ErrMalformedEnvelope = fmt.Errorf("malformed envelope")
	ErrDuplicateSession  = fmt.Errorf("duplicate session id")
	ErrBusClosed         = fmt.Errorf("bus closed")
	ErrOutboxClosed      = fmt.Errorf("outbox closed")
	ErrNotAFile          = fmt.Errorf("not a regular file")
)

// Lagged reports that a bus subscriber fell behind the ring capacity and
// lost Missed postings. It is fatal for the affected subscription only.
type Lagged struct {
	Missed uint64
}

func (l Lagged) Error() string {
	return fmt.Sprintf("subscriber lagged: %d postings dropped", l.Missed)
}
