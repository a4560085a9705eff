// server/internal/matching/errors.go
package matching

import "errors"

// The four recoverable error kinds of the matching engine. Handlers match
// them with errors.Is and map them to HTTP statuses; none is fatal to the
// process. Concurrency conflicts surface as ErrInvalidState because the
// caller cannot tell them apart from "someone else already changed this".
var (
	ErrInvalidState   = errors.New("operation not allowed in current state")
	ErrForbidden      = errors.New("actor is not authorized for this operation")
	ErrDuplicateOffer = errors.New("carrier already has an offer on this shipment")
	ErrNotFound       = errors.New("entity not found")
)
