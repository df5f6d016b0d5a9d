package toolcall

import (
	"errors"
	"fmt"

	"github.com/PabloGalante/staffdesk/internal/domain"
)

var errMissingField = errors.New("missing field")

// Rejection explains why a well-formed action cannot be applied.
type Rejection struct {
	Kind   domain.ActionKind
	Reason string
}

func (r *Rejection) Error() string {
	return fmt.Sprintf("%s rejected: %s", r.Kind, r.Reason)
}

func reject(kind domain.ActionKind, format string, args ...any) *Rejection {
	return &Rejection{Kind: kind, Reason: fmt.Sprintf(format, args...)}
}

// AsRejection reports whether err is a Rejection and returns it.
func AsRejection(err error) (*Rejection, bool) {
	var r *Rejection
	if errors.As(err, &r) {
		return r, true
	}
	return nil, false
}
