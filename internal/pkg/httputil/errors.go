package httputil

import (
	"context"
	"errors"
	"net/http"

	"github.com/bissquit/statusboard/internal/pkg/ctxlog"
)

// ErrorMapping ties a sentinel error to the status and message clients see.
type ErrorMapping struct {
	Error   error
	Status  int
	Message string // if empty, uses err.Error()
}

// Resolve finds the first mapping matching err. ok is false when err is not
// a known domain error.
func Resolve(err error, mappings []ErrorMapping) (status int, message string, ok bool) {
	for _, m := range mappings {
		if !errors.Is(err, m.Error) {
			continue
		}
		if m.Message == "" {
			return m.Status, err.Error(), true
		}
		return m.Status, m.Message, true
	}
	return http.StatusInternalServerError, "internal server error", false
}

// HandleError writes the response for err. Unmapped errors are logged with
// the request logger and hidden behind a generic 500.
func HandleError(ctx context.Context, w http.ResponseWriter, err error, mappings []ErrorMapping) {
	status, message, ok := Resolve(err, mappings)
	if !ok {
		ctxlog.FromContext(ctx).Error("internal error", "error", err)
	}
	Error(w, status, message)
}
