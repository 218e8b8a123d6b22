package middleware

import (
	"log/slog"
	"net/http"

	"github.com/mcoot/sandbag/internal/api/apierr"
	"github.com/mcoot/sandbag/internal/middleware"
)

// Recovery creates panic recovery middleware for the API.
// Panics become JSON internal-error responses.
func Recovery(logger *slog.Logger) func(http.Handler) http.Handler {
	return middleware.Recovery(logger, apiPanicHandler)
}

func apiPanicHandler(w http.ResponseWriter, _ *http.Request, _ any) {
	apierr.WriteError(w, apierr.NewInternalError())
}
