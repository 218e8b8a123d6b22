package handler

import (
	"net/http"

	"github.com/mcoot/sandbag/internal/api/response"
)

// Health handles GET /api/v1/health
func Health(storageType string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response.JSON(w, http.StatusOK, response.Health{Status: "ok", Storage: storageType})
	}
}
