package middleware

import (
	"net/http"

	"github.com/rs/cors"
)

func CORS(origins []string) func(http.Handler) http.Handler {
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}

	handler := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut,
			http.MethodDelete, http.MethodPatch, http.MethodOptions,
		},
		AllowedHeaders: []string{
			"Origin", "X-Requested-With", "Content-Type", "Accept",
			"Authorization", "X-API-Key", "X-CSRF-Token", "X-Request-ID",
		},
		ExposedHeaders:   []string{"X-Total-Count", "X-Page-Count", "X-Request-ID"},
		MaxAge:           86400,
		AllowCredentials: true,
	})

	return handler.Handler
}
