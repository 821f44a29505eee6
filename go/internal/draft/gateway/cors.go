package gateway

import (
	"net/http"

	"github.com/rs/cors"
)

// NewCORS builds the cross-origin policy for browser clients. Connect needs
// its protocol headers exposed; websocket upgrades are checked separately by
// ConnectionConfig.CheckOrigin.
func NewCORS(allowedOrigins []string) *cors.Cors {
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	return cors.New(cors.Options{
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodPatch,
			http.MethodDelete,
		},
		AllowedOrigins: allowedOrigins,
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{"Connect-Protocol-Version", "Grpc-Status", "Grpc-Message"},
		MaxAge:         86400,
	})
}
