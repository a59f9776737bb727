package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

// exposedHeaders are the image metadata headers clients may read cross-origin
var exposedHeaders = []string{
	"X-Request-ID",
	"X-Cache",
	"X-Original-Hash", "X-Original-Size", "X-Original-Mime", "X-Original-Extension",
	"X-Upload-Time", "X-Access-Count",
	"X-Final-Mime", "X-Final-Size",
	"X-Transform-Applied", "X-Transform-Width", "X-Transform-Height", "X-Transform-Format",
	"X-Transform-Quality", "X-Transform-Noalpha", "X-Transform-Background", "X-Transform-Params",
	"X-Gif-First-Frame", "X-Output-Format", "X-Served-By", "X-Response-Time",
}

// CORSHandler returns a configured CORS handler for Chi
func CORSHandler(allowedOrigins []string) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   exposedHeaders,
		AllowCredentials: false,
		MaxAge:           300, // 5 minutes
	})
}
