package middlewares

import (
	"net/http"
	"strconv"
	"strings"

	"worklogz/source/utils"
)

// CORS_MAX_AGE is how long, in seconds, browsers may cache a preflight.
const CORS_MAX_AGE = 3600

var (
	corsMethods = []string{
		http.MethodGet, http.MethodPost, http.MethodPut,
		http.MethodPatch, http.MethodDelete, http.MethodOptions,
	}
	corsHeaders = []string{"Content-Type", "Authorization", "X-Request-ID"}
)

// Cors answers preflights and tags responses for the configured origins.
// Requests from other origins still reach next but get no allow header.
func Cors(allowedOrigins []string) func(http.Handler) http.Handler {
	methods := strings.Join(corsMethods, ", ")
	headers := strings.Join(corsHeaders, ", ")
	maxAge := strconv.Itoa(CORS_MAX_AGE)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := w.Header()
			header.Add("Vary", "Origin")

			if origin := r.Header.Get("Origin"); utils.OriginAllowed(allowedOrigins, origin) {
				header.Set("Access-Control-Allow-Origin", origin)
				header.Set("Access-Control-Allow-Credentials", "true")
			}

			if r.Method != http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			header.Set("Access-Control-Allow-Methods", methods)
			header.Set("Access-Control-Allow-Headers", headers)
			header.Set("Access-Control-Max-Age", maxAge)
			w.WriteHeader(http.StatusNoContent)
		})
	}
}
