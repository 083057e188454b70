package middleware

import (
	"bytes"
	"net/http"
	"time"

	"sjmc-records/internal/platform/cache"

	chimw "github.com/go-chi/chi/v5/middleware"
)

const headerCache = "X-Cache"

// CacheKey es la key bajo la que se guarda una respuesta GET. Las
// invalidaciones buscan por substring ("/api/personal", "/api/stats").
func CacheKey(r *http.Request) string {
	return "GET " + r.URL.RequestURI()
}

// ResponseCache cachea respuestas 200 de GET por URL completa durante ttl.
// Si hubo una invalidación mientras se calculaba la respuesta, no se guarda.
// metrics puede ser nil.
func ResponseCache(store *cache.GuardedStore, ttl time.Duration, metrics *Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if store == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				next.ServeHTTP(w, r)
				return
			}

			key := CacheKey(r)
			if body, ok := store.Get(r.Context(), key); ok {
				metrics.cacheLookup("hit")
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set(headerCache, "HIT")
				w.WriteHeader(http.StatusOK)
				_, _ = w.Write(body)
				return
			}
			metrics.cacheLookup("miss")
			gen := store.Generation()

			w.Header().Set(headerCache, "MISS")
			var buf bytes.Buffer
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			ww.Tee(&buf)

			next.ServeHTTP(ww, r)

			if ww.Status() == http.StatusOK {
				store.SetIfGeneration(r.Context(), gen, key, buf.Bytes(), ttl)
			}
		})
	}
}
