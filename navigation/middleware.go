package navigation

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
)

// Middleware emits a navigation Event on e after every successful page
// request: GET or HEAD, a response status below 400, and a client that
// accepts HTML (or sent no Accept header). Asset and API requests that ask
// only for other content types are ignored.
//
//	r := chi.NewRouter()
//	r.Use(navigation.Middleware(emitter))
func Middleware(e *Emitter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !isPageRequest(r) {
				next.ServeHTTP(w, r)
				return
			}

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			if status >= http.StatusBadRequest {
				return
			}

			e.Emit(Event{
				URL:      FullURL(r),
				Path:     r.URL.Path,
				Referrer: r.Referer(),
			})
		})
	}
}

func isPageRequest(r *http.Request) bool {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		return false
	}
	accept := r.Header.Get("Accept")
	return accept == "" || strings.Contains(accept, "text/html") || strings.Contains(accept, "*/*")
}

// FullURL reconstructs the absolute URL of r, honouring X-Forwarded-Proto
// and X-Forwarded-Host when a proxy sits in front of the server.
func FullURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = strings.TrimSpace(strings.Split(proto, ",")[0])
	}

	host := r.Host
	if fwd := r.Header.Get("X-Forwarded-Host"); fwd != "" {
		host = strings.TrimSpace(strings.Split(fwd, ",")[0])
	}

	return scheme + "://" + host + r.URL.RequestURI()
}
