package http

import "net/http"

// RouteRegistrarFunc adapts a function to HTTPTransport.
type RouteRegistrarFunc func(mux *http.ServeMux)

// RegisterRoutes implements HTTPTransport.
func (f RouteRegistrarFunc) RegisterRoutes(mux *http.ServeMux) { f(mux) }

// NewRouter mounts each transport on a fresh mux. Requests matching no route
// get 404 {"message": "Not Found"}.
func NewRouter(transports ...HTTPTransport) *http.ServeMux {
	mux := http.NewServeMux()

	for _, t := range transports {
		t.RegisterRoutes(mux)
	}

	mux.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		_ = WriteJSON(w, http.StatusNotFound, ErrorResponse{Message: "Not Found"})
	})

	return mux
}
