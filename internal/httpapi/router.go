package httpapi

import "net/http"

// NewMux registers every route without middleware.
func NewMux(d Deps) *http.ServeMux {
	mux := http.NewServeMux()

	hh := HealthHandler{Deps: d}
	mux.HandleFunc("/health", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: hh.Health,
	}))

	// Interactive search
	sh := SearchHandler{Deps: d}
	mux.HandleFunc("/search", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: sh.Search,
	}))

	// Saved searches
	ssh := SavedSearchHandler{Deps: d}
	mux.HandleFunc("/searches", methodMux(map[string]http.HandlerFunc{
		http.MethodGet:  ssh.List,
		http.MethodPost: ssh.Create,
	}))
	mux.HandleFunc("/searches/", methodMux(map[string]http.HandlerFunc{
		http.MethodDelete: ssh.DeleteByPath, // expects /searches/{id}
	}))

	// Poller
	ph := PollHandler{Deps: d}
	mux.HandleFunc("/poll/status", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: ph.Status,
	}))
	mux.HandleFunc("/poll/run", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: ph.Run,
	}))

	// Config
	ch := ConfigHandler{Deps: d}
	mux.HandleFunc("/config", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: ch.Get,
		http.MethodPut: ch.Put,
	}))
	mux.HandleFunc("/config/path", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: ch.Path,
	}))
	mux.HandleFunc("/config/validate", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: ch.Validate,
	}))

	// Secrets
	sech := SecretsHandler{Token: d.Token, Deps: d}
	mux.HandleFunc("/api/secrets/token", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: sech.SetAPIToken,
	}))

	// SSE events
	eh := EventsHandler{Hub: d.Hub}
	mux.HandleFunc("/events", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: eh.ServeSSE,
	}))

	return mux
}

// NewHandler wraps the routes in the standard middleware stack.
func NewHandler(d Deps) http.Handler {
	log := d.log()
	return Chain(NewMux(d),
		RequestID,
		Recover(log),
		AccessLog(log),
		Cors,
		Auth(d.Token),
	)
}
