package settings

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hazyhaar/vidctl/internal/shield"
	"github.com/hazyhaar/vidctl/policy"
)

// Routes returns the HTTP API of the editor:
//
//	GET    /health
//	GET    /api/policy
//	PUT    /api/mode                  {"mode":"include"}
//	GET    /api/domains/{list}
//	POST   /api/domains/{list}        {"domain":"example.com"}
//	DELETE /api/domains/{list}/{domain}
//	GET    /api/check?host=www.example.com
//
// {list} is "excluded", "included" or "active". Every route goes
// through shield.Stack; mws (e.g. BasicAuth) are applied to the /api
// routes only.
func (e *Editor) Routes(mws ...func(http.Handler) http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(shield.Stack(e.logger)...)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Group(func(r chi.Router) {
		for _, mw := range mws {
			r.Use(mw)
		}

		r.Get("/api/policy", func(w http.ResponseWriter, r *http.Request) {
			snap, err := e.Snapshot(r.Context())
			if err != nil {
				writeError(w, r, err)
				return
			}
			writeJSON(w, http.StatusOK, snap)
		})

		r.Put("/api/mode", func(w http.ResponseWriter, r *http.Request) {
			var req struct {
				Mode string `json:"mode"`
			}
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
				return
			}
			m, err := e.SetMode(r.Context(), policy.Mode(req.Mode))
			if err != nil {
				writeError(w, r, err)
				return
			}
			writeJSON(w, http.StatusOK, map[string]string{"mode": string(m)})
		})

		r.Route("/api/domains/{list}", func(r chi.Router) {
			r.Get("/", func(w http.ResponseWriter, r *http.Request) {
				key, domains, err := e.List(r.Context(), listParam(r))
				if err != nil {
					writeError(w, r, err)
					return
				}
				writeJSON(w, http.StatusOK, map[string]any{"list": key, "domains": domains})
			})

			r.Post("/", func(w http.ResponseWriter, r *http.Request) {
				var req struct {
					Domain string `json:"domain"`
				}
				if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
					writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
					return
				}
				key, domain, err := e.AddDomain(r.Context(), listParam(r), req.Domain)
				if err != nil {
					writeError(w, r, err)
					return
				}
				writeJSON(w, http.StatusCreated, map[string]any{"list": key, "domain": domain})
			})

			r.Delete("/{domain}", func(w http.ResponseWriter, r *http.Request) {
				domain := chi.URLParam(r, "domain")
				if _, err := e.RemoveDomain(r.Context(), listParam(r), domain); err != nil {
					writeError(w, r, err)
					return
				}
				w.WriteHeader(http.StatusNoContent)
			})
		})

		r.Get("/api/check", func(w http.ResponseWriter, r *http.Request) {
			host := r.URL.Query().Get("host")
			if host == "" {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "host is required"})
				return
			}
			d, err := e.Check(r.Context(), host)
			if err != nil {
				writeError(w, r, err)
				return
			}
			writeJSON(w, http.StatusOK, d)
		})
	})

	return r
}

// listParam maps the {list} URL segment; "active" selects the current
// mode's list.
func listParam(r *http.Request) string {
	l := chi.URLParam(r, "list")
	if l == "active" {
		return ""
	}
	return l
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := statusOf(err)
	log := shield.GetLogger(r.Context())
	if code >= http.StatusInternalServerError {
		log.Error("settings: request failed", "path", r.URL.Path, "status", code, "error", err)
	} else {
		log.Debug("settings: request rejected", "path", r.URL.Path, "status", code, "error", err)
	}
	writeJSON(w, code, map[string]string{"error": err.Error()})
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, policy.ErrInvalidDomain), errors.Is(err, policy.ErrUnknownList):
		return http.StatusBadRequest
	case errors.Is(err, policy.ErrDuplicateDomain):
		return http.StatusConflict
	case errors.Is(err, policy.ErrDomainNotListed):
		return http.StatusNotFound
	case errors.Is(err, policy.ErrStorageUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
