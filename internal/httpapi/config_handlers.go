package httpapi

import (
	"io"
	"net/http"
	"net/url"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"jobfinder-engine/internal/config"
	"jobfinder-engine/internal/errors"
)

// ConfigHandler exposes the running configuration as YAML. Saved changes
// take effect on the next start.
type ConfigHandler struct {
	Deps Deps
}

func (h ConfigHandler) Get(w http.ResponseWriter, r *http.Request) {
	b, err := yaml.Marshal(Redact(h.Deps.Cfg))
	if err != nil {
		h.Deps.WriteDomainError(w, r, errors.Internal("encode config", err))
		return
	}
	w.Header().Set("Content-Type", "application/yaml")
	_, _ = w.Write(b)
}

func (h ConfigHandler) Put(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		h.Deps.WriteDomainError(w, r, errors.InvalidInput("read body", err))
		return
	}

	incoming := config.Default()
	if err := yaml.Unmarshal(body, &incoming); err != nil {
		h.Deps.WriteDomainError(w, r, errors.InvalidInput("invalid YAML: "+err.Error(), err))
		return
	}

	normalized, vr := config.NormalizeAndValidate(incoming)
	if !vr.OK() {
		WriteJSON(w, http.StatusBadRequest, vr)
		return
	}
	if err := config.SaveAtomic(h.Deps.UserCfgPath, normalized); err != nil {
		h.Deps.WriteDomainError(w, r, errors.Unavailable("save config", err))
		return
	}
	writeJSON(w, map[string]any{"ok": true, "restart_required": true, "warnings": vr.Warnings})
}

func (h ConfigHandler) Path(w http.ResponseWriter, r *http.Request) {
	abs, _ := filepath.Abs(h.Deps.UserCfgPath)
	writeJSON(w, map[string]any{"path": abs})
}

func (h ConfigHandler) Validate(w http.ResponseWriter, r *http.Request) {
	_, vr := config.NormalizeAndValidate(h.Deps.Cfg)
	writeJSON(w, vr)
}

// Redact masks passwords embedded in connection URLs.
func Redact(cfg config.Config) config.Config {
	cfg.Store.DSN = redactURL(cfg.Store.DSN)
	cfg.Redis.URL = redactURL(cfg.Redis.URL)
	cfg.NATS.URL = redactURL(cfg.NATS.URL)
	return cfg
}

func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.User == nil {
		return raw
	}
	return u.Redacted()
}
