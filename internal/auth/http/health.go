package http

import (
	"net/http"
	"time"

	"github.com/instamakaan/makaan/internal/auth/store"
	"github.com/instamakaan/makaan/pkg/authsdk"
	"github.com/instamakaan/makaan/pkg/httpx"
	"github.com/instamakaan/makaan/pkg/jwtx"
	"github.com/instamakaan/makaan/pkg/slogx"
)

const (
	statusOK       = "ok"
	statusDegraded = "degraded"
)

// HealthHandler serves the liveness and readiness probes.
type HealthHandler struct {
	StartTime time.Time
	Version   string
	Store     store.Store
	Keys      *jwtx.KeySet
}

func (h *HealthHandler) base(status string) authsdk.HealthResponse {
	return authsdk.HealthResponse{
		Status:  status,
		Uptime:  time.Since(h.StartTime).Round(time.Second).String(),
		Version: h.Version,
	}
}

// HandleLivez godoc
//
//	@Summary		Liveness probe
//	@Description	Returns 200 while the process is serving requests. Dependencies are not checked.
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	authsdk.HealthResponse	"status, uptime, version"
//	@Router			/livez [get]
func (h *HealthHandler) HandleLivez(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, h.base(statusOK))
}

// HandleReadyz godoc
//
//	@Summary		Readiness probe
//	@Description	Checks the credential store connection and that a signing key is loaded.
//	@Description	Any failing check turns the response into 503 with status "degraded".
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	authsdk.HealthResponse	"status, uptime, version, checks"
//	@Failure		503	{object}	authsdk.HealthResponse	"one or more checks failed"
//	@Router			/readyz [get]
func (h *HealthHandler) HandleReadyz(w http.ResponseWriter, r *http.Request) {
	checks := &authsdk.HealthChecks{Database: statusOK, Signer: statusOK}
	code := http.StatusOK

	if err := h.Store.Ping(r.Context()); err != nil {
		slogx.FromContext(r.Context()).Warn("readiness: store ping failed", "error", err)
		checks.Database = "error: unreachable"
		code = http.StatusServiceUnavailable
	}

	if h.Keys == nil || !h.Keys.IsReady() {
		checks.Signer = "error: no signing key"
		code = http.StatusServiceUnavailable
	}

	resp := h.base(statusOK)
	if code != http.StatusOK {
		resp.Status = statusDegraded
	}
	resp.Checks = checks
	httpx.WriteJSON(w, code, resp)
}
