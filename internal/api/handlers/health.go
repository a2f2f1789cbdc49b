// health.go — служебные endpoints: /health/live, /health/ready и /metrics.
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/arinazaikina/hh-vacancy-db/internal/config"
)

const (
	serviceName = "vacancy-api"
	statusOK    = "ok"
	statusFail  = "fail"
)

// ReadinessChecker — проверка одной зависимости.
type ReadinessChecker interface {
	// CheckReady возвращает "ok" или "fail" и пояснение.
	CheckReady() (status, message string)
}

// HealthHandler отдаёт состояние процесса и PostgreSQL.
type HealthHandler struct {
	db      ReadinessChecker
	metrics http.Handler
}

// NewHealthHandler — db может быть nil, тогда readiness всегда "fail".
func NewHealthHandler(db ReadinessChecker) *HealthHandler {
	return &HealthHandler{db: db, metrics: promhttp.Handler()}
}

type checkResult struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// healthResponse — общее тело live и ready; Checks заполняется только в ready.
type healthResponse struct {
	Status    string                 `json:"status"`
	Service   string                 `json:"service"`
	Version   string                 `json:"version"`
	Timestamp string                 `json:"timestamp"`
	Checks    map[string]checkResult `json:"checks,omitempty"`
}

func newHealthResponse(status string) healthResponse {
	return healthResponse{
		Status:    status,
		Service:   serviceName,
		Version:   config.Version,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// HealthLive всегда 200, пока процесс обслуживает запросы.
func (h *HealthHandler) HealthLive(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, newHealthResponse(statusOK))
}

// HealthReady — 200, если соединение с PostgreSQL открывается, иначе 503.
func (h *HealthHandler) HealthReady(w http.ResponseWriter, _ *http.Request) {
	db := checkResult{Status: statusFail, Message: "проверка не настроена"}
	if h.db != nil {
		db.Status, db.Message = h.db.CheckReady()
	}

	resp := newHealthResponse(db.Status)
	resp.Checks = map[string]checkResult{"postgresql": db}

	code := http.StatusOK
	if db.Status != statusOK {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, resp)
}

func (h *HealthHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	h.metrics.ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}
