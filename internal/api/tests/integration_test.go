package tests

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Wikid82/chimera/backend/internal/api/handlers"
	"github.com/Wikid82/chimera/backend/internal/api/routes"
	"github.com/Wikid82/chimera/backend/internal/cerberus"
	"github.com/Wikid82/chimera/backend/internal/classifier"
	"github.com/Wikid82/chimera/backend/internal/config"
	"github.com/Wikid82/chimera/backend/internal/ledger"
	"github.com/Wikid82/chimera/backend/internal/metrics"
	"github.com/Wikid82/chimera/backend/internal/response"
	"github.com/Wikid82/chimera/backend/internal/services"
	"github.com/Wikid82/chimera/backend/internal/simulator"
)

const adminToken = "integration-admin"

func newRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hash, err := services.HashToken(adminToken)
	require.NoError(t, err)
	auth, err := services.NewAuthService(config.AuthConfig{AdminTokenHash: hash, JWTSecret: "it", JWTTTL: time.Hour})
	require.NoError(t, err)

	audit := services.NewAuditService(handlers.OpenTestDB(t))
	registry := prometheus.NewRegistry()
	metrics.Register(registry)

	hub := handlers.NewHub(0)
	t.Cleanup(hub.Close)

	engine := cerberus.New(classifier.New(), response.NewSelector(nil), ledger.New(),
		cerberus.WithSinks(cerberus.MetricsSink(), cerberus.AuditSink(audit), hub))

	r := gin.New()
	require.NoError(t, routes.Register(r, routes.Deps{
		Engine:    engine,
		Audit:     audit,
		Auth:      auth,
		Hub:       hub,
		Simulator: simulator.New(simulator.EngineSender{Engine: engine}, simulator.WithPause(0)),
		Gatherer:  registry,
	}))
	return r
}

func do(r http.Handler, method, path, body, bearer string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// TestIntegration_BlockThenDecoy walks an injection from detection through the
// block list, the audit trail and the metrics endpoint.
func TestIntegration_BlockThenDecoy(t *testing.T) {
	r := newRouter(t)

	w := do(r, http.MethodPost, "/api/v1/request", `{"ip":"203.0.113.7","payload":"' OR '1'='1"}`, "")
	require.Equal(t, http.StatusOK, w.Code)
	var first cerberus.Outcome
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &first))
	assert.Equal(t, cerberus.StatusThreatDetected, first.Status)
	require.NotNil(t, first.Mitigation)
	assert.Equal(t, "MUT-0001", first.Mitigation.ID)
	assert.NotEmpty(t, first.Redirect)

	// the same source is now answered from the block list
	w = do(r, http.MethodPost, "/api/v1/request", `{"ip":"203.0.113.7","payload":"hello"}`, "")
	var second cerberus.Outcome
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &second))
	assert.Equal(t, cerberus.StatusBlocked, second.Status)

	// admin routes need a token
	w = do(r, http.MethodGet, "/api/v1/decisions", "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(r, http.MethodPost, "/api/v1/auth/token", `{"token":"`+adminToken+`"}`, "")
	require.Equal(t, http.StatusOK, w.Code)
	var login struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &login))
	require.NotEmpty(t, login.Token)

	w = do(r, http.MethodGet, "/api/v1/decisions?source=203.0.113.7", "", login.Token)
	require.Equal(t, http.StatusOK, w.Code)
	var decisions struct {
		Count     int `json:"count"`
		Decisions []struct {
			DecisionID string `json:"decision_id"`
			Action     string `json:"action"`
		} `json:"decisions"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &decisions))
	require.Equal(t, 1, decisions.Count)
	assert.Equal(t, "MUT-0001", decisions.Decisions[0].DecisionID)
	assert.Equal(t, "block_source", decisions.Decisions[0].Action)

	w = do(r, http.MethodGet, "/api/v1/logs/recent?count=5", "", login.Token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "BLOCKED")

	w = do(r, http.MethodGet, "/api/v1/metrics", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	for _, name := range []string{"chimera_events_total", "chimera_threats_total", "chimera_mitigations_total", "chimera_blocked_requests_total", "chimera_health_score"} {
		assert.Contains(t, w.Body.String(), name)
	}
}

func TestIntegration_SimulateAndStatus(t *testing.T) {
	r := newRouter(t)

	w := do(r, http.MethodPost, "/api/v1/auth/token", `{"token":"`+adminToken+`"}`, "")
	require.Equal(t, http.StatusOK, w.Code)
	var login struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &login))

	w = do(r, http.MethodPost, "/api/v1/simulate-attack", `{"type":"ddos"}`, login.Token)
	require.Equal(t, http.StatusOK, w.Code)
	var sim struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sim))
	assert.Equal(t, 25, sim.Count)

	w = do(r, http.MethodGet, "/api/v1/status", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	var status cerberus.Status
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.Equal(t, uint64(25), status.TotalRequests)
	// events 21 through 25 trip the rate rule; rate limiting does not block
	assert.Equal(t, uint64(5), status.AttacksBlocked)
	assert.Equal(t, 50, status.Health)
	assert.Empty(t, status.ActiveBlocks)
}
