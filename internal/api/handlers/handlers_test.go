package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/Wikid82/chimera/backend/internal/cerberus"
	"github.com/Wikid82/chimera/backend/internal/classifier"
	"github.com/Wikid82/chimera/backend/internal/ledger"
	"github.com/Wikid82/chimera/backend/internal/response"
	"github.com/Wikid82/chimera/backend/internal/util"
)

func newTestEngine(sinks ...cerberus.Sink) *cerberus.Cerberus {
	picker := util.NewSeededPicker(11)
	return cerberus.New(
		classifier.New(),
		response.NewSelector(picker),
		ledger.New(ledger.WithPicker(picker)),
		cerberus.WithSinks(sinks...),
	)
}

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

func doJSON(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v))
	return v
}
