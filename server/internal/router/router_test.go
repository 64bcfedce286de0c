package router

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"experiment-go/server/internal/config"
	"experiment-go/server/internal/handlers"
	"experiment-go/server/internal/models"
	"experiment-go/server/internal/services"
	"experiment-go/server/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter(t *testing.T, mutate func(*config.Config)) (*gin.Engine, *config.Config) {
	t.Helper()
	log := zaptest.NewLogger(t)

	cfg := &config.Config{
		Server: config.ServerConfig{
			AllowedOrigins:     []string{"https://experiment.example"},
			RateLimitPerMinute: 30,
			MaxBodyMB:          1,
		},
		Storage: config.StorageConfig{DataDir: t.TempDir()},
	}
	if mutate != nil {
		mutate(cfg)
	}

	files, err := storage.NewLocalStore(cfg.Storage.DataDir)
	require.NoError(t, err)
	processor := services.NewProcessor(models.NewCorpus(), 1280, log)

	r := Setup(log, cfg, Handlers{
		Data:    handlers.NewDataHandler(log, processor, files, nil, nil, nil),
		Gaze:    handlers.NewGazeHandler(log, processor),
		Results: handlers.NewResultsHandler(log, nil),
	})
	return r, cfg
}

func serve(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func postJSON(path, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestSetup_Liveness(t *testing.T) {
	r, _ := newTestRouter(t, nil)

	w := serve(r, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Servidor do experimento está funcionando.", w.Body.String())
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))

	w = serve(r, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","database":false,"cloud":false}`, w.Body.String())
}

func TestSetup_CORS(t *testing.T) {
	r, _ := newTestRouter(t, nil)

	req := httptest.NewRequest(http.MethodOptions, "/salvar-dados", nil)
	req.Header.Set("Origin", "https://experiment.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := serve(r, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://experiment.example", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/salvar-dados", nil)
	req.Header.Set("Origin", "https://elsewhere.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w = serve(r, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCorsConfig_Wildcard(t *testing.T) {
	assert.True(t, corsConfig([]string{"*"}).AllowAllOrigins)
	assert.True(t, corsConfig(nil).AllowAllOrigins)

	cfg := corsConfig([]string{"https://a.example"})
	assert.False(t, cfg.AllowAllOrigins)
	assert.Equal(t, []string{"https://a.example"}, cfg.AllowOrigins)
}

func TestSetup_SaveData(t *testing.T) {
	r, cfg := newTestRouter(t, nil)

	w := serve(r, postJSON("/salvar-dados", `{"participant_id":"abc","data":[{"task":"welcome"}]}`))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"success":true,"filename":"dados_participante_abc.json","cloud":"disabled"}`, w.Body.String())

	_, err := os.Stat(filepath.Join(cfg.Storage.DataDir, "dados_participante_abc.json"))
	assert.NoError(t, err)
}

func TestSetup_BodyLimit(t *testing.T) {
	r, _ := newTestRouter(t, nil)

	big := `{"participant_id":"abc","data":[{"task":"` + strings.Repeat("a", 2*bytesPerMB) + `"}]}`
	w := serve(r, postJSON("/salvar-dados", big))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestSetup_RateLimit(t *testing.T) {
	r, _ := newTestRouter(t, func(c *config.Config) { c.Server.RateLimitPerMinute = 2 })

	body := `{"samples":[],"response_time":10}`
	for i := 0; i < 2; i++ {
		w := serve(r, postJSON("/api/v1/gaze/analyze", body))
		require.Equal(t, http.StatusOK, w.Code, "request %d", i)
	}
	w := serve(r, postJSON("/api/v1/gaze/analyze", body))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestSetup_ServeFiles(t *testing.T) {
	r, cfg := newTestRouter(t, nil)
	require.NoError(t, os.WriteFile(filepath.Join(cfg.Storage.DataDir, "f.json"), []byte(`[]`), 0o644))

	w := serve(r, httptest.NewRequest(http.MethodGet, "/dados/f.json", nil))
	assert.Equal(t, http.StatusNotFound, w.Code, "files are hidden by default")

	r, cfg = newTestRouter(t, func(c *config.Config) { c.Storage.ServeFiles = true })
	require.NoError(t, os.WriteFile(filepath.Join(cfg.Storage.DataDir, "f.json"), []byte(`[]`), 0o644))
	w = serve(r, httptest.NewRequest(http.MethodGet, "/dados/f.json", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "[]", w.Body.String())
}

func TestSetup_ResultsWithoutDatabase(t *testing.T) {
	r, _ := newTestRouter(t, nil)
	w := serve(r, httptest.NewRequest(http.MethodGet, "/resultados/abc", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
