package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/trialset"
	"github.com/aretw0/trialset/internal/logging"
	"github.com/aretw0/trialset/pkg/domain"
	"github.com/aretw0/trialset/pkg/dsl"
	"github.com/aretw0/trialset/pkg/sequence"
)

func newTestEngine(t *testing.T) *trialset.Engine {
	t.Helper()
	b := dsl.New("rc").Sequence(sequence.Seq(
		sequence.Group("intro"),
		sequence.Randomize(sequence.Group("filler")),
	))
	b.Form("intro").HTML(`<input name="edad">`).Validate("edad", `^\d+$`, "Valor erróneo para ‘edad’")
	b.Judgment("filler", "Juan comió una manzana.")
	b.Judgment("filler", "María leyó el periódico.")
	loader, err := b.Build()
	require.NoError(t, err)

	eng, err := trialset.New("", trialset.WithLoader(loader))
	require.NoError(t, err)
	return eng
}

func newTestHandler(t *testing.T, opts ...Option) http.Handler {
	t.Helper()
	opts = append([]Option{WithLogger(logging.NewNop())}, opts...)
	return NewHandler(newTestEngine(t), opts...)
}

func do(t *testing.T, h http.Handler, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestGetSwagger(t *testing.T) {
	swagger, err := GetSwagger()
	require.NoError(t, err)
	assert.Equal(t, "0.1.0", swagger.Info.Version)
	assert.NotNil(t, swagger.Paths.Value("/plans/{id}"))
}

func TestHealthAndInfo(t *testing.T) {
	h := newTestHandler(t)

	w := do(t, h, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	w = do(t, h, http.MethodGet, "/info", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var info map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &info))
	assert.Equal(t, "trialset-http", info["app"])
	assert.Equal(t, "0.1.0", info["api_version"])
}

func TestGetExperimentAndSequence(t *testing.T) {
	h := newTestHandler(t)

	w := do(t, h, http.MethodGet, "/experiment", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var exp domain.Experiment
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &exp))
	assert.Equal(t, "rc", exp.Name)
	assert.Len(t, exp.Items, 3)

	w = do(t, h, http.MethodGet, "/sequence", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"sequence":"seq(\"intro\", randomize(\"filler\"))"}`, w.Body.String())
}

func TestValidate(t *testing.T) {
	w := do(t, newTestHandler(t), http.MethodPost, "/validate", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"valid":true}`, w.Body.String())
}

func TestCheckField(t *testing.T) {
	h := newTestHandler(t)

	w := do(t, h, http.MethodPost, "/check", CheckRequest{Group: "intro", Field: "edad", Input: "34"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"accepted":true}`, w.Body.String())

	w = do(t, h, http.MethodPost, "/check", CheckRequest{Group: "intro", Field: "edad", Input: "treinta"})
	require.Equal(t, http.StatusOK, w.Code)
	var res CheckResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.False(t, res.Accepted)
	assert.Equal(t, "Valor erróneo para ‘edad’", res.Message)

	w = do(t, h, http.MethodPost, "/check", CheckRequest{Group: "intro", Field: "nombre", Input: "Ana"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	req := httptest.NewRequest(http.MethodPost, "/check", strings.NewReader("{"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPlanLifecycle(t *testing.T) {
	h := newTestHandler(t)

	w := do(t, h, http.MethodPost, "/plans?seed=42&save=true", nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var plan domain.Plan
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &plan))
	assert.Equal(t, uint64(42), plan.Seed)
	require.Len(t, plan.Entries, 3)
	assert.Equal(t, "intro", plan.Entries[0].Item.Group)

	w = do(t, h, http.MethodGet, "/plans", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var ids []string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ids))
	assert.Equal(t, []string{plan.ID}, ids)

	w = do(t, h, http.MethodGet, "/plans/"+plan.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var stored domain.Plan
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stored))
	assert.Equal(t, plan.Indices(), stored.Indices())

	w = do(t, h, http.MethodPost, "/plans/"+plan.ID+"/replay", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(t, h, http.MethodDelete, "/plans/"+plan.ID, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = do(t, h, http.MethodGet, "/plans/"+plan.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreatePlan_Unsaved(t *testing.T) {
	h := newTestHandler(t)

	w := do(t, h, http.MethodPost, "/plans", nil)
	require.Equal(t, http.StatusCreated, w.Code)

	w = do(t, h, http.MethodGet, "/plans", nil)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestCreatePlan_BadSeed(t *testing.T) {
	w := do(t, newTestHandler(t), http.MethodPost, "/plans?seed=abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMetricsMount(t *testing.T) {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("trialset_plans_generated_total 1\n"))
	})
	w := do(t, newTestHandler(t, WithMetrics(metrics)), http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "trialset_plans_generated_total")

	w = do(t, newTestHandler(t), http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCORS(t *testing.T) {
	w := do(t, newTestHandler(t), http.MethodOptions, "/plans", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestOpenAPIDocument(t *testing.T) {
	w := do(t, newTestHandler(t), http.MethodGet, "/openapi.yaml", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "openapi: 3.0.3")
}

type watchEngine struct {
	*trialset.Engine
	reloads chan struct{}
}

func (e *watchEngine) Watch(ctx context.Context) (<-chan struct{}, error) {
	return e.reloads, nil
}

func TestSubscribeEvents(t *testing.T) {
	eng := &watchEngine{Engine: newTestEngine(t), reloads: make(chan struct{}, 1)}
	eng.reloads <- struct{}{}
	close(eng.reloads)

	h := NewHandler(eng, WithLogger(logging.NewNop()))
	w := do(t, h, http.MethodGet, "/events", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))
	body := w.Body.String()
	assert.Contains(t, body, "event: ping")
	assert.Contains(t, body, "event: reload")
}

func TestStreamManager(t *testing.T) {
	sm := NewStreamManager(logging.NewNop())
	ch, cancel := sm.Subscribe(TopicPlans)

	sm.Broadcast(TopicPlans, `{"id":"p1"}`)
	sm.Broadcast("other", "ignored")
	assert.Equal(t, `{"id":"p1"}`, <-ch)

	cancel()
	_, open := <-ch
	assert.False(t, open)
}
