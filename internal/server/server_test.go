package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/KaramelBytes/churnboard/internal/dashboard"
	"github.com/KaramelBytes/churnboard/internal/dataset"
)

type entry struct {
	ID     string          `json:"id"`
	State  string          `json:"state"`
	Output json.RawMessage `json:"output"`
}

type inputs struct {
	Selection map[string]string `json:"selection"`
	Triggers  map[string]int    `json:"triggers"`
}

type session struct {
	ID      string   `json:"id"`
	Inputs  inputs   `json:"inputs"`
	Views   []entry  `json:"views"`
	Changed []string `json:"changed"`
}

func (s session) view(id string) entry {
	for _, e := range s.Views {
		if e.ID == id {
			return e
		}
	}
	return entry{}
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	return newLoggedServer(t, zap.NewNop())
}

func newLoggedServer(t *testing.T, log *zap.Logger) *httptest.Server {
	t.Helper()
	tbl := dataset.FromRecords(dataset.ColGender, []dataset.Record{
		{Category: "Male", Tenure: 10, MonthlyCharges: 50, TotalCharges: 500, Churn: "Yes", InternetService: "DSL", Contract: "Month-to-month", PaymentMethod: "Electronic check"},
		{Category: "Male", Tenure: 20, MonthlyCharges: 70, TotalCharges: 1400, Churn: "No", InternetService: "Fiber optic", Contract: "One year", PaymentMethod: "Mailed check"},
		{Category: "Female", Tenure: 5, MonthlyCharges: 30, TotalCharges: 150, Churn: "No", InternetService: "DSL", Contract: "Month-to-month", PaymentMethod: "Electronic check"},
	})
	ts := httptest.NewServer(New(dashboard.New(tbl), log))
	t.Cleanup(ts.Close)
	return ts
}

func do(t *testing.T, method, url, body string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	var buf bytes.Buffer
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	return resp, buf.Bytes()
}

func decodeSession(t *testing.T, b []byte) session {
	t.Helper()
	var s session
	require.NoError(t, json.Unmarshal(b, &s))
	return s
}

func TestHealthAndDimensions(t *testing.T) {
	ts := newTestServer(t)
	resp, body := do(t, http.MethodGet, ts.URL+"/healthz", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"rows":3`)

	resp, body = do(t, http.MethodGet, ts.URL+"/api/dimensions", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var dims map[string][]string
	require.NoError(t, json.Unmarshal(body, &dims))
	assert.Equal(t, []string{"All", "Male", "Female"}, dims["gender"])
}

func TestSessionLifecycle(t *testing.T) {
	ts := newTestServer(t)
	resp, body := do(t, http.MethodPost, ts.URL+"/api/sessions", `{"selection":{"gender":"Male"}}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	s := decodeSession(t, body)
	require.NotEmpty(t, s.ID)
	assert.Equal(t, "Male", s.Inputs.Selection["gender"])
	assert.Equal(t, "fresh", s.view(dashboard.ViewInsight).State)
	assert.JSONEq(t, `"For Male customers, average monthly charges are $60.00, average total charges are $950.00."`,
		string(s.view(dashboard.ViewInsight).Output))

	resp, body = do(t, http.MethodPut, ts.URL+"/api/sessions/"+s.ID+"/filters/gender", `{"value":"Female"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	s = decodeSession(t, body)
	assert.Contains(t, s.Changed, dashboard.ViewKPIs)
	assert.NotContains(t, s.Changed, dashboard.ViewHeatmap)
	var k dashboard.KPIs
	require.NoError(t, json.Unmarshal(s.view(dashboard.ViewKPIs).Output, &k))
	assert.Equal(t, 30.0, k.AvgMonthly)

	resp, body = do(t, http.MethodPost, ts.URL+"/api/sessions/"+s.ID+"/triggers/"+dashboard.MoreInsights, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	s = decodeSession(t, body)
	assert.Equal(t, []string{dashboard.ViewMoreInsights}, s.Changed)
	assert.Equal(t, 1, s.Inputs.Triggers[dashboard.MoreInsights])
	assert.Contains(t, string(s.view(dashboard.ViewMoreInsights).Output), "Churn Rate = 0.00%")

	resp, _ = do(t, http.MethodGet, ts.URL+"/api/sessions/"+s.ID, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = do(t, http.MethodDelete, ts.URL+"/api/sessions/"+s.ID, "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp, _ = do(t, http.MethodGet, ts.URL+"/api/sessions/"+s.ID, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSessionsAreIsolated(t *testing.T) {
	ts := newTestServer(t)
	_, body := do(t, http.MethodPost, ts.URL+"/api/sessions", "")
	a := decodeSession(t, body)
	_, body = do(t, http.MethodPost, ts.URL+"/api/sessions", "")
	b := decodeSession(t, body)
	require.NotEqual(t, a.ID, b.ID)

	do(t, http.MethodPut, ts.URL+"/api/sessions/"+b.ID+"/filters/gender", `{"value":"Female"}`)
	_, body = do(t, http.MethodGet, ts.URL+"/api/sessions/"+a.ID, "")
	assert.Equal(t, "Male", decodeSession(t, body).Inputs.Selection["gender"])
}

func TestBadRequests(t *testing.T) {
	ts := newTestServer(t)
	resp, _ := do(t, http.MethodPost, ts.URL+"/api/sessions", `{"selection":{"planet":"Mars"}}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = do(t, http.MethodPost, ts.URL+"/api/sessions", `{not json`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	_, body := do(t, http.MethodPost, ts.URL+"/api/sessions", "")
	s := decodeSession(t, body)
	resp, _ = do(t, http.MethodPut, ts.URL+"/api/sessions/"+s.ID+"/filters/planet", `{"value":"Mars"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = do(t, http.MethodPut, ts.URL+"/api/sessions/missing/filters/gender", `{"value":"Male"}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestTrigger_OnlyMoreInsightsIsAccepted(t *testing.T) {
	ts := newTestServer(t)
	_, body := do(t, http.MethodPost, ts.URL+"/api/sessions", "")
	s := decodeSession(t, body)

	for _, name := range []string{"gender", "Contract", "bogus"} {
		resp, _ := do(t, http.MethodPost, ts.URL+"/api/sessions/"+s.ID+"/triggers/"+name, "")
		assert.Equal(t, http.StatusNotFound, resp.StatusCode, name)
	}
	_, body = do(t, http.MethodGet, ts.URL+"/api/sessions/"+s.ID, "")
	assert.Equal(t, map[string]int{dashboard.MoreInsights: 0}, decodeSession(t, body).Inputs.Triggers)
}

func TestSetFilter_EmptyValueRestoresDefault(t *testing.T) {
	ts := newTestServer(t)
	_, body := do(t, http.MethodPost, ts.URL+"/api/sessions", `{"selection":{"gender":"Female","Contract":"One year"}}`)
	s := decodeSession(t, body)

	do(t, http.MethodPut, ts.URL+"/api/sessions/"+s.ID+"/filters/gender", `{"value":""}`)
	_, body = do(t, http.MethodPut, ts.URL+"/api/sessions/"+s.ID+"/filters/Contract", `{"value":""}`)
	s = decodeSession(t, body)
	assert.Equal(t, "Male", s.Inputs.Selection["gender"])
	assert.Equal(t, "All", s.Inputs.Selection["Contract"])
}

func TestRequests_AreLoggedWithFields(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	ts := newLoggedServer(t, zap.New(core))
	do(t, http.MethodGet, ts.URL+"/healthz", "")

	entries := logs.FilterMessage("request").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "GET", fields["method"])
	assert.Equal(t, "/healthz", fields["path"])
	assert.EqualValues(t, http.StatusOK, fields["status"])
}
