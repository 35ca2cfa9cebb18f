/*
SPDX-License-Identifier: Apache-2.0

Copyright 2025 The Tidynest Authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    https://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/google/tidynest/core/config"
	"github.com/google/tidynest/core/models"
	"github.com/google/tidynest/core/pipeline"
	"github.com/google/tidynest/demo"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	dm := models.NewDataModel()
	demo.Register(dm)
	base := config.Default()
	base.PredictorOffset = 1950
	s, err := NewServer(dm, base, nil)
	require.NoError(t, err)
	return s
}

func get(t *testing.T, h http.Handler, path string, params url.Values) *httptest.ResponseRecorder {
	t.Helper()
	target := path
	if len(params) > 0 {
		target += "?" + params.Encode()
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestServeTableFormats(t *testing.T) {
	h := newTestServer(t).Handler()

	t.Run("json", func(t *testing.T) {
		rec := get(t, h, "/scenario", url.Values{"format": {"json"}})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		assert.True(t, json.Valid(rec.Body.Bytes()))
		assert.Contains(t, rec.Body.String(), "Japan")
		assert.Contains(t, rec.Body.String(), "intercept")
	})

	t.Run("ascii", func(t *testing.T) {
		rec := get(t, h, "/scenario", url.Values{"format": {"ascii"}, "stage": {"glance"}})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, "text/plain; charset=utf-8", rec.Header().Get("Content-Type"))
		assert.Contains(t, rec.Body.String(), "| continent |")
		assert.Contains(t, rec.Body.String(), "r_squared")
	})

	t.Run("html by default", func(t *testing.T) {
		rec := get(t, h, "/scenario", nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
		body := rec.Body.String()
		assert.Contains(t, body, "<title>scenario: result</title>")
		assert.Contains(t, body, `href="/scenario?stage=tidy"`)
		assert.Contains(t, body, `href="/scenario?format=json"`)
		assert.Contains(t, body, "by continent")
		assert.NotContains(t, body, "by lifeExp")
		assert.Contains(t, body, "<footer>")
	})
}

func TestServeTableErrors(t *testing.T) {
	h := newTestServer(t).Handler()

	tests := []struct {
		name   string
		path   string
		params url.Values
		want   int
	}{
		{"unknown dataset", "/atlantis", nil, http.StatusNotFound},
		{"unknown stage", "/scenario", url.Values{"stage": {"bogus"}}, http.StatusBadRequest},
		{"bad limit", "/scenario", url.Values{"limit": {"x"}}, http.StatusBadRequest},
		{"unparsable filter", "/scenario", url.Values{"filter": {"year >"}}, http.StatusBadRequest},
		{"filter on unknown column", "/scenario", url.Values{"filter": {"gdp > 0"}}, http.StatusBadRequest},
		{"unknown group key", "/scenario", url.Values{"group": {"planet"}}, http.StatusBadRequest},
		{"group that cannot be fitted", "/scenario", url.Values{"filter": {`!(country == "Japan" and year == 1960)`}}, http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, h, tt.path, tt.params)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
			assert.Equal(t, "text/plain; charset=utf-8", rec.Header().Get("Content-Type"))
		})
	}
}

func TestServeTablePartial(t *testing.T) {
	h := newTestServer(t).Handler()
	rec := get(t, h, "/scenario", url.Values{
		"filter":  {`!(country == "Japan" and year == 1960)`},
		"partial": {"true"},
		"stage":   {"tidy"},
		"format":  {"json"},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "China")
	// Japan is left with one year and stays in the output with its error.
	assert.Contains(t, rec.Body.String(), "fewer observations than coefficients")
}

func TestServeTableJSONError(t *testing.T) {
	h := newTestServer(t).Handler()
	rec := get(t, h, "/atlantis", url.Values{"format": {"json"}})
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")

	var body errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, http.StatusNotFound, body.Status)
	assert.Equal(t, "Dataset 'atlantis' not found", body.Message)
}

func TestPipelineCache(t *testing.T) {
	s := newTestServer(t)
	h := s.Handler()

	for _, stage := range []string{"tidy", "glance", "summary"} {
		rec := get(t, h, "/scenario", url.Values{"stage": {stage}, "format": {"json"}})
		require.Equal(t, http.StatusOK, rec.Code)
	}
	assert.Equal(t, 2.0, testutil.ToFloat64(s.Metrics().CacheHits))
	assert.Len(t, s.results, 1)

	rec := get(t, h, "/scenario", url.Values{"group": {"country"}, "format": {"json"}})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, s.results, 2)
}

func TestPipelineCacheConcurrent(t *testing.T) {
	s := newTestServer(t)
	h := s.Handler()

	var wg sync.WaitGroup
	codes := make([]int, 16)
	for i := range codes {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/gapminder_sample?format=json", nil))
			codes[i] = rec.Code
		}(i)
	}
	wg.Wait()
	for i, code := range codes {
		assert.Equal(t, http.StatusOK, code, "request %d", i)
	}
	assert.Len(t, s.results, 1)
}

func TestStoreEvictsOldest(t *testing.T) {
	s := newTestServer(t)
	for i := 0; i <= maxCachedResults; i++ {
		s.store(fmt.Sprintf("key%d", i), &pipeline.Result{})
	}
	assert.Len(t, s.results, maxCachedResults)
	assert.NotContains(t, s.results, "key0")
	assert.Contains(t, s.results, fmt.Sprintf("key%d", maxCachedResults))
}

func TestLandingAndHealth(t *testing.T) {
	h := newTestServer(t).Handler()

	rec := get(t, h, "/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `href="/gapminder_sample"`)
	assert.Contains(t, body, `href="/scenario"`)
	assert.Contains(t, body, "lifeExp")

	rec = get(t, h, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok\n", rec.Body.String())
}

func TestMetricsEndpoint(t *testing.T) {
	h := newTestServer(t).Handler()
	get(t, h, "/scenario", url.Values{"format": {"json"}})
	get(t, h, "/atlantis", nil)

	rec := get(t, h, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `tidynest_requests_total{code="200",route="/{dataset}"} 1`)
	assert.Contains(t, body, `tidynest_requests_total{code="404",route="/{dataset}"} 1`)
	assert.Contains(t, body, "tidynest_pipeline_duration_seconds_count 1")
	assert.True(t, strings.Contains(body, "go_goroutines"))
}
