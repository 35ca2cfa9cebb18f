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

// Package server serves pipeline stages over HTTP. Every page is a dataset
// plus URL parameters overlaid on the server's base configuration. Pages
// without a format parameter are HTML.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/google/tidynest/core/apply"
	"github.com/google/tidynest/core/config"
	"github.com/google/tidynest/core/grouping"
	"github.com/google/tidynest/core/models"
	"github.com/google/tidynest/core/pipeline"
	"github.com/google/tidynest/core/query"
	"github.com/google/tidynest/core/rendering"
	"github.com/google/tidynest/core/tables"
)

// maxCachedResults bounds the number of pipeline runs kept in memory.
const maxCachedResults = 64

// Server represents the application server with all its dependencies
type Server struct {
	dataModel *models.DataModel
	renderer  *rendering.TableRenderer
	base      config.Config
	logger    *zap.Logger
	metrics   *Metrics

	// Pipeline results by query.PipelineKey, oldest first in cacheOrder
	mu         sync.Mutex
	results    map[string]*pipeline.Result
	cacheOrder []string
	flights    singleflight.Group
}

// NewServer creates a server over the tables of dataModel. Request
// parameters are overlaid on base.
func NewServer(dataModel *models.DataModel, base config.Config, logger *zap.Logger) (*Server, error) {
	renderer, err := rendering.NewTableRenderer()
	if err != nil {
		return nil, fmt.Errorf("failed to create renderer: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		dataModel: dataModel,
		renderer:  renderer,
		base:      base,
		logger:    logger,
		metrics:   NewMetrics(),
		results:   make(map[string]*pipeline.Result),
	}, nil
}

// Metrics returns the server's collectors.
func (s *Server) Metrics() *Metrics {
	return s.metrics
}

// TableHandlerResult represents the result of handling a table request
type TableHandlerResult struct {
	Error      error
	StatusCode int
	Message    string
}

// TimingCollector collects timing measurements for various operations
type TimingCollector struct {
	entries []rendering.TimingEntry
	start   time.Time
}

// NewTimingCollector creates a new timing collector
func NewTimingCollector() *TimingCollector {
	return &TimingCollector{start: time.Now()}
}

// Record records a timing entry
func (tc *TimingCollector) Record(operation string, duration time.Duration) {
	tc.entries = append(tc.entries, rendering.TimingEntry{
		Operation:  operation,
		DurationMs: fmt.Sprintf("%.2f", float64(duration.Microseconds())/1000.0),
	})
}

// GetEntries returns all timing entries
func (tc *TimingCollector) GetEntries() []rendering.TimingEntry {
	return tc.entries
}

// TotalMs returns total elapsed time in milliseconds as formatted string
func (tc *TimingCollector) TotalMs() string {
	return fmt.Sprintf("%.2f", float64(time.Since(tc.start).Microseconds())/1000.0)
}

// Fields returns the entries as log fields.
func (tc *TimingCollector) Fields() []zap.Field {
	fields := make([]zap.Field, 0, len(tc.entries)+1)
	for _, e := range tc.entries {
		fields = append(fields, zap.String(e.Operation, e.DurationMs+"ms"))
	}
	return append(fields, zap.String("total", tc.TotalMs()+"ms"))
}

// HandleTableRequest runs (or reuses) the pipeline a URL describes and
// writes the requested stage to w. It returns nil on success.
func (s *Server) HandleTableRequest(ctx context.Context, w io.Writer, requestURL *url.URL, setHeader func(key, value string)) *TableHandlerResult {
	timing := NewTimingCollector()

	parseStart := time.Now()
	q, err := query.NewQuery(requestURL)
	if err != nil {
		return &TableHandlerResult{StatusCode: 400, Message: err.Error(), Error: err}
	}
	timing.Record("Parse Query", time.Since(parseStart))

	if q.Dataset == "" {
		return &TableHandlerResult{StatusCode: 400, Message: "Dataset is required"}
	}
	data := s.dataModel.GetTable(q.Dataset)
	if data == nil {
		return &TableHandlerResult{StatusCode: 404, Message: fmt.Sprintf("Dataset '%s' not found", q.Dataset)}
	}

	cfg := q.Apply(s.base)
	if q.Format == "" {
		cfg.Format = config.FormatHTML
	}
	if err := cfg.Validate(); err != nil {
		return &TableHandlerResult{StatusCode: 400, Message: err.Error(), Error: err}
	}

	runStart := time.Now()
	res, err := s.pipelineResult(ctx, q.PipelineKey(), data, cfg)
	if err != nil {
		s.logger.Warn("pipeline failed", zap.String("query", q.ToURL()), zap.Error(err))
		return &TableHandlerResult{StatusCode: statusFor(err), Message: err.Error(), Error: err}
	}
	timing.Record("Pipeline", time.Since(runStart))

	out, err := res.Stage(cfg.Stage)
	if err != nil {
		return &TableHandlerResult{StatusCode: 400, Message: err.Error(), Error: err}
	}

	renderStart := time.Now()
	switch cfg.Format {
	case config.FormatJSON:
		setHeader("Content-Type", "application/json")
		payload, err := out.MarshalJSON()
		if err == nil {
			_, err = w.Write(payload)
		}
		if err != nil {
			return &TableHandlerResult{Error: err}
		}
	case config.FormatASCII:
		setHeader("Content-Type", "text/plain; charset=utf-8")
		if _, err := io.WriteString(w, out.ToAscii(cfg.MaxRows)); err != nil {
			return &TableHandlerResult{Error: err}
		}
	default:
		vm := rendering.PageViewModel{
			Title: fmt.Sprintf("%s: %s", cfg.Dataset, cfg.Stage),
			Nav:   s.navigation(q, cfg, res.Data),
			Table: s.renderer.BuildViewModel(out, 0),
		}
		timing.Record("Build ViewModel", time.Since(renderStart))
		vm.RenderTimeMs = timing.TotalMs()
		vm.TimingBreakdown = timing.GetEntries()
		setHeader("Content-Type", "text/html; charset=utf-8")
		if err := s.renderer.RenderPage(w, vm); err != nil {
			s.logger.Error("template rendering error", zap.Error(err))
			return &TableHandlerResult{Error: err}
		}
	}
	timing.Record("Render", time.Since(renderStart))
	s.metrics.Rows.WithLabelValues(cfg.Stage).Observe(float64(out.Length()))
	s.logger.Debug("served table", append([]zap.Field{zap.String("query", q.ToURL())}, timing.Fields()...)...)
	return nil
}

// HandleLandingRequest lists the datasets and their columns.
func (s *Server) HandleLandingRequest(w io.Writer, setHeader func(key, value string)) error {
	columnsTable, err := models.BuildColumnsTable(s.dataModel)
	if err != nil {
		return err
	}
	var links []rendering.LinkViewModel
	for _, name := range s.dataModel.TableNames() {
		q := &query.Query{Dataset: name}
		links = append(links, rendering.LinkViewModel{Label: name, URL: q.ToSafeURL()})
	}
	setHeader("Content-Type", "text/html; charset=utf-8")
	return s.renderer.RenderPage(w, rendering.PageViewModel{
		Title: "tidynest datasets",
		Nav:   [][]rendering.LinkViewModel{links},
		Table: s.renderer.BuildViewModel(columnsTable, 0),
	})
}

// pipelineResult returns the cached result for key, running the pipeline
// at most once per key even under concurrent requests.
func (s *Server) pipelineResult(ctx context.Context, key string, data *tables.DataTable, cfg config.Config) (*pipeline.Result, error) {
	s.mu.Lock()
	res, ok := s.results[key]
	s.mu.Unlock()
	if ok {
		s.metrics.CacheHits.Inc()
		return res, nil
	}

	v, err, _ := s.flights.Do(key, func() (any, error) {
		start := time.Now()
		// Requests sharing this flight must not fail because the first
		// caller went away.
		res, err := pipeline.Run(context.WithoutCancel(ctx), data, cfg, s.logger)
		s.metrics.PipelineSeconds.Observe(time.Since(start).Seconds())
		if err != nil {
			return nil, err
		}
		s.store(key, res)
		return res, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*pipeline.Result), nil
}

func (s *Server) store(key string, res *pipeline.Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.results[key]; ok {
		return
	}
	if len(s.cacheOrder) >= maxCachedResults {
		delete(s.results, s.cacheOrder[0])
		s.cacheOrder = s.cacheOrder[1:]
	}
	s.results[key] = res
	s.cacheOrder = append(s.cacheOrder, key)
}

// navigation builds the stage, format and grouping link rows of a page.
func (s *Server) navigation(q *query.Query, cfg config.Config, data *tables.DataTable) [][]rendering.LinkViewModel {
	var stages, formats, groups []rendering.LinkViewModel
	for _, stage := range config.Stages() {
		stages = append(stages, rendering.LinkViewModel{
			Label:  stage,
			URL:    q.WithStage(stage),
			Active: stage == cfg.Stage,
		})
	}
	for _, format := range config.Formats() {
		formats = append(formats, rendering.LinkViewModel{
			Label:  format,
			URL:    q.WithFormat(format),
			Active: format == cfg.Format,
		})
	}
	for _, name := range data.GetColumnNames() {
		if name == cfg.Response || name == cfg.Predictor {
			continue
		}
		groups = append(groups, rendering.LinkViewModel{
			Label:  "by " + name,
			URL:    q.WithGroupToggled(name, cfg.GroupBy),
			Active: slices.Contains(cfg.GroupBy, name),
		})
	}
	return [][]rendering.LinkViewModel{stages, formats, groups}
}

// statusFor maps pipeline errors to HTTP status codes. Errors caused by
// the data or the request settings are client errors.
func statusFor(err error) int {
	var applyErr *apply.ApplyError
	var mismatch *grouping.SchemaMismatchError
	var groupErr *grouping.GroupingError
	switch {
	case errors.As(err, &applyErr), errors.As(err, &mismatch):
		return 422
	case errors.As(err, &groupErr), errors.Is(err, pipeline.ErrFilter), errors.Is(err, tables.ErrColumnNotFound):
		return 400
	default:
		return 500
	}
}
