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

// Package query maps the URL of a served pipeline page to pipeline
// settings, and builds the URLs of related pages (other stages, other
// groupings) for navigation links.
package query

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/google/safehtml"

	"github.com/google/tidynest/core/columns"
	"github.com/google/tidynest/core/config"
)

// RecodePrefix marks term rename parameters, e.g. recode:(Intercept)=intercept.
const RecodePrefix = "recode:"

// Query represents the parsed state of a pipeline page URL. Unset fields
// leave the server's base configuration unchanged.
type Query struct {
	// Base path, the dataset name with a leading slash (e.g. "/gapminder_sample")
	Path string

	Dataset   string
	Stage     string
	Format    string
	Filter    string
	GroupBy   []string // nil when the parameter is absent, empty for "group="
	Limit     *int
	Offset    *float64
	Partial   *bool
	Union     *bool
	Recode    map[string]string
	Predictor string
	Response  string
}

// NewQuery creates a Query from a request URL.
func NewQuery(u *url.URL) (*Query, error) {
	q := u.Query()
	state := &Query{
		Path:      u.Path,
		Dataset:   strings.Trim(u.Path, "/"),
		Stage:     q.Get("stage"),
		Format:    q.Get("format"),
		Filter:    q.Get("filter"),
		Predictor: q.Get("predictor"),
		Response:  q.Get("response"),
		Recode:    map[string]string{},
	}

	if q.Has("group") {
		state.GroupBy = []string{}
		if groupStr := q.Get("group"); groupStr != "" {
			state.GroupBy = strings.Split(groupStr, ",")
		}
	}

	if limitStr := q.Get("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit < 0 {
			return nil, fmt.Errorf("invalid limit %q", limitStr)
		}
		state.Limit = &limit
	}
	if offsetStr := q.Get("offset"); offsetStr != "" {
		offset, err := strconv.ParseFloat(offsetStr, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid offset %q", offsetStr)
		}
		state.Offset = &offset
	}
	for name, dst := range map[string]**bool{"partial": &state.Partial, "union": &state.Union} {
		if s := q.Get(name); s != "" {
			b, err := columns.ParseBool(s)
			if err != nil {
				return nil, fmt.Errorf("invalid %s %q", name, s)
			}
			*dst = &b
		}
	}

	// Extract recode parameters (format: recode:term=label)
	for key, values := range q {
		if strings.HasPrefix(key, RecodePrefix) && len(values) > 0 {
			state.Recode[strings.TrimPrefix(key, RecodePrefix)] = values[0]
		}
	}
	return state, nil
}

// Apply overlays the query on base.
func (s *Query) Apply(base config.Config) config.Config {
	cfg := base
	if s.Dataset != "" {
		cfg.Dataset = s.Dataset
	}
	if s.Stage != "" {
		cfg.Stage = s.Stage
	}
	if s.Format != "" {
		cfg.Format = s.Format
	}
	if s.Filter != "" {
		cfg.Filter = s.Filter
	}
	if s.Predictor != "" {
		cfg.Predictor = s.Predictor
	}
	if s.Response != "" {
		cfg.Response = s.Response
	}
	if s.GroupBy != nil {
		cfg.GroupBy = append([]string(nil), s.GroupBy...)
	}
	if s.Limit != nil {
		cfg.MaxRows = *s.Limit
	}
	if s.Offset != nil {
		cfg.PredictorOffset = *s.Offset
	}
	if s.Partial != nil {
		cfg.Partial = *s.Partial
	}
	if s.Union != nil {
		cfg.Union = *s.Union
	}
	if len(s.Recode) > 0 {
		cfg.Recode = make(map[string]string, len(s.Recode))
		for k, v := range s.Recode {
			cfg.Recode[k] = v
		}
	}
	return cfg
}

// Clone creates a deep copy of the Query
func (s *Query) Clone() *Query {
	c := *s
	if s.GroupBy != nil {
		c.GroupBy = append([]string{}, s.GroupBy...)
	}
	c.Recode = make(map[string]string, len(s.Recode))
	for k, v := range s.Recode {
		c.Recode[k] = v
	}
	return &c
}

// PipelineKey identifies the pipeline run a query needs. Queries that only
// differ in stage, format or limit share a key.
func (s *Query) PipelineKey() string {
	c := s.Clone()
	c.Stage, c.Format, c.Limit = "", "", nil
	return c.ToURL()
}

// ToURL converts the Query to a URL string with parameters in a fixed order.
func (s *Query) ToURL() string {
	params := url.Values{}
	set := func(key, value string) {
		if value != "" {
			params.Set(key, value)
		}
	}
	set("stage", s.Stage)
	set("format", s.Format)
	set("filter", s.Filter)
	set("predictor", s.Predictor)
	set("response", s.Response)
	if s.GroupBy != nil {
		params.Set("group", strings.Join(s.GroupBy, ","))
	}
	if s.Limit != nil {
		params.Set("limit", strconv.Itoa(*s.Limit))
	}
	if s.Offset != nil {
		params.Set("offset", strconv.FormatFloat(*s.Offset, 'g', -1, 64))
	}
	if s.Partial != nil {
		params.Set("partial", strconv.FormatBool(*s.Partial))
	}
	if s.Union != nil {
		params.Set("union", strconv.FormatBool(*s.Union))
	}
	terms := make([]string, 0, len(s.Recode))
	for term := range s.Recode {
		terms = append(terms, term)
	}
	sort.Strings(terms)
	for _, term := range terms {
		params.Set(RecodePrefix+term, s.Recode[term])
	}

	path := s.Path
	if path == "" {
		path = "/" + s.Dataset
	}
	if len(params) == 0 {
		return path
	}
	// url.Values.Encode sorts by key
	return path + "?" + params.Encode()
}

// ToSafeURL converts the Query to a safehtml.URL
func (s *Query) ToSafeURL() safehtml.URL {
	return safehtml.URLSanitized(s.ToURL())
}

// WithStage returns the URL of the same pipeline showing another stage.
func (s *Query) WithStage(stage string) safehtml.URL {
	c := s.Clone()
	c.Stage = stage
	return c.ToSafeURL()
}

// WithFormat returns the URL of the same page in another output format.
func (s *Query) WithFormat(format string) safehtml.URL {
	c := s.Clone()
	c.Format = format
	return c.ToSafeURL()
}

// WithGroupToggled adds column to the grouping keys, or removes it if it
// is already one. current is the grouping in effect when the query leaves
// it unset.
func (s *Query) WithGroupToggled(column string, current []string) safehtml.URL {
	c := s.Clone()
	keys := current
	if c.GroupBy != nil {
		keys = c.GroupBy
	}
	toggled := make([]string, 0, len(keys)+1)
	found := false
	for _, k := range keys {
		if k == column {
			found = true
			continue
		}
		toggled = append(toggled, k)
	}
	if !found {
		toggled = append(toggled, column)
	}
	c.GroupBy = toggled
	return c.ToSafeURL()
}
