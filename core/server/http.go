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
	"bytes"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/google/tidynest/core/config"
)

// errorResponse is the body of failed JSON requests.
type errorResponse struct {
	Status  int    `json:"status"`
	Message string `json:"error"`
}

// Handler returns the HTTP routes of the server.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/", s.serveLanding)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.metrics.Registry, promhttp.HandlerOpts{}))
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})
	r.Get("/{dataset}", s.serveTable)
	return r
}

func (s *Server) serveLanding(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := s.HandleLandingRequest(&buf, w.Header().Set); err != nil {
		s.logger.Error("landing page rendering error", zap.Error(err))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	_, _ = buf.WriteTo(w)
}

func (s *Server) serveTable(w http.ResponseWriter, r *http.Request) {
	// Rendered into a buffer so that a late failure still gets a clean
	// error response.
	var buf bytes.Buffer
	result := s.HandleTableRequest(r.Context(), &buf, r.URL, w.Header().Set)
	if result == nil {
		_, _ = buf.WriteTo(w)
		return
	}

	status := result.StatusCode
	if status == 0 {
		status = http.StatusInternalServerError
	}
	message := result.Message
	if message == "" {
		message = http.StatusText(status)
	}
	w.Header().Del("Content-Type")
	if r.URL.Query().Get("format") == config.FormatJSON {
		render.Status(r, status)
		render.JSON(w, r, errorResponse{Status: status, Message: message})
		return
	}
	http.Error(w, message, status)
}

// logRequests logs every request and counts it by route pattern.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		s.metrics.Requests.WithLabelValues(route, strconv.Itoa(status)).Inc()
		s.logger.Info("request completed",
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", status),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("duration", time.Since(start)))
	})
}
