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

package apply

import (
	"go.uber.org/zap"
)

// ErrorSuffix is appended to the result column name to form the per-row
// error column of partial mode.
const ErrorSuffix = "_error"

type options struct {
	parallelism int
	partial     bool
	keyColumns  []string
	logger      *zap.Logger
}

func defaultOptions() options {
	return options{
		parallelism: 1,
		logger:      zap.NewNop(),
	}
}

// Option configures Map.
type Option func(*options)

// WithParallelism runs up to n invocations at once. Results keep row order
// regardless of n. Values below 1 mean 1.
func WithParallelism(n int) Option {
	return func(o *options) {
		if n < 1 {
			n = 1
		}
		o.parallelism = n
	}
}

// WithPartialResults keeps going when the function fails for some rows.
// Failed rows get a null result and their error message is stored in an
// extra string column named after the result column plus ErrorSuffix.
func WithPartialResults() Option {
	return func(o *options) {
		o.partial = true
	}
}

// WithKeyColumns names the columns reported in an ApplyError. By default
// the key columns of a nested table are used, or failing that every scalar
// column.
func WithKeyColumns(names ...string) Option {
	return func(o *options) {
		o.keyColumns = append([]string(nil), names...)
	}
}

// WithLogger sets the logger used for per-row diagnostics.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}
