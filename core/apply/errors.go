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
	"fmt"
	"strings"
)

// ApplyError reports the first row for which the mapped function failed.
type ApplyError struct {
	Column string   // source column
	Row    int      // row index in the input table
	Key    []string // display values of the key columns of that row
	Err    error
}

func (e *ApplyError) Error() string {
	key := ""
	if len(e.Key) > 0 {
		key = fmt.Sprintf(" (group %s)", strings.Join(e.Key, "/"))
	}
	return fmt.Sprintf("apply over %q failed at row %d%s: %v", e.Column, e.Row, key, e.Err)
}

func (e *ApplyError) Unwrap() error {
	return e.Err
}
