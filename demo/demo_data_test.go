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

package demo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/google/tidynest/core/models"
)

func TestGapminderSample(t *testing.T) {
	dt := CreateGapminderSample()
	assert.Equal(t, []string{"continent", "country", "year", "lifeExp"}, dt.GetColumnNames())
	assert.Equal(t, len(sampleLifeExp)*len(sampleYears), dt.Length())
	for _, c := range sampleLifeExp {
		assert.Len(t, c.lifeExp, len(sampleYears), c.country)
	}
}

func TestRegister(t *testing.T) {
	dm := models.NewDataModel()
	Register(dm)
	require.NotNil(t, dm.GetTable(GapminderSample))
	require.NotNil(t, dm.GetTable(Scenario))
	assert.Equal(t, 4, dm.GetTable(Scenario).Length())
}
