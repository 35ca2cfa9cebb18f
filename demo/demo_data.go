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

// Package demo provides small built-in tables for trying out the
// nest/apply/unnest pipeline.
package demo

import (
	"github.com/google/tidynest/core/models"
	"github.com/google/tidynest/core/tables"
)

// Dataset names registered by Register.
const (
	GapminderSample = "gapminder_sample"
	Scenario        = "scenario"
)

var sampleYears = []int64{1952, 1957, 1962, 1967, 1972, 1977, 1982, 1987, 1992, 1997, 2002, 2007}

// life expectancy per country, one value per entry of sampleYears
var sampleLifeExp = []struct {
	continent string
	country   string
	lifeExp   []float64
}{
	{"Asia", "Afghanistan", []float64{28.801, 30.332, 31.997, 34.02, 36.088, 38.438, 39.854, 40.822, 41.674, 41.763, 42.129, 43.828}},
	{"Asia", "China", []float64{44, 50.54896, 44.50136, 58.38112, 63.11888, 63.96736, 65.525, 67.274, 68.69, 70.426, 72.028, 72.961}},
	{"Asia", "Japan", []float64{63.03, 65.5, 68.73, 71.43, 73.42, 75.38, 77.11, 78.67, 79.36, 80.69, 82, 82.603}},
	{"Americas", "Canada", []float64{68.75, 69.96, 71.3, 72.13, 72.88, 74.21, 75.76, 76.86, 77.95, 78.61, 79.77, 80.653}},
	{"Africa", "Rwanda", []float64{40, 41.5, 43, 44.1, 44.6, 45, 46.218, 44.02, 23.599, 36.087, 43.413, 46.242}},
	{"Africa", "Zimbabwe", []float64{48.451, 50.469, 52.358, 53.995, 55.635, 57.674, 60.363, 62.351, 60.377, 46.809, 39.989, 43.487}},
}

// CreateGapminderSample returns a few countries of the Gapminder life
// expectancy panel: continent, country, year, lifeExp.
func CreateGapminderSample() *tables.DataTable {
	b := tables.NewBuilder().String("continent").String("country").Int64("year").Float64("lifeExp")
	for _, c := range sampleLifeExp {
		for i, year := range sampleYears {
			b.AddRow(c.continent, c.country, year, c.lifeExp[i])
		}
	}
	return tables.Must(b.Build())
}

// CreateScenarioTable returns two countries observed in two years each,
// with exact linear trends: China 44 -> 50, Japan 60 -> 68.
func CreateScenarioTable() *tables.DataTable {
	return tables.Must(tables.NewBuilder().
		String("continent").String("country").Int64("year").Float64("lifeExp").
		AddRow("Asia", "China", 1950, 44.0).
		AddRow("Asia", "China", 1960, 50.0).
		AddRow("Asia", "Japan", 1950, 60.0).
		AddRow("Asia", "Japan", 1960, 68.0).
		Build())
}

// Register adds the demo datasets to a data model.
func Register(dm *models.DataModel) {
	dm.AddTable(GapminderSample, CreateGapminderSample())
	dm.AddTable(Scenario, CreateScenarioTable())
}
