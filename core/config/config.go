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

// Package config loads the settings of the tidynest command. Values are
// layered: defaults, then a YAML file, then TIDYNEST_* environment
// variables, then command-line flags.
package config

import (
	"fmt"
	"os"
	"slices"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/google/tidynest/core/expr"
)

// EnvPrefix is the prefix of every environment variable read by Load.
const EnvPrefix = "TIDYNEST"

// Output formats
const (
	FormatASCII = "ascii"
	FormatHTML  = "html"
	FormatJSON  = "json"
)

// Pipeline stages that can be printed
const (
	StageData    = "data"
	StageNested  = "nested"
	StageFits    = "fits"
	StageTidy    = "tidy"
	StageGlance  = "glance"
	StageResult  = "result"
	StageSummary = "summary"
)

var (
	formats = []string{FormatASCII, FormatHTML, FormatJSON}
	stages  = []string{StageData, StageNested, StageFits, StageTidy, StageGlance, StageResult, StageSummary}
)

type Config struct {
	Dataset         string            `yaml:"dataset" envconfig:"DATASET"`
	Filter          string            `yaml:"filter" envconfig:"FILTER"`
	GroupBy         []string          `yaml:"group_by" envconfig:"GROUP_BY"`
	Response        string            `yaml:"response" envconfig:"RESPONSE"`
	Predictor       string            `yaml:"predictor" envconfig:"PREDICTOR"`
	PredictorOffset float64           `yaml:"predictor_offset" envconfig:"PREDICTOR_OFFSET"`
	Parallelism     int               `yaml:"parallelism" envconfig:"PARALLELISM"`
	Partial         bool              `yaml:"partial" envconfig:"PARTIAL"`
	Union           bool              `yaml:"union" envconfig:"UNION"`
	Format          string            `yaml:"format" envconfig:"FORMAT"`
	Stage           string            `yaml:"stage" envconfig:"STAGE"`
	MaxRows         int               `yaml:"max_rows" envconfig:"MAX_ROWS"`
	LogLevel        string            `yaml:"log_level" envconfig:"LOG_LEVEL"`
	Recode          map[string]string `yaml:"recode" envconfig:"RECODE"`

	// Listen address of the serve command
	Addr string `yaml:"addr" envconfig:"ADDR"`
}

// Default returns the settings of the life-expectancy walkthrough.
func Default() Config {
	return Config{
		Dataset:         "gapminder_sample",
		GroupBy:         []string{"continent", "country"},
		Response:        "lifeExp",
		Predictor:       "year",
		PredictorOffset: 1952,
		Parallelism:     1,
		Format:          FormatASCII,
		Stage:           StageResult,
		LogLevel:        "info",
		Addr:            "127.0.0.1:8097",
	}
}

// Stages returns the printable stages in pipeline order.
func Stages() []string {
	return slices.Clone(stages)
}

// Formats returns the supported output formats.
func Formats() []string {
	return slices.Clone(formats)
}

// Load returns the defaults overlaid with the YAML file at path (if not
// empty) and the environment.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to read environment: %w", err)
	}
	return cfg, nil
}

// Validate checks that the settings describe a runnable pipeline.
func (c Config) Validate() error {
	if c.Dataset == "" {
		return fmt.Errorf("dataset is required")
	}
	if c.Response == "" || c.Predictor == "" {
		return fmt.Errorf("response and predictor are required")
	}
	if c.Parallelism < 1 {
		return fmt.Errorf("parallelism must be at least 1, got %d", c.Parallelism)
	}
	if !slices.Contains(formats, c.Format) {
		return fmt.Errorf("unknown format %q (want one of %v)", c.Format, formats)
	}
	if !slices.Contains(stages, c.Stage) {
		return fmt.Errorf("unknown stage %q (want one of %v)", c.Stage, stages)
	}
	if slices.Contains(c.GroupBy, c.Response) || slices.Contains(c.GroupBy, c.Predictor) {
		return fmt.Errorf("model columns cannot also be grouping keys")
	}
	if c.Filter != "" {
		if _, err := expr.Compile(c.Filter); err != nil {
			return fmt.Errorf("invalid filter: %w", err)
		}
	}
	return nil
}
