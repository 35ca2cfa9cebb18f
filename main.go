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

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/google/tidynest/core/config"
	"github.com/google/tidynest/core/logging"
	"github.com/google/tidynest/core/models"
	"github.com/google/tidynest/core/pipeline"
	"github.com/google/tidynest/core/rendering"
	"github.com/google/tidynest/core/server"
	"github.com/google/tidynest/core/tables"
	"github.com/google/tidynest/demo"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var configPath string
	flags := config.Default()

	root := &cobra.Command{
		Use:   "tidynest",
		Short: "Fit one linear model per group and print the tidy results",
		Long: `tidynest groups a dataset by key columns, nests each group into a
sub-table, fits response ~ I(predictor - offset) to every sub-table and
flattens the per-group coefficient tables into one result table.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			applyFlags(cmd, &cfg, flags)
			return run(cmd.Context(), cmd.OutOrStdout(), cfg)
		},
	}

	f := root.Flags()
	f.StringVarP(&configPath, "config", "c", "", "YAML config file")
	f.StringVar(&flags.Dataset, "dataset", flags.Dataset, "dataset to analyse")
	f.StringVar(&flags.Filter, "filter", flags.Filter, `keep rows matching an expression, e.g. 'year >= 1960 and continent != "Oceania"'`)
	f.StringSliceVar(&flags.GroupBy, "group-by", flags.GroupBy, "key columns")
	f.StringVar(&flags.Response, "response", flags.Response, "response column")
	f.StringVar(&flags.Predictor, "predictor", flags.Predictor, "predictor column")
	f.Float64Var(&flags.PredictorOffset, "offset", flags.PredictorOffset, "value subtracted from the predictor")
	f.IntVarP(&flags.Parallelism, "parallelism", "p", flags.Parallelism, "groups fitted concurrently")
	f.BoolVar(&flags.Partial, "partial", flags.Partial, "keep going when a group cannot be fitted")
	f.BoolVar(&flags.Union, "union", flags.Union, "allow per-group tables with differing columns")
	f.StringVarP(&flags.Format, "format", "f", flags.Format, "output format: ascii, html or json")
	f.StringVarP(&flags.Stage, "stage", "s", flags.Stage, "table to print: data, nested, fits, tidy, glance, result or summary")
	f.IntVar(&flags.MaxRows, "max-rows", flags.MaxRows, "rows shown in ascii output (0 for all)")
	f.StringVar(&flags.LogLevel, "log-level", flags.LogLevel, "debug, info, warn or error")
	f.StringToStringVar(&flags.Recode, "recode", flags.Recode, "term renames, e.g. (Intercept)=intercept")

	root.AddCommand(newDatasetsCommand(), newServeCommand())
	return root
}

// applyFlags copies the flags the user actually set over cfg, so flags win
// over the config file and the environment.
func applyFlags(cmd *cobra.Command, cfg *config.Config, flags config.Config) {
	changed := cmd.Flags().Changed
	if changed("dataset") {
		cfg.Dataset = flags.Dataset
	}
	if changed("filter") {
		cfg.Filter = flags.Filter
	}
	if changed("group-by") {
		cfg.GroupBy = flags.GroupBy
	}
	if changed("response") {
		cfg.Response = flags.Response
	}
	if changed("predictor") {
		cfg.Predictor = flags.Predictor
	}
	if changed("offset") {
		cfg.PredictorOffset = flags.PredictorOffset
	}
	if changed("parallelism") {
		cfg.Parallelism = flags.Parallelism
	}
	if changed("partial") {
		cfg.Partial = flags.Partial
	}
	if changed("union") {
		cfg.Union = flags.Union
	}
	if changed("format") {
		cfg.Format = flags.Format
	}
	if changed("stage") {
		cfg.Stage = flags.Stage
	}
	if changed("max-rows") {
		cfg.MaxRows = flags.MaxRows
	}
	if changed("log-level") {
		cfg.LogLevel = flags.LogLevel
	}
	if changed("recode") {
		cfg.Recode = flags.Recode
	}
}

func run(ctx context.Context, w io.Writer, cfg config.Config) error {
	logger, err := logging.NewLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	dataModel := models.NewDataModel()
	demo.Register(dataModel)
	data, err := dataModel.MustTable(cfg.Dataset)
	if err != nil {
		return err
	}

	if ctx == nil {
		ctx = context.Background()
	}
	res, err := pipeline.Run(ctx, data, cfg, logger)
	if err != nil {
		logger.Error("pipeline failed", zap.Error(err))
		return err
	}
	out, err := res.Stage(cfg.Stage)
	if err != nil {
		return err
	}
	return write(w, cfg, out)
}

func write(w io.Writer, cfg config.Config, t *tables.DataTable) error {
	switch cfg.Format {
	case config.FormatHTML:
		renderer, err := rendering.NewTableRenderer()
		if err != nil {
			return fmt.Errorf("failed to create renderer: %w", err)
		}
		return renderer.Render(w, fmt.Sprintf("%s: %s", cfg.Dataset, cfg.Stage), t)
	case config.FormatJSON:
		data, err := t.MarshalJSON()
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	default:
		_, err := io.WriteString(w, t.ToAscii(cfg.MaxRows))
		return err
	}
}

func newDatasetsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "datasets",
		Short: "List the built-in datasets and their columns",
		RunE: func(cmd *cobra.Command, args []string) error {
			dataModel := models.NewDataModel()
			demo.Register(dataModel)
			t, err := models.BuildColumnsTable(dataModel)
			if err != nil {
				return err
			}
			_, err = io.WriteString(cmd.OutOrStdout(), t.String())
			return err
		},
	}
}

func newServeCommand() *cobra.Command {
	var configPath string
	flags := config.Default()

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve every pipeline stage as HTML, JSON or text over HTTP",
		Long: `serve exposes /{dataset} for each built-in dataset. URL parameters
(stage, group, filter, format, limit, offset, partial, union and
recode:<term>=<label>) override the configuration per request.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			changed := cmd.Flags().Changed
			if changed("addr") {
				cfg.Addr = flags.Addr
			}
			if changed("log-level") {
				cfg.LogLevel = flags.LogLevel
			}
			if changed("parallelism") {
				cfg.Parallelism = flags.Parallelism
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&configPath, "config", "c", "", "YAML config file")
	f.StringVar(&flags.Addr, "addr", flags.Addr, "listen address")
	f.StringVar(&flags.LogLevel, "log-level", flags.LogLevel, "debug, info, warn or error")
	f.IntVarP(&flags.Parallelism, "parallelism", "p", flags.Parallelism, "groups fitted concurrently")
	return cmd
}

func serve(ctx context.Context, cfg config.Config) error {
	logger, err := logging.NewLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	dataModel := models.NewDataModel()
	demo.Register(dataModel)
	srv, err := server.NewServer(dataModel, cfg, logger)
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", cfg.Addr))
		errc <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
