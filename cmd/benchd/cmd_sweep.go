// Copyright 2026 Teradata
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/driftbench/driftbench/pkg/bench"
	"github.com/driftbench/driftbench/pkg/llm/factory"
	"github.com/driftbench/driftbench/pkg/sandbox"
	"github.com/driftbench/driftbench/pkg/types"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run a single benchmark sweep and print the score table",
	Long:  `Runs one hourly-suite sweep over the ranked models and prints the resulting scores. Set BATCH_TIMESTAMP for a deterministic task selection and prompt envelope.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		s, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = s.Close() }()

		registry, err := factory.NewRegistry(factory.Config{})
		if err != nil {
			return err
		}
		orch := bench.New(bench.Options{
			Registry:    registry,
			Store:       s,
			Evaluator:   sandbox.NewEvaluator(cfg.Benchmark.Python),
			Calibration: cfg.Calibration(),
			CanaryOff:   cfg.Benchmark.CanaryMode == "off",
		})
		if err := runSweepOnce(ctx, s, orch); err != nil {
			return err
		}

		models, err := s.ListModels(ctx, true)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "MODEL\tVENDOR\tSCORE\tNOTE")
		for _, m := range models {
			latest, err := s.LatestScore(ctx, m.ID, types.SuiteHourly)
			if err != nil {
				fmt.Fprintf(w, "%s\t%s\t-\tno score\n", m.Name, m.Vendor)
				continue
			}
			fmt.Fprintf(w, "%s\t%s\t%.1f\t%s\n", m.Name, m.Vendor, latest.StupidScore, latest.Note)
		}
		return w.Flush()
	},
}
