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

	"github.com/driftbench/driftbench/pkg/sandbox"
	"github.com/driftbench/driftbench/pkg/tasks"
)

var tasksCheck bool

var tasksCmd = &cobra.Command{
	Use:   "tasks",
	Short: "List the task catalogue",
	Long:  `Lists the benchmark task catalogue. With --check, each task's canonical solution is run through the sandbox against the task's fixed cases, a self-test for the catalogue and the evaluator.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "SLUG\tDIFFICULTY\tTYPE\tSYMBOL\tCASES")
		for _, task := range tasks.Catalogue() {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\n",
				task.Slug, task.Difficulty, task.Type, task.ExpectedSymbol, len(task.TestCases))
		}
		if err := w.Flush(); err != nil {
			return err
		}
		if !tasksCheck {
			return nil
		}

		evaluator := sandbox.NewEvaluator(cfg.Benchmark.Python)
		failed := 0
		for _, task := range tasks.Catalogue() {
			res := evaluator.Evaluate(cmd.Context(), task.Canonical, task.ExpectedSymbol, task.TestCases)
			switch {
			case res.Correctness < 1.0:
				failed++
				fmt.Printf("FAIL %-20s %d/%d cases (stage %s)\n",
					task.Slug, res.Passed, res.Total, res.Stage)
			default:
				fmt.Printf("ok   %-20s %d/%d cases\n", task.Slug, res.Passed, res.Total)
			}
		}
		if failed > 0 {
			return fmt.Errorf("%d task(s) failed self-test", failed)
		}
		return nil
	},
}

func init() {
	tasksCmd.Flags().BoolVar(&tasksCheck, "check", false,
		"run each canonical solution through the sandbox")
}
