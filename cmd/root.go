// Copyright 2026 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cmd

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"ngc-launcher/pkg/logging"
)

var debugMode bool

var rootCmd = &cobra.Command{
	Use:   "ngclaunch",
	Short: "ngclaunch submits GPU training jobs to the NGC batch backend.",
	Long: `ngclaunch assembles the remote setup-and-train command for a pinned
NeMo revision and submits it as a batch job through the ngc CLI. The
ngc CLI must be installed and authenticated.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.SetDebug(debugMode)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging.")
}

// Execute runs the CLI. The process exit status mirrors the outcome of
// the invoked command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		errText := "Error: " + err.Error()
		if isatty.IsTerminal(os.Stderr.Fd()) {
			errText = color.New(color.FgRed, color.Bold).Sprint(errText)
		}
		fmt.Fprintln(os.Stderr, errText)
		os.Exit(1)
	}
}
