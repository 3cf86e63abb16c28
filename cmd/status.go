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
	"context"
	"fmt"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"ngc-launcher/pkg/config"
	"ngc-launcher/pkg/logging"
	"ngc-launcher/pkg/orchestrator/ngc"
)

var (
	statusConfigFile string
	statusOrg        string
	statusTeam       string
	statusTimeout    time.Duration
)

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().StringVarP(&statusConfigFile, "config", "c", config.DefaultPath, "Path to a YAML defaults file.")
	statusCmd.Flags().StringVar(&statusOrg, "org", "", "NGC organization. Defaults to the ngc CLI configuration.")
	statusCmd.Flags().StringVar(&statusTeam, "team", "", "NGC team. Defaults to the ngc CLI configuration.")
	statusCmd.Flags().DurationVar(&statusTimeout, "timeout", time.Minute, "Upper bound for the status call.")
}

var statusCmd = &cobra.Command{
	Use:   "status <job-id>",
	Short: "Queries the state of a submitted batch job.",
	Long: `The 'status' command asks the NGC batch backend for the current state
of a job. Failures of the remote setup steps (clone, install, tracker
login, training) surface only here, as a failed job status; details are
in the job log on the backend.`,
	Args:         cobra.ExactArgs(1),
	Run:          runStatusCmd,
	SilenceUsage: true,
}

func runStatusCmd(cmd *cobra.Command, args []string) {
	defaults, err := config.LoadIfPresent(afero.NewOsFs(), statusConfigFile)
	if err != nil {
		logging.Fatal("Failed to load defaults: %v", err)
	}
	if !cmd.Flags().Changed("org") {
		statusOrg = defaults.Org
	}
	if !cmd.Flags().Changed("team") {
		statusTeam = defaults.Team
	}

	ctx, cancel := context.WithTimeout(context.Background(), statusTimeout)
	defer cancel()

	status, err := ngc.NewOrchestrator(ngc.Options{Org: statusOrg, Team: statusTeam}).Status(ctx, args[0])
	if err != nil {
		logging.Fatal("ngclaunch status failed: %v", err)
	}
	fmt.Println(status)
}
