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
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"ngc-launcher/pkg/config"
	"ngc-launcher/pkg/gitref"
	"ngc-launcher/pkg/logging"
	"ngc-launcher/pkg/orchestrator"
	"ngc-launcher/pkg/orchestrator/ngc"
	"ngc-launcher/pkg/remotecmd"
)

var (
	configFile     string
	wandbAPIKey    string
	wandbSecretRef string
	instanceType   string
	jobName        string
	containerImage string
	resultPath     string
	datasets       []string
	overrides      map[string]string
	gpus           int
	experimentName string
	configName     string
	branch         string
	org            string
	team           string
	submitTimeout  time.Duration
	skipRefCheck   bool
	dryRun         bool
)

func init() {
	rootCmd.AddCommand(submitCmd)

	submitCmd.Flags().StringVarP(&configFile, "config", "c", config.DefaultPath, "Path to a YAML defaults file.")
	submitCmd.Flags().StringVar(&wandbAPIKey, "wandb-api-key", "", "Weights & Biases API key. Falls back to the "+remotecmd.WandbKeyEnvVar+" environment variable.")
	submitCmd.Flags().StringVar(&wandbSecretRef, "wandb-secret", "", "Name of an NGC-stored secret holding the Weights & Biases key. When set, the key is injected by the backend and never appears in the remote command.")
	submitCmd.Flags().StringVarP(&instanceType, "instance", "i", "", "NGC compute shape to request (e.g. 'dgx1v.32g.8.norm').")
	submitCmd.Flags().StringVarP(&jobName, "name", "n", "", "Display name of the batch job. A random suffix name is generated when empty.")
	submitCmd.Flags().StringVar(&containerImage, "image", "", "Container image to run the job in (e.g. 'nvidia/pytorch:21.10-py3').")
	submitCmd.Flags().StringVar(&resultPath, "result", "", "Mount path for the job's output artifacts.")
	submitCmd.Flags().StringArrayVarP(&datasets, "dataset", "d", nil, "Dataset binding as 'id:mountPath'. Repeatable.")
	submitCmd.Flags().StringToStringVarP(&overrides, "override", "o", nil, "Training config override as 'key=value'. Repeatable.")
	submitCmd.Flags().IntVarP(&gpus, "gpus", "g", 0, "Shorthand for the 'trainer.gpus' override.")
	submitCmd.Flags().StringVar(&experimentName, "exp-name", "", "Shorthand for the experiment tracker run name override.")
	submitCmd.Flags().StringVar(&configName, "config-name", "", "Training config name passed to the entry point.")
	submitCmd.Flags().StringVar(&branch, "branch", "", "Revision of the training repo to clone.")
	submitCmd.Flags().StringVar(&org, "org", "", "NGC organization. Defaults to the ngc CLI configuration.")
	submitCmd.Flags().StringVar(&team, "team", "", "NGC team. Defaults to the ngc CLI configuration.")
	submitCmd.Flags().DurationVar(&submitTimeout, "timeout", 5*time.Minute, "Upper bound for the submission call.")
	submitCmd.Flags().BoolVar(&skipRefCheck, "skip-ref-check", false, "Skip the pre-flight check that the pinned revision exists on the training repo.")
	submitCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the assembled remote command instead of submitting.")
}

var submitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Submits a training job to the NGC batch backend.",
	Long: `The 'submit' command assembles the remote shell program (clone the
pinned training repo, install its dependency manifests, log in to the
experiment tracker, run the training entry point) and schedules it via
'ngc batch run'.

Submission is fire-and-forget: a returned job id means the backend
accepted the job. Failures inside the remote script surface only in the
job's status and log; use 'ngclaunch status <job-id>' to query it.`,
	Run:          runSubmitCmd,
	SilenceUsage: true,
}

func runSubmitCmd(cmd *cobra.Command, args []string) {
	defaults, err := config.LoadIfPresent(afero.NewOsFs(), configFile)
	if err != nil {
		logging.Fatal("Failed to load defaults: %v", err)
	}

	// Flags win over file values, file values over built-ins.
	resolve := func(flagName, flagValue, defaultValue string) string {
		if cmd.Flags().Changed(flagName) {
			return flagValue
		}
		return defaultValue
	}
	instanceType = resolve("instance", instanceType, defaults.InstanceType)
	containerImage = resolve("image", containerImage, defaults.Image)
	resultPath = resolve("result", resultPath, defaults.ResultPath)
	org = resolve("org", org, defaults.Org)
	team = resolve("team", team, defaults.Team)
	if !cmd.Flags().Changed("dataset") {
		datasets = defaults.Datasets
	}

	training := defaults.Training
	training.ConfigName = resolve("config-name", configName, training.ConfigName)
	training.Branch = resolve("branch", branch, training.Branch)
	training.ResultDir = resultPath

	merged := map[string]string{}
	for k, v := range defaults.Overrides {
		merged[k] = v
	}
	for k, v := range overrides {
		merged[k] = v
	}
	if cmd.Flags().Changed("gpus") {
		merged["trainer.gpus"] = strconv.Itoa(gpus)
	}
	if experimentName != "" {
		merged["exp_manager.wandb_logger_kwargs.name"] = experimentName
	}

	apiKey := wandbAPIKey
	if apiKey == "" {
		apiKey = os.Getenv(remotecmd.WandbKeyEnvVar)
	}
	useSecretRef := wandbSecretRef != ""
	if !useSecretRef && strings.TrimSpace(apiKey) == "" {
		logging.Fatal("A Weights & Biases API key is required: pass --wandb-api-key, set %s, or reference a stored secret with --wandb-secret.", remotecmd.WandbKeyEnvVar)
	}

	ctx, cancel := context.WithTimeout(context.Background(), submitTimeout)
	defer cancel()

	if skipRefCheck {
		logging.Info("Skipping pre-flight revision check.")
	} else {
		logging.Info("Checking that revision %q exists on %s...", training.Branch, training.RepoURL)
		if err := gitref.EnsureRevision(ctx, training.RepoURL, training.Branch); err != nil {
			logging.Fatal("Pre-flight revision check failed (use --skip-ref-check to bypass): %v", err)
		}
	}

	builder := remotecmd.NewBuilder(training)
	var secrets []string
	if useSecretRef {
		builder.KeyFromEnv()
		secrets = []string{wandbSecretRef}
	}
	command, err := builder.Build(apiKey, merged)
	if err != nil {
		logging.Fatal("Failed to build remote command: %v", err)
	}

	mounts, err := parseDatasetMounts(datasets)
	if err != nil {
		logging.Fatal("%v", err)
	}

	spec := orchestrator.JobSpec{
		InstanceType:   instanceType,
		JobName:        jobName,
		ContainerImage: containerImage,
		ResultPath:     resultPath,
		DatasetMounts:  mounts,
		RemoteCommand:  command,
		Secrets:        secrets,
	}

	if dryRun {
		if err := spec.Validate(); err != nil {
			logging.Fatal("Job spec is not submittable: %v", err)
		}
		logging.Info("Dry run: job not submitted. Remote command follows.")
		fmt.Println(remotecmd.Redact(command, apiKey))
		return
	}

	handle, err := ngc.NewOrchestrator(ngc.Options{Org: org, Team: team}).Submit(ctx, spec)
	if err != nil {
		logging.Fatal("ngclaunch submit failed: %v", err)
	}

	logging.Info("Job %s submitted as %q. Query it with 'ngclaunch status %s'.", handle.ID, handle.Name, handle.ID)
	fmt.Println(handle.ID)
}

// parseDatasetMounts turns 'id:mountPath' flag values into mounts.
func parseDatasetMounts(bindings []string) ([]orchestrator.DatasetMount, error) {
	mounts := make([]orchestrator.DatasetMount, 0, len(bindings))
	for _, binding := range bindings {
		id, mountPath, ok := strings.Cut(binding, ":")
		if !ok || id == "" || mountPath == "" {
			return nil, fmt.Errorf("invalid dataset binding %q: expected 'id:mountPath'", binding)
		}
		mounts = append(mounts, orchestrator.DatasetMount{DatasetID: id, MountPath: mountPath})
	}
	return mounts, nil
}
