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

// Package ngc submits batch jobs through the NGC CLI.
package ngc

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"ngc-launcher/pkg/imageref"
	"ngc-launcher/pkg/logging"
	"ngc-launcher/pkg/orchestrator"
	"ngc-launcher/pkg/shell"
)

// Runner abstracts the vendor CLI invocation so tests can substitute a
// recording stub for the real binary.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) shell.Result
}

type shellRunner struct{}

func (shellRunner) Run(ctx context.Context, name string, args ...string) shell.Result {
	return shell.NewCommand(name, args...).WithContext(ctx).Execute()
}

// Options configures the NGC submitter.
type Options struct {
	// Org and Team scope the submission within NGC; empty means the
	// CLI's configured defaults.
	Org  string
	Team string
	// Runner overrides CLI execution. Nil runs the real ngc binary.
	Runner Runner
}

// Orchestrator implements orchestrator.Submitter against the NGC batch
// backend.
type Orchestrator struct {
	org    string
	team   string
	runner Runner
}

// NewOrchestrator creates an NGC submitter.
func NewOrchestrator(opts Options) *Orchestrator {
	runner := opts.Runner
	if runner == nil {
		runner = shellRunner{}
	}
	return &Orchestrator{org: opts.Org, team: opts.Team, runner: runner}
}

// Submit validates the spec, then schedules it via `ngc batch run`.
// A spec that fails validation issues no remote call. Submission is
// fire-and-forget: a handle means the backend accepted the job, not
// that the remote script will succeed. The context bounds the CLI
// invocation.
//
// The remote command is never logged here; it may embed a secret.
func (o *Orchestrator) Submit(ctx context.Context, spec orchestrator.JobSpec) (orchestrator.JobHandle, error) {
	if err := spec.Validate(); err != nil {
		return orchestrator.JobHandle{}, err
	}

	image, err := imageref.Normalize(spec.ContainerImage)
	if err != nil {
		return orchestrator.JobHandle{}, err
	}
	spec.ContainerImage = image

	name := spec.JobName
	if name == "" {
		name = "ngc-launch-" + shell.RandomString(8)
	}

	submissionID := uuid.NewString()
	logging.Info("[%s] Submitting job %q on %s (image %s, %d dataset mount(s))...",
		submissionID, name, spec.InstanceType, spec.ContainerImage, len(spec.DatasetMounts))

	args := o.buildArgs(spec, name)
	res := o.runner.Run(ctx, "ngc", args...)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return orchestrator.JobHandle{}, fmt.Errorf("ngc batch run did not complete: %w", ctxErr)
	}
	if res.ExitCode != 0 {
		return orchestrator.JobHandle{}, fmt.Errorf("ngc batch run failed with exit code %d: %s\n%s", res.ExitCode, res.Stderr, res.Stdout)
	}

	jobID, err := parseJobID(res.Stdout)
	if err != nil {
		return orchestrator.JobHandle{}, fmt.Errorf("job was submitted but the reply was unreadable: %w", err)
	}

	logging.Info("[%s] Job %s scheduled as %q.", submissionID, jobID, name)
	return orchestrator.JobHandle{ID: jobID, Name: name, SubmissionID: submissionID}, nil
}

// buildArgs assembles the argument vector for `ngc batch run`. The
// remote command goes last so the vector reads the way the CLI
// documents it.
func (o *Orchestrator) buildArgs(spec orchestrator.JobSpec, name string) []string {
	args := []string{
		"batch", "run",
		"--instance", spec.InstanceType,
		"--name", name,
		"--image", spec.ContainerImage,
		"--result", spec.ResultPath,
		"--format_type", "json",
	}
	for _, m := range spec.DatasetMounts {
		args = append(args, "--datasetid", m.DatasetID+":"+m.MountPath)
	}
	for _, secret := range spec.Secrets {
		args = append(args, "--secret", secret)
	}
	args = o.appendScope(args)
	return append(args, "--commandline", spec.RemoteCommand)
}

func (o *Orchestrator) appendScope(args []string) []string {
	if o.org != "" {
		args = append(args, "--org", o.org)
	}
	if o.team != "" {
		args = append(args, "--team", o.team)
	}
	return args
}

// Status queries the backend for a submitted job's state via
// `ngc batch info`. Remote setup failures (clone, install, login,
// training) only ever surface here, as an opaque failed status.
func (o *Orchestrator) Status(ctx context.Context, jobID string) (string, error) {
	if strings.TrimSpace(jobID) == "" {
		return "", fmt.Errorf("job id must not be empty")
	}

	args := o.appendScope([]string{"batch", "info", jobID, "--format_type", "json"})
	res := o.runner.Run(ctx, "ngc", args...)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return "", fmt.Errorf("ngc batch info did not complete: %w", ctxErr)
	}
	if res.ExitCode != 0 {
		return "", fmt.Errorf("ngc batch info failed with exit code %d: %s\n%s", res.ExitCode, res.Stderr, res.Stdout)
	}

	var reply struct {
		JobStatus struct {
			Status string `json:"status"`
		} `json:"jobStatus"`
	}
	if err := json.Unmarshal([]byte(res.Stdout), &reply); err != nil {
		return "", fmt.Errorf("failed to decode ngc batch info reply: %w", err)
	}
	if reply.JobStatus.Status == "" {
		return "", fmt.Errorf("ngc batch info reply carries no status: %s", strings.TrimSpace(res.Stdout))
	}
	return reply.JobStatus.Status, nil
}

// parseJobID extracts the scheduler's job identifier from the CLI's
// JSON reply.
func parseJobID(stdout string) (string, error) {
	var reply struct {
		ID json.Number `json:"id"`
	}
	if err := json.Unmarshal([]byte(stdout), &reply); err != nil {
		return "", fmt.Errorf("failed to decode ngc batch run reply: %w", err)
	}
	if reply.ID.String() == "" {
		return "", fmt.Errorf("ngc batch run reply carries no job id: %s", strings.TrimSpace(stdout))
	}
	return reply.ID.String(), nil
}
