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

package ngc

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ngc-launcher/pkg/orchestrator"
	"ngc-launcher/pkg/shell"
)

// recordingRunner captures every CLI invocation and replays a canned
// result.
type recordingRunner struct {
	result shell.Result
	calls  [][]string
}

func (r *recordingRunner) Run(ctx context.Context, name string, args ...string) shell.Result {
	call := append([]string{name}, args...)
	r.calls = append(r.calls, call)
	return r.result
}

func validSpec() orchestrator.JobSpec {
	return orchestrator.JobSpec{
		InstanceType:   "dgx1v.32g.8.norm",
		JobName:        "punctuation-training",
		ContainerImage: "nvidia/pytorch:21.10-py3",
		ResultPath:     "/result",
		DatasetMounts: []orchestrator.DatasetMount{
			{DatasetID: "58106", MountPath: "/data"},
		},
		RemoteCommand: "set -e -x\necho ok\nset +e +x",
	}
}

func argsContainPair(t *testing.T, args []string, flag, value string) {
	t.Helper()
	for i := 0; i < len(args)-1; i++ {
		if args[i] == flag && args[i+1] == value {
			return
		}
	}
	t.Errorf("Expected %q %q in args %v", flag, value, args)
}

func TestSubmit(t *testing.T) {
	runner := &recordingRunner{result: shell.Result{Stdout: `{"id": 2837465}`}}
	o := NewOrchestrator(Options{Org: "nvidian", Team: "swdl", Runner: runner})

	handle, err := o.Submit(context.Background(), validSpec())
	require.NoError(t, err)
	assert.Equal(t, "2837465", handle.ID)
	assert.Equal(t, "punctuation-training", handle.Name)
	assert.NotEmpty(t, handle.SubmissionID)

	require.Len(t, runner.calls, 1)
	call := runner.calls[0]
	assert.Equal(t, []string{"ngc", "batch", "run"}, call[:3])
	argsContainPair(t, call, "--instance", "dgx1v.32g.8.norm")
	argsContainPair(t, call, "--name", "punctuation-training")
	argsContainPair(t, call, "--image", "nvidia/pytorch:21.10-py3")
	argsContainPair(t, call, "--result", "/result")
	argsContainPair(t, call, "--datasetid", "58106:/data")
	argsContainPair(t, call, "--org", "nvidian")
	argsContainPair(t, call, "--team", "swdl")
	assert.Equal(t, "--commandline", call[len(call)-2], "remote command goes last")
	assert.Equal(t, "set -e -x\necho ok\nset +e +x", call[len(call)-1])
}

func TestSubmitGeneratesJobName(t *testing.T) {
	runner := &recordingRunner{result: shell.Result{Stdout: `{"id": 1}`}}
	o := NewOrchestrator(Options{Runner: runner})

	spec := validSpec()
	spec.JobName = ""
	handle, err := o.Submit(context.Background(), spec)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(handle.Name, "ngc-launch-"), "got name %q", handle.Name)
}

func TestSubmitSecrets(t *testing.T) {
	runner := &recordingRunner{result: shell.Result{Stdout: `{"id": 1}`}}
	o := NewOrchestrator(Options{Runner: runner})

	spec := validSpec()
	spec.Secrets = []string{"wandb_api_key"}
	_, err := o.Submit(context.Background(), spec)
	require.NoError(t, err)
	argsContainPair(t, runner.calls[0], "--secret", "wandb_api_key")
}

func TestSubmitInvalidSpecIssuesNoRemoteCall(t *testing.T) {
	runner := &recordingRunner{result: shell.Result{Stdout: `{"id": 1}`}}
	o := NewOrchestrator(Options{Runner: runner})

	spec := validSpec()
	spec.DatasetMounts = nil
	handle, err := o.Submit(context.Background(), spec)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dataset mount")
	assert.Equal(t, orchestrator.JobHandle{}, handle)
	assert.Empty(t, runner.calls, "validation failure must not reach the backend")
}

func TestSubmitBackendFailure(t *testing.T) {
	runner := &recordingRunner{result: shell.Result{ExitCode: 1, Stderr: "Invalid org: no-such-org"}}
	o := NewOrchestrator(Options{Runner: runner})

	handle, err := o.Submit(context.Background(), validSpec())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid org")
	assert.Equal(t, orchestrator.JobHandle{}, handle)
}

func TestSubmitUnreadableReply(t *testing.T) {
	runner := &recordingRunner{result: shell.Result{Stdout: "Job created."}}
	o := NewOrchestrator(Options{Runner: runner})

	_, err := o.Submit(context.Background(), validSpec())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unreadable")
}

func TestSubmitCancelledContext(t *testing.T) {
	runner := &recordingRunner{result: shell.Result{ExitCode: -1, Stderr: "signal: killed"}}
	o := NewOrchestrator(Options{Runner: runner})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := o.Submit(ctx, validSpec())
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSubmitNormalizesImage(t *testing.T) {
	runner := &recordingRunner{result: shell.Result{Stdout: `{"id": 1}`}}
	o := NewOrchestrator(Options{Runner: runner})

	spec := validSpec()
	spec.ContainerImage = "nvidia/pytorch"
	_, err := o.Submit(context.Background(), spec)
	require.NoError(t, err)
	argsContainPair(t, runner.calls[0], "--image", "nvidia/pytorch:latest")

	spec.ContainerImage = "NVIDIA/Bad Image"
	_, err = o.Submit(context.Background(), spec)
	require.Error(t, err)
	require.Len(t, runner.calls, 1, "invalid image must not reach the backend")
}

func TestStatus(t *testing.T) {
	runner := &recordingRunner{result: shell.Result{Stdout: `{"jobStatus": {"status": "FINISHED_SUCCESS"}}`}}
	o := NewOrchestrator(Options{Runner: runner})

	status, err := o.Status(context.Background(), "2837465")
	require.NoError(t, err)
	assert.Equal(t, "FINISHED_SUCCESS", status)

	call := runner.calls[0]
	assert.Equal(t, []string{"ngc", "batch", "info", "2837465"}, call[:4])
}

func TestStatusErrors(t *testing.T) {
	t.Run("empty job id", func(t *testing.T) {
		o := NewOrchestrator(Options{Runner: &recordingRunner{}})
		_, err := o.Status(context.Background(), "  ")
		require.Error(t, err)
	})

	t.Run("backend failure", func(t *testing.T) {
		runner := &recordingRunner{result: shell.Result{ExitCode: 1, Stderr: "Job not found"}}
		o := NewOrchestrator(Options{Runner: runner})
		_, err := o.Status(context.Background(), "999")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Job not found")
	})

	t.Run("reply without status", func(t *testing.T) {
		runner := &recordingRunner{result: shell.Result{Stdout: `{}`}}
		o := NewOrchestrator(Options{Runner: runner})
		_, err := o.Status(context.Background(), "999")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no status")
	})
}
