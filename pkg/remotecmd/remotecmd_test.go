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

package remotecmd

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildDeterministic(t *testing.T) {
	b := NewBuilder(DefaultTrainingConfig())

	// Same key set, different insertion order.
	first := map[string]string{}
	first["trainer.gpus"] = "8"
	first["model.shared_tokenizer"] = "true"
	first["exp_manager.wandb_logger_kwargs.name"] = "nightly"

	second := map[string]string{}
	second["exp_manager.wandb_logger_kwargs.name"] = "nightly"
	second["model.shared_tokenizer"] = "true"
	second["trainer.gpus"] = "8"

	out1, err := b.Build("secret-key", first)
	require.NoError(t, err)
	out2, err := b.Build("secret-key", second)
	require.NoError(t, err)
	assert.Equal(t, out1, out2, "identical inputs must render byte-identical commands")
}

func TestBuildStructure(t *testing.T) {
	cfg := DefaultTrainingConfig()
	out, err := NewBuilder(cfg).Build("secret-key", map[string]string{"trainer.gpus": "8"})
	require.NoError(t, err)

	assert.Equal(t, 1, strings.Count(out, "git clone"), "exactly one clone step")
	assert.Equal(t, 1, strings.Count(out, "wandb login"), "exactly one login step")
	assert.Equal(t, 1, strings.Count(out, "python "+cfg.EntryPoint), "exactly one training invocation")
	assert.Equal(t, len(cfg.ManifestPaths), strings.Count(out, "pip install -r"))

	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Equal(t, "set -e -x", lines[0], "strict mode opens the script")
	assert.Equal(t, "set +e +x", lines[len(lines)-1], "relaxed mode closes the script")
	assert.Contains(t, out, "mkdir -p "+cfg.ResultDir)
	assert.Contains(t, out, "export PYTHONPATH=$(pwd)")
	assert.Contains(t, out, "cd "+cfg.WorkDir)
}

func TestBuildEmptySecret(t *testing.T) {
	b := NewBuilder(DefaultTrainingConfig())
	for _, key := range []string{"", "   ", "\t\n"} {
		_, err := b.Build(key, nil)
		require.Error(t, err, "blank key %q must be rejected", key)
		assert.Contains(t, err.Error(), "API key")
	}
}

func TestBuildScenario(t *testing.T) {
	out, err := NewBuilder(DefaultTrainingConfig()).Build("abc123", map[string]string{
		"trainer.gpus":                         "1",
		"model.shared_tokenizer":               "true",
		"exp_manager.wandb_logger_kwargs.name": "run1",
	})
	require.NoError(t, err)

	assert.Contains(t, out, "wandb login abc123")

	var trainLine string
	for _, line := range strings.Split(out, "\n") {
		if strings.HasPrefix(line, "python ") {
			trainLine = line
		}
	}
	require.NotEmpty(t, trainLine, "training invocation line not found")
	assert.True(t,
		strings.HasSuffix(trainLine, "exp_manager.wandb_logger_kwargs.name=run1 model.shared_tokenizer=true trainer.gpus=1"),
		"overrides must be rendered in sorted key order, got: %s", trainLine)
}

func TestBuildInvalidConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*TrainingConfig)
		wantErr string
	}{
		{"no repo", func(c *TrainingConfig) { c.RepoURL = "" }, "repo URL"},
		{"no branch", func(c *TrainingConfig) { c.Branch = "" }, "branch"},
		{"no manifests", func(c *TrainingConfig) { c.ManifestPaths = nil }, "manifest"},
		{"no entry point", func(c *TrainingConfig) { c.EntryPoint = "" }, "entry point"},
		{"no result dir", func(c *TrainingConfig) { c.ResultDir = "" }, "result directory"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultTrainingConfig()
			tt.mutate(&cfg)
			_, err := NewBuilder(cfg).Build("secret-key", nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestBuildKeyFromEnv(t *testing.T) {
	out, err := NewBuilder(DefaultTrainingConfig()).KeyFromEnv().Build("abc123", nil)
	require.NoError(t, err)
	assert.Contains(t, out, `wandb login "$WANDB_API_KEY"`)
	assert.NotContains(t, out, "abc123", "raw secret must not appear in env mode")

	// With the key in the backend's secret store there is no local key
	// to require.
	_, err = NewBuilder(DefaultTrainingConfig()).KeyFromEnv().Build("", nil)
	assert.NoError(t, err)
}

func TestRepoName(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://github.com/NVIDIA/NeMo", "NeMo"},
		{"https://github.com/NVIDIA/NeMo.git", "NeMo"},
		{"git@internal:team/trainer.git", "trainer"},
	}
	for _, tt := range tests {
		cfg := TrainingConfig{RepoURL: tt.url}
		assert.Equal(t, tt.want, cfg.RepoName())
	}
}

func TestRedact(t *testing.T) {
	cmd := "wandb login abc123\necho abc123"
	assert.Equal(t, "wandb login [REDACTED]\necho [REDACTED]", Redact(cmd, "abc123"))
	assert.Equal(t, cmd, Redact(cmd, ""), "blank secret redacts nothing")
	assert.Equal(t, cmd, Redact(cmd, "  "), "whitespace secret redacts nothing")
}
