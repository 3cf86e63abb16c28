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

// Package remotecmd assembles the shell program executed inside the
// provisioned job container: clone the training repo at a pinned
// revision, install its dependency manifests, authenticate to the
// experiment tracker, and run the training entry point.
package remotecmd

import (
	"bytes"
	"fmt"
	"path"
	"strings"
	"text/template"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// WandbKeyEnvVar is the variable the rendered command reads when the
// tracker key is injected through the backend's environment mechanism
// instead of being interpolated into the command string.
const WandbKeyEnvVar = "WANDB_API_KEY"

// launchTemplate is the Go template for the remote shell program.
// The strict-mode enable/disable lines bracket the whole body: any
// failing step aborts the remote script immediately, and each step is
// echoed into the job log.
const launchTemplate = `set -e -x
mkdir -p {{.ResultDir}}
git clone {{.RepoURL}} -b {{.Branch}}
cd {{.RepoName}}
{{- range .ManifestPaths}}
pip install -r {{.}}
{{- end}}
export PYTHONPATH=$(pwd)
cd {{.WorkDir}}
wandb login {{.LoginToken}}
python {{.EntryPoint}} --config-path={{.ConfigPath}} --config-name={{.ConfigName}}{{range .OverrideArgs}} {{.}}{{end}}
set +e +x
`

// TrainingConfig names the fixed constants of the remote setup: which
// repository to clone, at which revision, which dependency manifests to
// install, and which entry point to run. Keeping them in one struct
// (instead of inlined strings) makes substitution in tests trivial.
type TrainingConfig struct {
	RepoURL       string   `yaml:"repo_url"`
	Branch        string   `yaml:"branch"`
	ManifestPaths []string `yaml:"manifest_paths"`
	WorkDir       string   `yaml:"work_dir"`
	EntryPoint    string   `yaml:"entry_point"`
	ConfigPath    string   `yaml:"config_path"`
	ConfigName    string   `yaml:"config_name"`
	ResultDir     string   `yaml:"result_dir"`
}

// DefaultTrainingConfig returns the pinned NeMo machine-translation
// punctuation setup.
func DefaultTrainingConfig() TrainingConfig {
	return TrainingConfig{
		RepoURL: "https://github.com/NVIDIA/NeMo",
		Branch:  "r1.6.0",
		ManifestPaths: []string{
			"requirements/requirements.txt",
			"requirements/requirements_common.txt",
			"requirements/requirements_lightning.txt",
			"requirements/requirements_nlp.txt",
		},
		WorkDir:    "examples/nlp/machine_translation",
		EntryPoint: "enc_dec_nmt.py",
		ConfigPath: "conf",
		ConfigName: "aayn_base",
		ResultDir:  "/result",
	}
}

func (c TrainingConfig) validate() error {
	if c.RepoURL == "" {
		return fmt.Errorf("training repo URL must not be empty")
	}
	if c.Branch == "" {
		return fmt.Errorf("training repo branch must not be empty")
	}
	if len(c.ManifestPaths) == 0 {
		return fmt.Errorf("at least one dependency manifest path is required")
	}
	if c.EntryPoint == "" {
		return fmt.Errorf("training entry point must not be empty")
	}
	if c.ResultDir == "" {
		return fmt.Errorf("result directory must not be empty")
	}
	return nil
}

// RepoName is the directory the clone step creates.
func (c TrainingConfig) RepoName() string {
	return path.Base(strings.TrimSuffix(c.RepoURL, ".git"))
}

// Builder renders remote commands for one TrainingConfig.
type Builder struct {
	cfg        TrainingConfig
	keyFromEnv bool
}

// NewBuilder creates a Builder for the given training setup.
func NewBuilder(cfg TrainingConfig) *Builder {
	return &Builder{cfg: cfg}
}

// KeyFromEnv switches the login step to read the tracker key from the
// WandbKeyEnvVar environment variable, so the raw secret never appears
// in the rendered command string. The caller is then responsible for
// binding the variable through the backend's secret mechanism (see
// JobSpec.Secrets).
func (b *Builder) KeyFromEnv() *Builder {
	b.keyFromEnv = true
	return b
}

// Build renders the remote shell program. Override keys are rendered in
// sorted order so identical inputs produce byte-identical output.
//
// In the default mode a blank apiKey is an input error and fails before
// anything is submitted. In KeyFromEnv mode apiKey is ignored: the key
// lives in the backend's secret store and the rendered command reads it
// from the environment.
func (b *Builder) Build(apiKey string, overrides map[string]string) (string, error) {
	if !b.keyFromEnv && strings.TrimSpace(apiKey) == "" {
		return "", fmt.Errorf("experiment tracker API key must not be empty")
	}
	if err := b.cfg.validate(); err != nil {
		return "", err
	}

	loginToken := apiKey
	if b.keyFromEnv {
		loginToken = fmt.Sprintf("%q", "$"+WandbKeyEnvVar)
	}

	keys := maps.Keys(overrides)
	slices.Sort(keys)
	overrideArgs := make([]string, 0, len(keys))
	for _, k := range keys {
		overrideArgs = append(overrideArgs, fmt.Sprintf("%s=%s", k, overrides[k]))
	}

	tmpl, err := template.New("launch").Parse(launchTemplate)
	if err != nil {
		return "", fmt.Errorf("failed to parse launch template: %w", err)
	}

	data := struct {
		ResultDir     string
		RepoURL       string
		Branch        string
		RepoName      string
		ManifestPaths []string
		WorkDir       string
		LoginToken    string
		EntryPoint    string
		ConfigPath    string
		ConfigName    string
		OverrideArgs  []string
	}{
		ResultDir:     b.cfg.ResultDir,
		RepoURL:       b.cfg.RepoURL,
		Branch:        b.cfg.Branch,
		RepoName:      b.cfg.RepoName(),
		ManifestPaths: b.cfg.ManifestPaths,
		WorkDir:       b.cfg.WorkDir,
		LoginToken:    loginToken,
		EntryPoint:    b.cfg.EntryPoint,
		ConfigPath:    b.cfg.ConfigPath,
		ConfigName:    b.cfg.ConfigName,
		OverrideArgs:  overrideArgs,
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute launch template: %w", err)
	}
	return buf.String(), nil
}

// Redact masks every occurrence of secret in s. Anything that reaches a
// log or the terminal must pass through here first.
func Redact(s, secret string) string {
	if strings.TrimSpace(secret) == "" {
		return s
	}
	return strings.ReplaceAll(s, secret, "[REDACTED]")
}
