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

// Package config loads launcher defaults from an optional YAML file.
// Command-line flags always win over file values; the file only spares
// retyping the stable parts of a submission.
package config

import (
	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"ngc-launcher/pkg/remotecmd"
)

// DefaultPath is where Load looks when no --config flag is given.
const DefaultPath = ".ngclaunch.yaml"

// Defaults mirrors the submit command's flag surface.
type Defaults struct {
	InstanceType string            `yaml:"instance_type"`
	Image        string            `yaml:"image"`
	ResultPath   string            `yaml:"result_path"`
	Org          string            `yaml:"org"`
	Team         string            `yaml:"team"`
	Datasets     []string          `yaml:"datasets"` // id:mount
	Overrides    map[string]string `yaml:"overrides"`

	Training remotecmd.TrainingConfig `yaml:"training"`
}

// NewDefaults returns the built-in defaults used when no file value or
// flag overrides them.
func NewDefaults() Defaults {
	return Defaults{
		InstanceType: "dgx1v.32g.8.norm",
		Image:        "nvidia/pytorch:21.10-py3",
		ResultPath:   "/result",
		Training:     remotecmd.DefaultTrainingConfig(),
	}
}

// Load reads a defaults file and layers it over the built-in defaults.
// Fields absent from the file keep their built-in values.
func Load(fs afero.Fs, path string) (Defaults, error) {
	d := NewDefaults()
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return Defaults{}, errors.Wrapf(err, "failed to read defaults file %s", path)
	}
	if err := yaml.Unmarshal(data, &d); err != nil {
		return Defaults{}, errors.Wrapf(err, "failed to parse defaults file %s", path)
	}
	return d, nil
}

// LoadIfPresent behaves like Load but treats a missing file as "no
// defaults file", returning the built-in defaults.
func LoadIfPresent(fs afero.Fs, path string) (Defaults, error) {
	exists, err := afero.Exists(fs, path)
	if err != nil {
		return Defaults{}, errors.Wrapf(err, "failed to stat defaults file %s", path)
	}
	if !exists {
		return NewDefaults(), nil
	}
	return Load(fs, path)
}
