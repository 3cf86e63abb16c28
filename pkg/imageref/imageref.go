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

// Package imageref validates and normalizes container image references
// for the NGC registry.
package imageref

import (
	"fmt"
	"strings"

	"github.com/google/go-containerregistry/pkg/name"
)

// DefaultRegistry is the registry NGC jobs pull from. The batch backend
// addresses images relative to it, so Normalize strips the host back
// off after parsing.
const DefaultRegistry = "nvcr.io"

// Normalize validates an image reference and returns it in the form the
// batch backend expects: a registry-relative repository path with an
// explicit tag (e.g. "nvidia/pytorch:21.10-py3").
func Normalize(image string) (string, error) {
	if strings.TrimSpace(image) == "" {
		return "", fmt.Errorf("image name cannot be empty")
	}

	ref, err := name.ParseReference(image, name.WithDefaultRegistry(DefaultRegistry))
	if err != nil {
		return "", fmt.Errorf("invalid container image reference %q: %w", image, err)
	}

	return strings.TrimPrefix(ref.Name(), DefaultRegistry+"/"), nil
}
