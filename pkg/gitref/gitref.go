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

// Package gitref verifies that a remote repository carries the pinned
// revision before a job is paid for. The remote script would fail on
// clone anyway, but only asynchronously, deep inside the job log.
package gitref

import (
	"context"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/storage/memory"
	"github.com/pkg/errors"
)

// EnsureRevision checks that revision exists on the remote repository
// as a branch or tag, by listing remote refs without cloning.
func EnsureRevision(ctx context.Context, repoURL, revision string) error {
	if repoURL == "" {
		return errors.New("repository URL must not be empty")
	}
	if revision == "" {
		return errors.New("revision must not be empty")
	}

	remote := git.NewRemote(memory.NewStorage(), &config.RemoteConfig{
		Name: "origin",
		URLs: []string{repoURL},
	})
	refs, err := remote.ListContext(ctx, &git.ListOptions{})
	if err != nil {
		return errors.Wrapf(err, "failed to list refs of %s", repoURL)
	}

	branch := plumbing.NewBranchReferenceName(revision)
	tag := plumbing.NewTagReferenceName(revision)
	for _, ref := range refs {
		if ref.Name() == branch || ref.Name() == tag {
			return nil
		}
	}
	return errors.Errorf("revision %q not found on %s (neither branch nor tag)", revision, repoURL)
}
