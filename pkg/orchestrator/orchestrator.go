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

package orchestrator

import (
	"context"
	"fmt"
	"regexp"

	"github.com/agext/levenshtein"
)

// DatasetMount binds one remote dataset to a mount path inside the job
// container.
type DatasetMount struct {
	DatasetID string
	MountPath string
}

// JobSpec holds all the necessary parameters to define one batch
// submission. It is built once per invocation, passed to Submit, and
// discarded; nothing is persisted.
//
// This struct is intended to be general enough to support various batch
// backends, with specific submitter implementations extracting the
// fields relevant to them.
type JobSpec struct {
	InstanceType   string
	JobName        string
	ContainerImage string
	ResultPath     string
	DatasetMounts  []DatasetMount
	RemoteCommand  string

	// Secrets names backend-stored secrets the job container should
	// receive as environment variables. Used to pass the tracker key
	// out of band instead of interpolating it into RemoteCommand.
	Secrets []string
}

// JobHandle identifies a successfully submitted job.
type JobHandle struct {
	// ID is the backend's identifier for the scheduled job.
	ID string
	// Name is the resolved job display name.
	Name string
	// SubmissionID is a client-side identifier tying log lines of one
	// submission attempt together. The backend never sees it.
	SubmissionID string
}

// Submitter defines the interface for submitting jobs to a batch
// backend.
type Submitter interface {
	// Submit schedules the job described by spec and returns a handle
	// for it. Submitting is not idempotent: two calls with the same
	// spec create two distinct remote jobs. The context bounds the
	// backend call.
	Submit(ctx context.Context, spec JobSpec) (JobHandle, error)
}

// instanceTypePattern is the observed shape of NGC instance
// identifiers: lowercase dot-separated tokens, e.g. "dgx1v.32g.8.norm".
var instanceTypePattern = regexp.MustCompile(`^[a-z0-9]+(\.[a-z0-9]+){1,4}$`)

// KnownInstanceTypes lists common NGC compute shapes, used to suggest a
// correction when a malformed instance type is close to a real one. An
// instance type absent from this list is still accepted as long as it
// is well-formed; the backend adds shapes faster than we do.
var KnownInstanceTypes = []string{
	"dgx1v.16g.1.norm",
	"dgx1v.16g.2.norm",
	"dgx1v.16g.4.norm",
	"dgx1v.16g.8.norm",
	"dgx1v.32g.1.norm",
	"dgx1v.32g.2.norm",
	"dgx1v.32g.4.norm",
	"dgx1v.32g.8.norm",
	"dgxa100.40g.1.norm",
	"dgxa100.40g.2.norm",
	"dgxa100.40g.4.norm",
	"dgxa100.40g.8.norm",
}

// ValidateInstanceType rejects instance identifiers the backend would
// bounce, before any remote interaction happens.
func ValidateInstanceType(instanceType string) error {
	if instanceType == "" {
		return fmt.Errorf("instance type must not be empty")
	}
	if instanceTypePattern.MatchString(instanceType) {
		return nil
	}
	if suggestion := nearestInstanceType(instanceType); suggestion != "" {
		return fmt.Errorf("malformed instance type %q; did you mean %q?", instanceType, suggestion)
	}
	return fmt.Errorf("malformed instance type %q; expected lowercase dot-separated shape like %q", instanceType, "dgx1v.32g.8.norm")
}

func nearestInstanceType(instanceType string) string {
	best := ""
	bestDistance := 5 // beyond this the suggestion is noise
	for _, known := range KnownInstanceTypes {
		d := levenshtein.Distance(instanceType, known, nil)
		if d < bestDistance {
			bestDistance = d
			best = known
		}
	}
	return best
}

// Validate checks that the spec is complete enough to submit. A spec
// that fails validation must issue no remote job.
func (s JobSpec) Validate() error {
	if err := ValidateInstanceType(s.InstanceType); err != nil {
		return err
	}
	if s.ContainerImage == "" {
		return fmt.Errorf("container image must not be empty")
	}
	if s.ResultPath == "" {
		return fmt.Errorf("result path must not be empty")
	}
	if s.RemoteCommand == "" {
		return fmt.Errorf("remote command must not be empty")
	}
	if len(s.DatasetMounts) == 0 {
		return fmt.Errorf("at least one dataset mount is required")
	}
	for i, m := range s.DatasetMounts {
		if m.DatasetID == "" {
			return fmt.Errorf("dataset mount %d is missing a dataset id", i)
		}
		if m.MountPath == "" {
			return fmt.Errorf("dataset mount %d (dataset %s) is missing a mount path", i, m.DatasetID)
		}
	}
	return nil
}
