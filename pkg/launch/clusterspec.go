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

package launch

import (
	"encoding/json"
	"fmt"

	"al.essio.dev/pkg/shellescape"
	"github.com/pkg/errors"
)

// TFConfigEnv is the variable the training framework reads its cluster
// descriptor from.
const TFConfigEnv = "TF_CONFIG"

// AddressFunc maps a task to its host:port endpoint. It must be deterministic
// and safe for concurrent use.
type AddressFunc func(role TaskRole, index int) string

// ClusterSpec describes every peer of a distributed job and the identity of
// the task it was built for. Field names and nesting are read by the training
// framework and must not change.
type ClusterSpec struct {
	Cluster ClusterEndpoints `json:"cluster"`
	Task    TaskID           `json:"task"`
}

// ClusterEndpoints lists task endpoints by role, ordered by task index.
type ClusterEndpoints struct {
	Worker []string `json:"worker"`
	PS     []string `json:"ps"`
}

// TaskID identifies one task of the job.
type TaskID struct {
	Type  TaskRole `json:"type"`
	Index int      `json:"index"`
}

// BuildClusterSpec computes the endpoints of numWorkers workers and numPS
// parameter servers using addr, for the task (role, index).
func BuildClusterSpec(numWorkers, numPS int, role TaskRole, index int, addr AddressFunc) (ClusterSpec, error) {
	if addr == nil {
		return ClusterSpec{}, invalidArgument("addressing scheme must not be nil")
	}
	if !role.Valid() {
		return ClusterSpec{}, missingRequiredField("TaskType must not be null")
	}
	if numWorkers < 0 || numPS < 0 {
		return ClusterSpec{}, invalidArgument("task counts must not be negative, got %d workers and %d ps", numWorkers, numPS)
	}

	return ClusterSpec{
		Cluster: ClusterEndpoints{
			Worker: endpoints(RoleWorker, numWorkers, addr),
			PS:     endpoints(RolePS, numPS, addr),
		},
		Task: TaskID{Type: role, Index: index},
	}, nil
}

// endpoints never returns nil so that empty roles encode as [] rather than null.
func endpoints(role TaskRole, n int, addr AddressFunc) []string {
	out := make([]string, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, addr(role, i))
	}
	return out
}

// Descriptor returns the JSON encoding of the cluster spec.
func (c ClusterSpec) Descriptor() (string, error) {
	b, err := json.Marshal(c)
	if err != nil {
		return "", errors.Wrap(err, "failed to marshal cluster spec")
	}
	return string(b), nil
}

// ExportLine returns the shell line exporting the descriptor as TF_CONFIG. The
// descriptor is single quoted so the shell assigns it literally.
func (c ClusterSpec) ExportLine() (string, error) {
	d, err := c.Descriptor()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("export %s=%s", TFConfigEnv, shellescape.Quote(d)), nil
}
