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

import "strings"

// TaskRole is the functional category of a task in a distributed training job.
// The zero value is an unresolved role.
type TaskRole string

const (
	RoleWorker TaskRole = "worker"
	RolePS     TaskRole = "ps"
)

// Roles lists every resolved role in the order tasks are enumerated.
var Roles = []TaskRole{RoleWorker, RolePS}

// ParseTaskRole converts a user supplied role name into a TaskRole.
func ParseTaskRole(s string) (TaskRole, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "worker":
		return RoleWorker, nil
	case "ps", "parameter-server", "parameter_server":
		return RolePS, nil
	default:
		return "", invalidArgument("unknown task role %q, expected \"worker\" or \"ps\"", s)
	}
}

// Valid reports whether the role is resolved.
func (r TaskRole) Valid() bool {
	return r == RoleWorker || r == RolePS
}

// String returns the lowercase role name used in the cluster descriptor.
func (r TaskRole) String() string {
	return string(r)
}
