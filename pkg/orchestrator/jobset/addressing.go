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

package jobset

import (
	"fmt"

	"tfjob-toolkit/pkg/launch"
)

// Addressing returns the endpoints JobSet assigns to the pods of workload.
// Each role runs as a single replicated job, so pod hostnames are
// <workload>-<role>-0-<index> within the <workload> subdomain.
func Addressing(workload string, port int) launch.AddressFunc {
	if port == 0 {
		port = launch.DefaultPort
	}
	return func(role launch.TaskRole, index int) string {
		return fmt.Sprintf("%s-%s-0-%d.%s:%d", workload, role, index, workload, port)
	}
}
