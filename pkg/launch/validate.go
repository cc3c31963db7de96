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

// Validate checks that params can produce a launch script for the task
// identified by role and index. It has no side effects.
func Validate(params JobParameters, role TaskRole, index int) error {
	if params.Distributed && !role.Valid() {
		return missingRequiredField("TaskType must not be null")
	}
	if strings.TrimSpace(params.LaunchCommand(role)) == "" {
		return invalidArgument("LaunchCommand must not be null or empty")
	}
	if params.NumWorkers < 0 {
		return invalidArgument("number of workers must not be negative, got %d", params.NumWorkers)
	}
	if params.NumPS < 0 {
		return invalidArgument("number of parameter servers must not be negative, got %d", params.NumPS)
	}
	if index < 0 {
		return invalidArgument("task index must not be negative, got %d", index)
	}
	return nil
}
