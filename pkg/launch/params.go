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

// JobParameters holds the configuration of a training job. It is populated by
// the caller before generation and is never modified by this package.
type JobParameters struct {
	Name        string `yaml:"name" hcl:"name,optional"`
	InputPath   string `yaml:"input_path" hcl:"input_path,optional"`
	Distributed bool   `yaml:"distributed" hcl:"distributed,optional"`
	NumWorkers  int    `yaml:"num_workers" hcl:"num_workers,optional"`
	NumPS       int    `yaml:"num_ps" hcl:"num_ps,optional"`

	WorkerLaunchCmd string `yaml:"worker_launch_cmd" hcl:"worker_launch_cmd,optional"`
	PSLaunchCmd     string `yaml:"ps_launch_cmd" hcl:"ps_launch_cmd,optional"`

	// Envars are NAME=VALUE overrides exported in the order given. Keys may
	// repeat.
	Envars []string `yaml:"envars" hcl:"envars,optional"`
}

// LaunchCommand returns the command line configured for role. An unresolved
// role has no launch command.
func (p JobParameters) LaunchCommand(role TaskRole) string {
	switch role {
	case RoleWorker:
		return p.WorkerLaunchCmd
	case RolePS:
		return p.PSLaunchCmd
	default:
		return ""
	}
}

// NumTasks returns the configured task count for role.
func (p JobParameters) NumTasks(role TaskRole) int {
	switch role {
	case RoleWorker:
		return p.NumWorkers
	case RolePS:
		return p.NumPS
	default:
		return 0
	}
}
