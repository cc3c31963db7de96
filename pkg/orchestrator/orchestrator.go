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

	"tfjob-toolkit/pkg/launch"
)

// JobDefinition holds all the necessary parameters to define a training job.
// Orchestrator implementations extract the fields relevant to them.
type JobDefinition struct {
	Params launch.JobParameters

	// Workload related options
	WorkloadName    string
	DockerImage     string
	AcceleratorType string
	KueueQueueName  string
	Port            int
	DiscoverHostEnv bool

	// ScriptLocation is where launch scripts are written: a local directory or
	// a gs:// URL.
	ScriptLocation string
	// ScriptClaim is the PersistentVolumeClaim that exposes ScriptLocation to
	// the task containers.
	ScriptClaim    string
	OutputManifest string

	// BakeImage, when set, is the image the scripts are baked into on top of
	// DockerImage. ScriptLocation and ScriptClaim are then unused.
	BakeImage  string
	// ContextDir is a training code directory baked alongside the scripts.
	ContextDir string
	Platform   string

	MaxRestarts             int
	TtlSecondsAfterFinished int
}

// Task identifies one task of a job.
type Task struct {
	Role  launch.TaskRole
	Index int
}

// Tasks enumerates every task of params: a single worker for non-distributed
// jobs, otherwise all workers followed by all parameter servers.
func Tasks(params launch.JobParameters) []Task {
	if !params.Distributed {
		return []Task{{Role: launch.RoleWorker, Index: 0}}
	}
	tasks := make([]Task, 0, params.NumWorkers+params.NumPS)
	for _, role := range launch.Roles {
		for i := 0; i < params.NumTasks(role); i++ {
			tasks = append(tasks, Task{Role: role, Index: i})
		}
	}
	return tasks
}

// Orchestrator defines the interface for submitting training jobs to a cluster.
type Orchestrator interface {
	// SubmitJob takes a JobDefinition and produces the artifacts every task
	// needs to start.
	SubmitJob(ctx context.Context, job JobDefinition) error
}
