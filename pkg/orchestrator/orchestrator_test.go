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
	"testing"

	"tfjob-toolkit/pkg/launch"

	"github.com/google/go-cmp/cmp"
)

func TestTasks(t *testing.T) {
	tests := []struct {
		name   string
		params launch.JobParameters
		want   []Task
	}{
		{
			name:   "not distributed ignores counts",
			params: launch.JobParameters{NumWorkers: 4, NumPS: 2},
			want:   []Task{{Role: launch.RoleWorker, Index: 0}},
		},
		{
			name:   "distributed empty",
			params: launch.JobParameters{Distributed: true},
			want:   []Task{},
		},
		{
			name:   "workers then ps",
			params: launch.JobParameters{Distributed: true, NumWorkers: 2, NumPS: 1},
			want: []Task{
				{Role: launch.RoleWorker, Index: 0},
				{Role: launch.RoleWorker, Index: 1},
				{Role: launch.RolePS, Index: 0},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, Tasks(tt.params)); diff != "" {
				t.Errorf("Tasks() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
