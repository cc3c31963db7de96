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
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestValidate(t *testing.T) {
	ok := JobParameters{WorkerLaunchCmd: "python w.py", PSLaunchCmd: "python ps.py"}

	tests := []struct {
		name    string
		mutate  func(p *JobParameters)
		role    TaskRole
		index   int
		wantErr error
	}{
		{name: "worker ok", role: RoleWorker},
		{name: "ps ok", role: RolePS},
		{name: "distributed ok", role: RolePS, mutate: func(p *JobParameters) { p.Distributed = true; p.NumPS = 1 }},
		{name: "empty worker command", role: RoleWorker, mutate: func(p *JobParameters) { p.WorkerLaunchCmd = "" }, wantErr: ErrInvalidArgument},
		{name: "empty ps command", role: RolePS, mutate: func(p *JobParameters) { p.PSLaunchCmd = "" }, wantErr: ErrInvalidArgument},
		{name: "distributed missing role", mutate: func(p *JobParameters) { p.Distributed = true }, wantErr: ErrMissingRequiredField},
		{
			name:    "distributed missing role takes precedence",
			mutate:  func(p *JobParameters) { p.Distributed = true; p.WorkerLaunchCmd = ""; p.PSLaunchCmd = "" },
			wantErr: ErrMissingRequiredField,
		},
		{name: "negative workers", role: RoleWorker, mutate: func(p *JobParameters) { p.NumWorkers = -1 }, wantErr: ErrInvalidArgument},
		{name: "negative ps", role: RoleWorker, mutate: func(p *JobParameters) { p.NumPS = -1 }, wantErr: ErrInvalidArgument},
		{name: "negative index", role: RoleWorker, index: -3, wantErr: ErrInvalidArgument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := ok
			if tt.mutate != nil {
				tt.mutate(&p)
			}
			before := p
			err := Validate(p, tt.role, tt.index)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Expected no error, got %v", err)
				}
			} else if !errors.Is(err, tt.wantErr) {
				t.Errorf("Expected %v, got %v", tt.wantErr, err)
			}
			if !cmp.Equal(before, p) {
				t.Errorf("Validate modified params: %s", cmp.Diff(before, p))
			}
		})
	}
}

func TestParseTaskRole(t *testing.T) {
	tests := []struct {
		in      string
		want    TaskRole
		wantErr bool
	}{
		{in: "worker", want: RoleWorker},
		{in: "WORKER", want: RoleWorker},
		{in: "ps", want: RolePS},
		{in: " PS ", want: RolePS},
		{in: "parameter-server", want: RolePS},
		{in: "master", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTaskRole(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidArgument) {
					t.Errorf("Expected ErrInvalidArgument, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseTaskRole(%q) failed: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseTaskRole(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestAssembleEnvironment(t *testing.T) {
	tests := []struct {
		name   string
		envars []string
		lookup EnvLookup
		want   []string
	}{
		{
			name: "no overrides",
			want: []string{},
		},
		{
			name:   "verbatim and ordered",
			envars: []string{"Z=1", "A=two words", "Z=3"},
			want:   []string{"export Z=1", "export A=two words", "export Z=3"},
		},
		{
			name:   "nil lookup does not synthesize",
			envars: []string{"A=1"},
			want:   []string{"export A=1"},
		},
		{
			name:   "lookup fills missing host variables",
			envars: []string{DockerHadoopHDFSHome + "=/hdfs"},
			lookup: func(name string) (string, bool) { return "/host/" + name, true },
			want:   []string{"export DOCKER_HADOOP_HDFS_HOME=/hdfs", "export DOCKER_JAVA_HOME=/host/DOCKER_JAVA_HOME"},
		},
		{
			name:   "lookup miss",
			lookup: func(string) (string, bool) { return "", false },
			want:   []string{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AssembleEnvironment(JobParameters{Envars: tt.envars}, tt.lookup)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("AssembleEnvironment() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
