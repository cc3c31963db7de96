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

func TestBuildClusterSpec(t *testing.T) {
	tests := []struct {
		name       string
		numWorkers int
		numPS      int
		role       TaskRole
		index      int
		want       string
	}{
		{
			name: "empty cluster",
			role: RoleWorker,
			want: `{"cluster":{"worker":[],"ps":[]},"task":{"type":"worker","index":0}}`,
		},
		{
			name:       "workers only",
			numWorkers: 2,
			role:       RoleWorker,
			index:      1,
			want:       `{"cluster":{"worker":["worker-0.test:2222","worker-1.test:2222"],"ps":[]},"task":{"type":"worker","index":1}}`,
		},
		{
			name:       "workers and ps",
			numWorkers: 1,
			numPS:      2,
			role:       RolePS,
			index:      1,
			want:       `{"cluster":{"worker":["worker-0.test:2222"],"ps":["ps-0.test:2222","ps-1.test:2222"]},"task":{"type":"ps","index":1}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec, err := BuildClusterSpec(tt.numWorkers, tt.numPS, tt.role, tt.index, testAddressing)
			if err != nil {
				t.Fatalf("BuildClusterSpec failed: %v", err)
			}
			got, err := spec.Descriptor()
			if err != nil {
				t.Fatalf("Descriptor failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("Descriptor() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestBuildClusterSpecAscendingOrder(t *testing.T) {
	spec, err := BuildClusterSpec(3, 2, RoleWorker, 0, testAddressing)
	if err != nil {
		t.Fatalf("BuildClusterSpec failed: %v", err)
	}
	want := ClusterEndpoints{
		Worker: []string{"worker-0.test:2222", "worker-1.test:2222", "worker-2.test:2222"},
		PS:     []string{"ps-0.test:2222", "ps-1.test:2222"},
	}
	if diff := cmp.Diff(want, spec.Cluster); diff != "" {
		t.Errorf("endpoints mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildClusterSpecErrors(t *testing.T) {
	tests := []struct {
		name    string
		workers int
		ps      int
		role    TaskRole
		addr    AddressFunc
		wantErr error
	}{
		{name: "nil addressing", role: RoleWorker, wantErr: ErrInvalidArgument},
		{name: "unresolved role", addr: testAddressing, wantErr: ErrMissingRequiredField},
		{name: "negative workers", workers: -1, role: RoleWorker, addr: testAddressing, wantErr: ErrInvalidArgument},
		{name: "negative ps", ps: -2, role: RolePS, addr: testAddressing, wantErr: ErrInvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BuildClusterSpec(tt.workers, tt.ps, tt.role, 0, tt.addr)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestExportLineQuotesDescriptor(t *testing.T) {
	addr := func(role TaskRole, index int) string { return "it's-" + role.String() }
	spec, err := BuildClusterSpec(1, 0, RoleWorker, 0, addr)
	if err != nil {
		t.Fatalf("BuildClusterSpec failed: %v", err)
	}
	got, err := spec.ExportLine()
	if err != nil {
		t.Fatalf("ExportLine failed: %v", err)
	}
	want := `export TF_CONFIG='{"cluster":{"worker":["it'"'"'s-worker"],"ps":[]},"task":{"type":"worker","index":0}}'`
	if got != want {
		t.Errorf("ExportLine() = %s, want %s", got, want)
	}
}

func TestServiceDNSEndpoint(t *testing.T) {
	tests := []struct {
		name  string
		dns   ServiceDNS
		role  TaskRole
		index int
		want  string
	}{
		{
			name:  "full registry name",
			dns:   ServiceDNS{Service: "mnist", User: "alice", Domain: "example.com", Port: 9000},
			role:  RolePS,
			index: 3,
			want:  "ps-3.mnist.alice.example.com:9000",
		},
		{
			name: "default port",
			dns:  ServiceDNS{Service: "mnist"},
			role: RoleWorker,
			want: "worker-0.mnist:8000",
		},
		{
			name:  "bare host",
			dns:   ServiceDNS{Port: 1},
			role:  RoleWorker,
			index: 7,
			want:  "worker-7:1",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.dns.Endpoint(tt.role, tt.index); got != tt.want {
				t.Errorf("Endpoint() = %q, want %q", got, tt.want)
			}
		})
	}
}
