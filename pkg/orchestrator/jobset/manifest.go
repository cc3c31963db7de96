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
	"bytes"
	"fmt"
	"path"
	"strings"
	"text/template"

	"tfjob-toolkit/pkg/launch"

	"golang.org/x/exp/slices"
	"k8s.io/apimachinery/pkg/api/resource"
	"k8s.io/apimachinery/pkg/util/validation"
)

// ScriptMountPath is where launch scripts are mounted inside task containers.
const ScriptMountPath = "/mnt/launch"

// JobSetTemplate is the Go template for generating a Kubernetes JobSet
// manifest with one replicated job per task role.
const JobSetTemplate = `
apiVersion: jobset.x-k8s.io/v1alpha2
kind: JobSet
metadata:
  name: {{.WorkloadName}}
  labels:
    tfjob.toolkit/workload: {{.WorkloadName}}
    kueue.x-k8s.io/queue-name: {{.KueueQueueName}}
spec:
  ttlSecondsAfterFinished: {{.TtlSecondsAfterFinished}}
  failurePolicy:
    maxRestarts: {{.MaxRestarts}}
{{- if .WorkersDecideSuccess}}
  successPolicy:
    operator: All
    targetReplicatedJobs:
    - {{.WorkerRole}}
{{- end}}
  network:
    enableDNSHostnames: true
    subdomain: {{.WorkloadName}}
  replicatedJobs:
{{- range .ReplicatedJobs}}
    - name: {{.Role}}
      replicas: 1
      template:
        spec:
          parallelism: {{.Tasks}}
          completions: {{.Tasks}}
          completionMode: Indexed
          backoffLimit: 0
          template:
            metadata:
              labels:
                tfjob.toolkit/workload: {{$.WorkloadName}}
                tfjob.toolkit/role: {{.Role}}
            spec:
              restartPolicy: Never
              containers:
              - name: {{.Role}}
                image: {{$.FullImageName}}
                command: ["/bin/bash", "{{$.ScriptMountPath}}/{{.Role}}-$(JOB_COMPLETION_INDEX).sh"]
                ports:
                - containerPort: {{$.Port}}
                resources:
                  limits:
                    nvidia.com/gpu: "{{$.GpuLimit}}"
                    cpu: "{{$.CPULimit}}"
                    memory: "{{$.MemoryLimit}}"
{{- if not $.ScriptsBaked}}
                volumeMounts:
                - name: launch-scripts
                  mountPath: {{$.ScriptMountPath}}
                  readOnly: true
              volumes:
              - name: launch-scripts
{{- if $.ScriptClaim}}
                persistentVolumeClaim:
                  claimName: {{$.ScriptClaim}}
                  readOnly: true
{{- else if $.ScriptBucket}}
                csi:
                  driver: gcsfuse.csi.storage.gke.io
                  readOnly: true
                  volumeAttributes:
                    bucketName: {{$.ScriptBucket}}
{{- if $.ScriptPrefix}}
                    mountOptions: "only-dir={{$.ScriptPrefix}}"
{{- end}}
{{- else}}
                hostPath:
                  path: {{$.ScriptHostPath}}
                  type: Directory
{{- end}}
{{- end}}
{{- if $.AcceleratorTypeLabel}}
              nodeSelector:
                cloud.google.com/gke-accelerator: {{$.AcceleratorTypeLabel}}
{{- end}}
{{- end}}
`

// ManifestOptions holds parameters for JobSet manifest generation.
type ManifestOptions struct {
	WorkloadName    string
	FullImageName   string
	AcceleratorType string // e.g. "nvidia-tesla-a100"
	GpuLimit        string // Overrides the accelerator default when set
	CPULimit        string
	MemoryLimit     string
	KueueQueueName  string
	Port            int

	// Tasks per role; roles with no tasks get no replicated job.
	NumTasks map[launch.TaskRole]int

	// Exactly one of ScriptClaim, a gs:// ScriptLocation, or a local
	// ScriptLocation decides how scripts reach the containers.
	ScriptLocation string
	ScriptClaim    string
	// ScriptsBaked means the scripts are part of the image at
	// ScriptMountPath and no volume is mounted.
	ScriptsBaked   bool

	MaxRestarts             int
	TtlSecondsAfterFinished int
}

type replicatedJob struct {
	Role  launch.TaskRole
	Tasks int
}

type resourceLimits struct {
	gpu, cpu, memory string
}

var acceleratorLimits = map[string]resourceLimits{
	"nvidia-tesla-a100": {gpu: "1", cpu: "8", memory: "64Gi"},
	"nvidia-l4":         {gpu: "1", cpu: "4", memory: "16Gi"},
	"tpu-v4-podslice":   {gpu: "0", cpu: "16", memory: "128Gi"},
}

// Default CPU-only workload.
var defaultLimits = resourceLimits{gpu: "0", cpu: "0.5", memory: "512Mi"}

// SupportedAccelerators lists the accelerator types with known resource limits.
var SupportedAccelerators = []string{"nvidia-l4", "nvidia-tesla-a100", "tpu-v4-podslice"}

// GenerateNodeSelectorLabel generates the node selector label based on
// accelerator type. Unknown accelerators get no node selector.
func GenerateNodeSelectorLabel(acceleratorType string) string {
	if slices.Contains(SupportedAccelerators, acceleratorType) {
		return acceleratorType
	}
	return ""
}

// scriptSource splits a script location into a Cloud Storage bucket and
// prefix, or a host path for anything that is not a gs:// URL.
func scriptSource(location string) (bucket, prefix, hostPath string) {
	rest, isGCS := strings.CutPrefix(location, "gs://")
	if !isGCS {
		return "", "", location
	}
	bucket, prefix, _ = strings.Cut(rest, "/")
	return bucket, strings.Trim(prefix, "/"), ""
}

// ValidateWorkloadName checks that name can be used as a JobSet name and DNS
// subdomain.
func ValidateWorkloadName(name string) error {
	if errs := validation.IsDNS1123Label(name); len(errs) > 0 {
		return fmt.Errorf("invalid workload name %q: %s", name, strings.Join(errs, "; "))
	}
	return nil
}

func resolveLimits(opts ManifestOptions) (resourceLimits, error) {
	limits := defaultLimits
	if slices.Contains(SupportedAccelerators, opts.AcceleratorType) {
		limits = acceleratorLimits[opts.AcceleratorType]
	}
	if opts.GpuLimit != "" {
		limits.gpu = opts.GpuLimit
	}
	if opts.CPULimit != "" {
		limits.cpu = opts.CPULimit
	}
	if opts.MemoryLimit != "" {
		limits.memory = opts.MemoryLimit
	}
	for name, value := range map[string]string{"gpu": limits.gpu, "cpu": limits.cpu, "memory": limits.memory} {
		if _, err := resource.ParseQuantity(value); err != nil {
			return resourceLimits{}, fmt.Errorf("invalid %s limit %q: %w", name, value, err)
		}
	}
	return limits, nil
}

// GenerateManifest generates the Kubernetes JobSet manifest content.
func GenerateManifest(opts ManifestOptions) (string, error) {
	if err := ValidateWorkloadName(opts.WorkloadName); err != nil {
		return "", err
	}
	if opts.FullImageName == "" {
		return "", fmt.Errorf("image name cannot be empty")
	}

	var jobs []replicatedJob
	for _, role := range launch.Roles {
		if n := opts.NumTasks[role]; n > 0 {
			jobs = append(jobs, replicatedJob{Role: role, Tasks: n})
		}
	}
	if len(jobs) == 0 {
		return "", fmt.Errorf("workload %q has no tasks to run", opts.WorkloadName)
	}

	limits, err := resolveLimits(opts)
	if err != nil {
		return "", err
	}

	kueueQueueName := opts.KueueQueueName
	if kueueQueueName == "" {
		kueueQueueName = "default-queue"
	}
	maxRestarts := opts.MaxRestarts
	if maxRestarts == 0 {
		maxRestarts = 1
	}
	ttlSecondsAfterFinished := opts.TtlSecondsAfterFinished
	if ttlSecondsAfterFinished == 0 {
		ttlSecondsAfterFinished = 3600
	}
	port := opts.Port
	if port == 0 {
		port = launch.DefaultPort
	}

	bucket, prefix, hostPath := scriptSource(opts.ScriptLocation)
	if !opts.ScriptsBaked && opts.ScriptClaim == "" {
		if bucket == "" && hostPath == "" {
			return "", fmt.Errorf("a script claim or script location is required")
		}
		if hostPath != "" && !path.IsAbs(hostPath) {
			return "", fmt.Errorf("script location %q must be an absolute path when mounted from the host", hostPath)
		}
	}

	// Parameter servers never exit on their own, so the job is done once every
	// worker is.
	workersDecideSuccess := opts.NumTasks[launch.RolePS] > 0 && opts.NumTasks[launch.RoleWorker] > 0

	tmpl, err := template.New("jobSet").Parse(JobSetTemplate)
	if err != nil {
		return "", fmt.Errorf("failed to parse jobset template: %w", err)
	}

	data := struct {
		WorkloadName            string
		KueueQueueName          string
		TtlSecondsAfterFinished int
		MaxRestarts             int
		ReplicatedJobs          []replicatedJob
		WorkersDecideSuccess    bool
		WorkerRole              launch.TaskRole
		FullImageName           string
		Port                    int
		ScriptMountPath         string
		ScriptClaim             string
		ScriptBucket            string
		ScriptPrefix            string
		ScriptHostPath          string
		ScriptsBaked            bool
		AcceleratorTypeLabel    string
		GpuLimit                string
		CPULimit                string
		MemoryLimit             string
	}{
		WorkloadName:            opts.WorkloadName,
		KueueQueueName:          kueueQueueName,
		TtlSecondsAfterFinished: ttlSecondsAfterFinished,
		MaxRestarts:             maxRestarts,
		ReplicatedJobs:          jobs,
		WorkersDecideSuccess:    workersDecideSuccess,
		WorkerRole:              launch.RoleWorker,
		FullImageName:           opts.FullImageName,
		Port:                    port,
		ScriptMountPath:         ScriptMountPath,
		ScriptClaim:             opts.ScriptClaim,
		ScriptBucket:            bucket,
		ScriptPrefix:            prefix,
		ScriptHostPath:          hostPath,
		ScriptsBaked:            opts.ScriptsBaked,
		AcceleratorTypeLabel:    GenerateNodeSelectorLabel(opts.AcceleratorType),
		GpuLimit:                limits.gpu,
		CPULimit:                limits.cpu,
		MemoryLimit:             limits.memory,
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute jobset template: %w", err)
	}
	return buf.String(), nil
}
