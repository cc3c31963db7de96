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
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"tfjob-toolkit/pkg/imagebuilder"
	"tfjob-toolkit/pkg/launch"
	"tfjob-toolkit/pkg/logging"
	"tfjob-toolkit/pkg/orchestrator"
	"tfjob-toolkit/pkg/storage"

	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"
)

// maxParallelTasks bounds how many launch scripts are generated and stored at once.
const maxParallelTasks = 16

// StoreOpener returns the store launch scripts are written to.
type StoreOpener func(ctx context.Context, fs afero.Fs, location string) (storage.Store, error)

// ImagePusher bakes img on top of base, pushes it as target and returns the
// pushed reference.
type ImagePusher func(ctx context.Context, img *imagebuilder.ScriptImage, base, target, platform string) (string, error)

func pushImage(ctx context.Context, img *imagebuilder.ScriptImage, base, target, platform string) (string, error) {
	return img.Push(ctx, base, target, platform)
}

// JobSetOrchestrator implements the Orchestrator interface for Kubernetes
// JobSet. It writes one launch script per task and a JobSet manifest that runs
// them.
type JobSetOrchestrator struct {
	fs        afero.Fs
	out       io.Writer
	openStore StoreOpener
	pushImage ImagePusher
	lookup    launch.EnvLookup
}

// NewJobSetOrchestrator creates an orchestrator writing to fs. Manifests are
// printed to out when the job has no output manifest path.
func NewJobSetOrchestrator(fs afero.Fs, out io.Writer) *JobSetOrchestrator {
	return &JobSetOrchestrator{
		fs:        fs,
		out:       out,
		openStore: storage.Open,
		pushImage: pushImage,
		lookup:    os.LookupEnv,
	}
}

// WithStoreOpener replaces how the script store is opened.
func (o *JobSetOrchestrator) WithStoreOpener(open StoreOpener) *JobSetOrchestrator {
	o.openStore = open
	return o
}

// WithImagePusher replaces how baked images are pushed.
func (o *JobSetOrchestrator) WithImagePusher(push ImagePusher) *JobSetOrchestrator {
	o.pushImage = push
	return o
}

// WithEnvLookup replaces the host environment lookup used when a job asks for
// host environment discovery.
func (o *JobSetOrchestrator) WithEnvLookup(lookup launch.EnvLookup) *JobSetOrchestrator {
	o.lookup = lookup
	return o
}

// SubmitJob writes the launch scripts of every task and the JobSet manifest.
func (o *JobSetOrchestrator) SubmitJob(ctx context.Context, job orchestrator.JobDefinition) error {
	logging.Info("Starting tfjob run workflow for workload '%s'...", job.WorkloadName)

	if err := ValidateWorkloadName(job.WorkloadName); err != nil {
		return err
	}

	var (
		store storage.Store
		baked *imagebuilder.ScriptImage
		err   error
	)
	scriptLocation := job.ScriptLocation
	if job.BakeImage != "" {
		if baked, err = o.newScriptImage(job); err != nil {
			return err
		}
		store = baked
	} else {
		// Tasks mount local locations as host paths, which must be absolute.
		if scriptLocation != "" && !strings.HasPrefix(scriptLocation, "gs://") {
			if scriptLocation, err = filepath.Abs(scriptLocation); err != nil {
				return fmt.Errorf("failed to resolve script location %q: %w", job.ScriptLocation, err)
			}
		}
		if store, err = o.openStore(ctx, o.fs, scriptLocation); err != nil {
			return fmt.Errorf("failed to open script location %q: %w", scriptLocation, err)
		}
		if c, ok := store.(io.Closer); ok {
			defer c.Close()
		}
	}

	tasks := orchestrator.Tasks(job.Params)
	locations, err := o.writeScripts(ctx, store, job, tasks)
	if err != nil {
		return err
	}
	for _, location := range locations {
		logging.Debug("Launch script at %s", location)
	}

	image := job.DockerImage
	if baked != nil {
		logging.Info("Baking launch scripts into %s", job.BakeImage)
		if image, err = o.pushImage(ctx, baked, job.DockerImage, job.BakeImage, job.Platform); err != nil {
			return fmt.Errorf("failed to bake launch scripts into %s: %w", job.BakeImage, err)
		}
	}

	numTasks := map[launch.TaskRole]int{}
	for _, task := range tasks {
		numTasks[task.Role]++
	}

	logging.Info("Generating JobSet manifest...")
	manifest, err := GenerateManifest(ManifestOptions{
		WorkloadName:            job.WorkloadName,
		FullImageName:           image,
		AcceleratorType:         job.AcceleratorType,
		KueueQueueName:          job.KueueQueueName,
		Port:                    job.Port,
		NumTasks:                numTasks,
		ScriptLocation:          scriptLocation,
		ScriptClaim:             job.ScriptClaim,
		ScriptsBaked:            baked != nil,
		MaxRestarts:             job.MaxRestarts,
		TtlSecondsAfterFinished: job.TtlSecondsAfterFinished,
	})
	if err != nil {
		return fmt.Errorf("failed to generate JobSet manifest: %w", err)
	}

	if job.OutputManifest != "" {
		logging.Info("Saving JobSet manifest to %s", job.OutputManifest)
		if err := afero.WriteFile(o.fs, job.OutputManifest, []byte(manifest), 0644); err != nil {
			return fmt.Errorf("failed to write JobSet manifest to file %s: %w", job.OutputManifest, err)
		}
		logging.Info("JobSet manifest saved successfully.")
	} else if _, err := io.WriteString(o.out, manifest); err != nil {
		return fmt.Errorf("failed to print JobSet manifest: %w", err)
	}

	logging.Info("tfjob run workflow completed.")
	return nil
}

// writeScripts generates and stores the script of every task concurrently.
// Scripts are named <role>-<index>.sh. It returns the stored locations in
// task order.
func (o *JobSetOrchestrator) writeScripts(ctx context.Context, store storage.Store, job orchestrator.JobDefinition, tasks []orchestrator.Task) ([]string, error) {
	opts := []launch.Option{
		launch.WithAddressing(Addressing(job.WorkloadName, job.Port)),
		launch.WithLogger(logging.Logger()),
	}
	if job.DiscoverHostEnv {
		opts = append(opts, launch.WithEnvLookup(o.lookup))
	}

	locations := make([]string, len(tasks))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelTasks)
	for i, task := range tasks {
		g.Go(func() error {
			taskOpts := append([]launch.Option{launch.WithTaskIndex(task.Index)}, opts...)
			gen := launch.NewLaunchCommand(task.Role, job.Params, taskOpts...)
			lines, err := gen.GenerateLaunchScript()
			if err != nil {
				return fmt.Errorf("failed to generate launch script for %s %d: %w", gen.Role(), gen.Index(), err)
			}
			location, err := store.Put(ctx, ScriptName(task), lines)
			if err != nil {
				return fmt.Errorf("failed to store launch script for %s %d: %w", gen.Role(), gen.Index(), err)
			}
			locations[i] = location
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	logging.Info("Wrote %d launch scripts", len(tasks))
	return locations, nil
}

// newScriptImage collects scripts for baking, with the job's training code
// directory if it has one.
func (o *JobSetOrchestrator) newScriptImage(job orchestrator.JobDefinition) (*imagebuilder.ScriptImage, error) {
	img := imagebuilder.NewScriptImage(o.fs, ScriptMountPath)
	if job.ContextDir == "" {
		return img, nil
	}
	matcher, err := imagebuilder.ReadIgnorePatterns(o.fs, job.ContextDir, imagebuilder.DefaultIgnorePatterns)
	if err != nil {
		return nil, err
	}
	return img.WithContextDir(job.ContextDir, matcher), nil
}

// ScriptName returns the file name of a task's launch script.
func ScriptName(task orchestrator.Task) string {
	return fmt.Sprintf("%s-%d.sh", task.Role, task.Index)
}
