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

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"tfjob-toolkit/pkg/imagebuilder"
	"tfjob-toolkit/pkg/launch"
	"tfjob-toolkit/pkg/logging"
	"tfjob-toolkit/pkg/orchestrator"
	"tfjob-toolkit/pkg/orchestrator/jobset"

	"github.com/spf13/cobra"
)

var (
	runJob          jobFlags
	dockerImage     string
	acceleratorType string
	outputManifest  string
	scriptLocation  string
	scriptClaim     string
	workloadName    string
	workloadPort    int
	bakeImage       string
	contextDir      string
	platform        string
	kueueQueueName  string

	maxRestarts             int
	ttlSecondsAfterFinished int
)

func init() {
	rootCmd.AddCommand(runCmd)

	runJob.register(runCmd)
	runCmd.Flags().StringVarP(&workloadName, "workload-name", "w", "", "Name of the workload (JobSet) to create. Required.")
	runCmd.Flags().StringVarP(&dockerImage, "docker-image", "i", "", "Name of the Docker image every task runs (e.g., tensorflow/tensorflow:2.15.0). Required.")
	runCmd.Flags().StringVarP(&acceleratorType, "accelerator-type", "a", "", "Type of accelerator to request (e.g., 'nvidia-tesla-a100'). CPU only if empty.")
	runCmd.Flags().StringVarP(&outputManifest, "output-manifest", "o", "", "Path to write the generated JobSet manifest to. Printed to stdout if empty.")
	runCmd.Flags().StringVar(&scriptLocation, "script-location", "launch-scripts", "Directory or gs:// URL the launch scripts are written to.")
	runCmd.Flags().StringVar(&scriptClaim, "script-claim", "", "PersistentVolumeClaim exposing the script location to the tasks.")
	runCmd.Flags().StringVar(&bakeImage, "bake-image", "", "Image to push with the launch scripts baked in on top of --docker-image. No script volume is mounted when set.")
	runCmd.Flags().StringVarP(&contextDir, "context-dir", "c", "", "Training code directory baked into /workspace of --bake-image, filtered by its .dockerignore.")
	runCmd.Flags().StringVarP(&platform, "platform", "f", string(imagebuilder.LinuxAMD64), "Platform of the base image to bake on, as os/arch.")
	runCmd.Flags().StringVar(&kueueQueueName, "kueue-queue", "", "Name of the Kueue LocalQueue to submit the workload to. Defaults to default-queue.")
	runCmd.Flags().IntVar(&workloadPort, "port", launch.DefaultPort, "Port training tasks listen on.")
	runCmd.Flags().IntVar(&maxRestarts, "max-restarts", 1, "Maximum number of restarts for the JobSet before failing.")
	runCmd.Flags().IntVar(&ttlSecondsAfterFinished, "ttl-seconds-after-finished", 3600, "Time (in seconds) to retain the JobSet after it finishes.")

	_ = runCmd.MarkFlagRequired("workload-name")
	_ = runCmd.MarkFlagRequired("docker-image")
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Writes launch scripts for every task of a training job and a JobSet that runs them.",
	Long: `The 'run' command generates the launch script of every worker and parameter
server of a training job, stores them in a directory or Cloud Storage bucket,
and produces a Kubernetes JobSet manifest with one replicated job per role.

Tasks find each other through JobSet pod DNS names, which are embedded in the
TF_CONFIG of every script.`,
	Run:          runRunCmd,
	SilenceUsage: true,
}

func runRunCmd(cmd *cobra.Command, args []string) {
	logging.Info("Executing tfjob run command...")
	if err := run(cmd, os.Stdout); err != nil {
		logging.Fatal("tfjob run failed: %v", err)
	}
}

func run(cmd *cobra.Command, stdout io.Writer) error {
	if contextDir != "" && bakeImage == "" {
		return fmt.Errorf("--context-dir requires --bake-image")
	}
	params, err := runJob.params(cmd)
	if err != nil {
		return err
	}
	if params.Name == "" {
		params.Name = workloadName
	}

	jobDef := orchestrator.JobDefinition{
		Params:                  params,
		WorkloadName:            workloadName,
		DockerImage:             dockerImage,
		AcceleratorType:         acceleratorType,
		KueueQueueName:          kueueQueueName,
		Port:                    workloadPort,
		DiscoverHostEnv:         runJob.discoverHostEnv,
		ScriptLocation:          scriptLocation,
		ScriptClaim:             scriptClaim,
		OutputManifest:          outputManifest,
		BakeImage:               bakeImage,
		ContextDir:              contextDir,
		Platform:                platform,
		MaxRestarts:             maxRestarts,
		TtlSecondsAfterFinished: ttlSecondsAfterFinished,
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return jobset.NewJobSetOrchestrator(appFs, stdout).SubmitJob(ctx, jobDef)
}
