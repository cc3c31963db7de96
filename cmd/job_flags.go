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
	"tfjob-toolkit/pkg/config"
	"tfjob-toolkit/pkg/launch"

	"github.com/spf13/cobra"
)

// jobFlags are the job parameter flags shared by generate and run.
type jobFlags struct {
	jobFile         string
	name            string
	inputPath       string
	distributed     bool
	numWorkers      int
	numPS           int
	workerLaunchCmd string
	psLaunchCmd     string
	envars          []string
	discoverHostEnv bool
}

func (f *jobFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.jobFile, "job-file", "j", "", "Path to a YAML or HCL job file. Flags that are set override its values.")
	cmd.Flags().StringVarP(&f.name, "name", "n", "", "Name of the training job.")
	cmd.Flags().StringVar(&f.inputPath, "input-path", "", "Location of the training input data (e.g., hdfs://nn/data).")
	cmd.Flags().BoolVar(&f.distributed, "distributed", false, "Run as a distributed job and export TF_CONFIG.")
	cmd.Flags().IntVar(&f.numWorkers, "num-workers", 1, "Number of worker tasks.")
	cmd.Flags().IntVar(&f.numPS, "num-ps", 0, "Number of parameter server tasks.")
	cmd.Flags().StringVar(&f.workerLaunchCmd, "worker-launch-cmd", "", "Command run by worker tasks (e.g., 'python train.py').")
	cmd.Flags().StringVar(&f.psLaunchCmd, "ps-launch-cmd", "", "Command run by parameter server tasks.")
	cmd.Flags().StringArrayVar(&f.envars, "env", nil, "NAME=VALUE exported before the launch command. Repeatable; order is kept.")
	cmd.Flags().BoolVar(&f.discoverHostEnv, "discover-host-env", false, "Fill DOCKER_HADOOP_HDFS_HOME and DOCKER_JAVA_HOME from this host when not set.")
}

// params loads the job file, if any, and applies the flags on top of it.
func (f *jobFlags) params(cmd *cobra.Command) (launch.JobParameters, error) {
	var params launch.JobParameters
	if f.jobFile != "" {
		var err error
		if params, err = config.NewLoader(appFs, environ()).LoadJobFile(f.jobFile); err != nil {
			return launch.JobParameters{}, err
		}
	}

	use := func(flag string) bool {
		return f.jobFile == "" || cmd.Flags().Changed(flag)
	}
	if use("name") {
		params.Name = f.name
	}
	if use("input-path") {
		params.InputPath = f.inputPath
	}
	if use("distributed") {
		params.Distributed = f.distributed
	}
	if use("num-workers") {
		params.NumWorkers = f.numWorkers
	}
	if use("num-ps") {
		params.NumPS = f.numPS
	}
	if use("worker-launch-cmd") {
		params.WorkerLaunchCmd = f.workerLaunchCmd
	}
	if use("ps-launch-cmd") {
		params.PSLaunchCmd = f.psLaunchCmd
	}
	params.Envars = append(params.Envars, f.envars...)
	return params, nil
}
