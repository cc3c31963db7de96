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

// Package cmd defines command line utilities for tfjob
package cmd

import (
	"os"

	"tfjob-toolkit/pkg/logging"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

var (
	logLevel string

	// appFs is the filesystem commands read job files from and write scripts to.
	appFs = afero.NewOsFs()
)

var rootCmd = &cobra.Command{
	Use:   "tfjob",
	Short: "tfjob generates launch scripts for distributed TensorFlow training jobs.",
	Long: `tfjob generates the per-task launch script of a distributed TensorFlow
training job: the environment exports, the TF_CONFIG cluster descriptor that
tells every task where its peers are, and the user's launch command.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if err := logging.SetLevel(logLevel); err != nil {
			logging.Fatal("%v", err)
		}
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Logging level: debug, info, warn or error.")
}

// Execute the root command
func Execute() error {
	return rootCmd.Execute()
}

// environ is swapped in tests.
var environ = os.Environ
