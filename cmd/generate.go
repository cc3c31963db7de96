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
	"strings"

	"tfjob-toolkit/pkg/launch"
	"tfjob-toolkit/pkg/logging"
	"tfjob-toolkit/pkg/storage"

	"github.com/spf13/cobra"
)

var (
	generateJob  jobFlags
	taskRole     string
	taskIndex    int
	serviceName  string
	serviceUser  string
	domain       string
	port         int
	outputScript string
)

func init() {
	rootCmd.AddCommand(generateCmd)

	generateJob.register(generateCmd)
	generateCmd.Flags().StringVarP(&taskRole, "role", "r", "worker", "Role of the task: worker or ps.")
	generateCmd.Flags().IntVarP(&taskIndex, "task-index", "i", 0, "Index of the task within its role.")
	generateCmd.Flags().StringVar(&serviceName, "service", "", "Service name used in peer host names. Defaults to the job name.")
	generateCmd.Flags().StringVar(&serviceUser, "user", "", "User name used in peer host names.")
	generateCmd.Flags().StringVar(&domain, "domain", "", "DNS domain of the cluster registry.")
	generateCmd.Flags().IntVar(&port, "port", launch.DefaultPort, "Port training tasks listen on.")
	generateCmd.Flags().StringVarP(&outputScript, "output", "o", "-", "Where to write the script: '-' for stdout, a file path, or a gs:// URL.")
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generates the launch script of a single task.",
	Long: `The 'generate' command prints or writes the launch script of one task of a
training job. Peers are addressed as <role>-<index>.<service>.<user>.<domain>:<port>.`,
	Run:          runGenerateCmd,
	SilenceUsage: true,
}

func runGenerateCmd(cmd *cobra.Command, args []string) {
	if err := generate(cmd, os.Stdout); err != nil {
		logging.Fatal("tfjob generate failed: %v", err)
	}
}

func generate(cmd *cobra.Command, stdout io.Writer) error {
	params, err := generateJob.params(cmd)
	if err != nil {
		return err
	}

	// An unresolved role is reported by the generator itself.
	role, err := launch.ParseTaskRole(taskRole)
	if err != nil && !params.Distributed {
		return err
	}

	service := serviceName
	if service == "" {
		service = params.Name
	}
	opts := []launch.Option{
		launch.WithTaskIndex(taskIndex),
		launch.WithAddressing(launch.ServiceDNS{Service: service, User: serviceUser, Domain: domain, Port: port}.Endpoint),
		launch.WithLogger(logging.Logger()),
	}
	if generateJob.discoverHostEnv {
		opts = append(opts, launch.WithEnvLookup(os.LookupEnv))
	}

	lines, err := launch.NewLaunchCommand(role, params, opts...).GenerateLaunchScript()
	if err != nil {
		return err
	}

	if outputScript == "" || outputScript == "-" {
		_, err := io.WriteString(stdout, launch.Script(lines))
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	dir, name, err := splitLocation(outputScript)
	if err != nil {
		return err
	}
	store, err := storage.Open(ctx, appFs, dir)
	if err != nil {
		return err
	}
	if c, ok := store.(io.Closer); ok {
		defer c.Close()
	}
	location, err := store.Put(ctx, name, lines)
	if err != nil {
		return err
	}
	logging.Info("Launch script for %s %d written to %s", role, taskIndex, location)
	return nil
}

// splitLocation splits a file path or gs:// URL into its directory and base name.
func splitLocation(location string) (string, string, error) {
	if rest, ok := strings.CutPrefix(location, "gs://"); ok && !strings.Contains(rest, "/") {
		return "", "", fmt.Errorf("output location %q must name a script file inside the bucket", location)
	}
	i := strings.LastIndex(location, "/")
	var dir, name string
	switch {
	case i < 0:
		dir, name = ".", location
	case i == 0:
		dir, name = "/", location[1:]
	default:
		dir, name = location[:i], location[i+1:]
	}
	if name == "" {
		return "", "", fmt.Errorf("output location %q must name a script file", location)
	}
	return dir, name, nil
}
