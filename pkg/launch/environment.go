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
	"fmt"
	"strings"
)

const (
	// DockerHadoopHDFSHome is the distributed filesystem home inside the container.
	DockerHadoopHDFSHome = "DOCKER_HADOOP_HDFS_HOME"
	// DockerJavaHome is the runtime home inside the container.
	DockerJavaHome = "DOCKER_JAVA_HOME"
)

// HostEnvNames are the variables that may be discovered from the host when the
// job does not set them.
var HostEnvNames = []string{DockerHadoopHDFSHome, DockerJavaHome}

// EnvLookup resolves a variable from the host environment. os.LookupEnv
// satisfies it.
type EnvLookup func(name string) (string, bool)

// AssembleEnvironment returns one export line per override in params.Envars,
// in the order supplied. Host variables listed in HostEnvNames are appended
// from lookup only when no override names them; a nil lookup adds nothing.
func AssembleEnvironment(params JobParameters, lookup EnvLookup) []string {
	lines := make([]string, 0, len(params.Envars)+len(HostEnvNames))
	seen := make(map[string]bool, len(params.Envars))
	for _, kv := range params.Envars {
		seen[envName(kv)] = true
		lines = append(lines, "export "+kv)
	}

	if lookup == nil {
		return lines
	}
	for _, name := range HostEnvNames {
		if seen[name] {
			continue
		}
		if value, ok := lookup(name); ok && value != "" {
			lines = append(lines, fmt.Sprintf("export %s=%s", name, value))
		}
	}
	return lines
}

func envName(kv string) string {
	name, _, _ := strings.Cut(kv, "=")
	return strings.TrimSpace(name)
}
