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

// Package config loads training job parameters from YAML or HCL job files.
//
// HCL job files may reference the environment of the submitting host through
// the env object, e.g. worker_launch_cmd = "python train.py --user=${env.USER}".
package config

import (
	"bytes"
	"path/filepath"
	"strings"

	"tfjob-toolkit/pkg/launch"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"github.com/zclconf/go-cty/cty"
	"gopkg.in/yaml.v3"
)

// Loader reads job files from a filesystem.
type Loader struct {
	Fs afero.Fs
	// Environ is the host environment in os.Environ form, exposed to HCL job
	// files as the env object.
	Environ []string
}

// NewLoader returns a Loader reading from fs with the given environment.
func NewLoader(fs afero.Fs, environ []string) *Loader {
	return &Loader{Fs: fs, Environ: environ}
}

// LoadJobFile reads the job file at path. The format is chosen by extension.
func (l *Loader) LoadJobFile(path string) (launch.JobParameters, error) {
	content, err := afero.ReadFile(l.Fs, path)
	if err != nil {
		return launch.JobParameters{}, errors.Wrapf(err, "failed to read job file %q", path)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		return decodeYAML(path, content)
	case ".hcl":
		return decodeHCL(path, content, l.Environ)
	default:
		return launch.JobParameters{}, errors.Errorf("unsupported job file extension %q for %q, expected .yaml, .yml or .hcl", ext, path)
	}
}

func decodeYAML(path string, content []byte) (launch.JobParameters, error) {
	var params launch.JobParameters
	dec := yaml.NewDecoder(bytes.NewReader(content))
	dec.KnownFields(true)
	if err := dec.Decode(&params); err != nil {
		return launch.JobParameters{}, errors.Wrapf(err, "failed to decode YAML job file %q", path)
	}
	return params, nil
}

func decodeHCL(path string, content []byte, environ []string) (launch.JobParameters, error) {
	file, diags := hclparse.NewParser().ParseHCL(content, path)
	if diags.HasErrors() {
		return launch.JobParameters{}, errors.Wrapf(diags, "failed to parse HCL job file %q", path)
	}

	var params launch.JobParameters
	if diags := gohcl.DecodeBody(file.Body, evalContext(environ), &params); diags.HasErrors() {
		return launch.JobParameters{}, errors.Wrapf(diags, "failed to decode HCL job file %q", path)
	}
	return params, nil
}

func evalContext(environ []string) *hcl.EvalContext {
	vars := make(map[string]cty.Value, len(environ))
	for _, kv := range environ {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || name == "" {
			continue
		}
		vars[name] = cty.StringVal(value)
	}
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"env": cty.ObjectVal(vars),
		},
	}
}
