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
	"io"
	"strings"

	"github.com/sirupsen/logrus"
)

// ScriptHeader is the first line of every generated script.
const ScriptHeader = "#!/bin/bash"

// LaunchCommand generates the launch script of one task. It is bound to a
// single role for its lifetime and is safe for concurrent use as long as its
// addressing scheme and environment lookup are.
type LaunchCommand struct {
	role   TaskRole
	index  int
	params JobParameters
	addr   AddressFunc
	lookup EnvLookup
	log    logrus.FieldLogger
}

// Option configures a LaunchCommand.
type Option func(*LaunchCommand)

// WithTaskIndex sets the index of the task within its role. Defaults to 0.
func WithTaskIndex(index int) Option {
	return func(c *LaunchCommand) { c.index = index }
}

// WithAddressing sets the scheme used to compute peer endpoints. Defaults to
// ServiceDNS for the job name on DefaultPort.
func WithAddressing(addr AddressFunc) Option {
	return func(c *LaunchCommand) { c.addr = addr }
}

// WithEnvLookup sets the host environment lookup used for HostEnvNames.
func WithEnvLookup(lookup EnvLookup) Option {
	return func(c *LaunchCommand) { c.lookup = lookup }
}

// WithLogger sets the logger generation progress is reported to.
func WithLogger(log logrus.FieldLogger) Option {
	return func(c *LaunchCommand) { c.log = log }
}

// NewLaunchCommand returns a generator for a task of the given role.
func NewLaunchCommand(role TaskRole, params JobParameters, opts ...Option) *LaunchCommand {
	c := &LaunchCommand{
		role:   role,
		params: params,
		addr:   ServiceDNS{Service: params.Name}.Endpoint,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.log == nil {
		quiet := logrus.New()
		quiet.SetOutput(io.Discard)
		c.log = quiet
	}
	return c
}

// NewWorkerLaunchCommand returns a generator for a worker task.
func NewWorkerLaunchCommand(params JobParameters, opts ...Option) *LaunchCommand {
	return NewLaunchCommand(RoleWorker, params, opts...)
}

// NewPSLaunchCommand returns a generator for a parameter server task.
func NewPSLaunchCommand(params JobParameters, opts ...Option) *LaunchCommand {
	return NewLaunchCommand(RolePS, params, opts...)
}

// Role returns the role the generator is bound to.
func (c *LaunchCommand) Role() TaskRole {
	return c.role
}

// Index returns the task index the generator is bound to.
func (c *LaunchCommand) Index() int {
	return c.index
}

// GenerateLaunchScript returns the lines of the task's launch script: the
// interpreter header, the environment exports, the TF_CONFIG export for
// distributed jobs, and finally the role's launch command verbatim. No lines
// are returned on error.
func (c *LaunchCommand) GenerateLaunchScript() ([]string, error) {
	log := c.log.WithFields(logrus.Fields{"job": c.params.Name, "role": c.role, "index": c.index})

	if err := Validate(c.params, c.role, c.index); err != nil {
		log.WithError(err).Debug("launch script validation failed")
		return nil, err
	}
	log.Debug("launch script parameters validated")

	lines := []string{ScriptHeader}
	lines = append(lines, AssembleEnvironment(c.params, c.lookup)...)
	log.Debugf("launch script environment composed with %d lines", len(lines))

	if c.params.Distributed {
		spec, err := BuildClusterSpec(c.params.NumWorkers, c.params.NumPS, c.role, c.index, c.addr)
		if err != nil {
			return nil, err
		}
		export, err := spec.ExportLine()
		if err != nil {
			return nil, err
		}
		lines = append(lines, export)
	}

	lines = append(lines, c.params.LaunchCommand(c.role))
	log.Debugf("launch script complete with %d lines", len(lines))
	return lines, nil
}

// Script returns the generated lines joined into a newline terminated script.
func Script(lines []string) string {
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n") + "\n"
}
