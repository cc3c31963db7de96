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

import "github.com/pkg/errors"

var (
	// ErrInvalidArgument is wrapped by errors caused by a missing or malformed
	// job parameter, such as an empty launch command. A launch command made
	// only of whitespace counts as empty.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrMissingRequiredField is wrapped by errors caused by a field that must be
	// resolved before generation, such as the task role of a distributed job.
	ErrMissingRequiredField = errors.New("missing required field")
)

func invalidArgument(format string, args ...interface{}) error {
	return errors.WithMessagef(ErrInvalidArgument, format, args...)
}

func missingRequiredField(format string, args ...interface{}) error {
	return errors.WithMessagef(ErrMissingRequiredField, format, args...)
}
