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

// Package storage persists generated launch scripts where task containers can
// read them.
package storage

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"tfjob-toolkit/pkg/launch"
	"tfjob-toolkit/pkg/logging"

	gcs "cloud.google.com/go/storage"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

// ScriptMode is the permission launch scripts are written with.
const ScriptMode os.FileMode = 0755

// Store writes named launch scripts.
type Store interface {
	// Put writes lines as the script called name and returns where it was
	// written.
	Put(ctx context.Context, name string, lines []string) (string, error)
}

// Open returns a GCSStore for gs:// locations and an FsStore rooted at
// location otherwise.
func Open(ctx context.Context, fs afero.Fs, location string) (Store, error) {
	if bucket, prefix, ok := parseGCSLocation(location); ok {
		return NewGCSStore(ctx, bucket, prefix)
	}
	return NewFsStore(fs, location), nil
}

// FsStore writes scripts under a root directory of an afero filesystem.
type FsStore struct {
	fs   afero.Fs
	root string
}

// NewFsStore returns a store writing under root.
func NewFsStore(fs afero.Fs, root string) *FsStore {
	return &FsStore{fs: fs, root: root}
}

// Put implements Store.
func (s *FsStore) Put(_ context.Context, name string, lines []string) (string, error) {
	target := filepath.Join(s.root, name)
	if err := s.fs.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return "", errors.Wrapf(err, "failed to create directory for %q", target)
	}
	if err := afero.WriteFile(s.fs, target, []byte(launch.Script(lines)), ScriptMode); err != nil {
		return "", errors.Wrapf(err, "failed to write launch script %q", target)
	}
	// WriteFile leaves the mode of an existing file untouched.
	if err := s.fs.Chmod(target, ScriptMode); err != nil {
		return "", errors.Wrapf(err, "failed to mark launch script %q executable", target)
	}
	logging.Debug("Wrote launch script %s", target)
	return target, nil
}

// GCSStore writes scripts as objects in a Cloud Storage bucket.
type GCSStore struct {
	client *gcs.Client
	bucket string
	prefix string
}

// NewGCSStore creates a Cloud Storage client using application default
// credentials.
func NewGCSStore(ctx context.Context, bucket, prefix string) (*GCSStore, error) {
	client, err := gcs.NewClient(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create Cloud Storage client")
	}
	return &GCSStore{client: client, bucket: bucket, prefix: prefix}, nil
}

// Put implements Store.
func (s *GCSStore) Put(ctx context.Context, name string, lines []string) (string, error) {
	object := path.Join(s.prefix, name)
	w := s.client.Bucket(s.bucket).Object(object).NewWriter(ctx)
	w.ContentType = "text/x-shellscript"
	w.Metadata = map[string]string{"mode": fmt.Sprintf("%04o", ScriptMode)}

	if _, err := w.Write([]byte(launch.Script(lines))); err != nil {
		w.Close()
		return "", errors.Wrapf(err, "failed to upload launch script to gs://%s/%s", s.bucket, object)
	}
	if err := w.Close(); err != nil {
		return "", errors.Wrapf(err, "failed to finalize launch script gs://%s/%s", s.bucket, object)
	}
	location := fmt.Sprintf("gs://%s/%s", s.bucket, object)
	logging.Debug("Uploaded launch script %s", location)
	return location, nil
}

// Close releases the Cloud Storage client.
func (s *GCSStore) Close() error {
	return s.client.Close()
}

func parseGCSLocation(location string) (bucket, prefix string, ok bool) {
	rest, found := strings.CutPrefix(location, "gs://")
	if !found || rest == "" {
		return "", "", false
	}
	bucket, prefix, _ = strings.Cut(rest, "/")
	return bucket, strings.Trim(prefix, "/"), bucket != ""
}
