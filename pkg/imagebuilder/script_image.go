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

// Package imagebuilder bakes launch scripts, and optionally the training code
// they run, into a container image layer.
package imagebuilder

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"tfjob-toolkit/pkg/launch"
	"tfjob-toolkit/pkg/logging"

	"github.com/google/go-containerregistry/pkg/compression"
	"github.com/google/go-containerregistry/pkg/crane"
	"github.com/google/go-containerregistry/pkg/name"
	v1 "github.com/google/go-containerregistry/pkg/v1"
	"github.com/google/go-containerregistry/pkg/v1/mutate"
	"github.com/google/go-containerregistry/pkg/v1/tarball"
	"github.com/moby/patternmatcher"
	"github.com/moby/patternmatcher/ignorefile"
	"github.com/spf13/afero"
)

// DockerPlatform represents the target platform for a Docker image.
type DockerPlatform string

const (
	LinuxAMD64 DockerPlatform = "linux/amd64"
	LinuxARM64 DockerPlatform = "linux/arm64"
)

// WorkDir is where the training code directory lands inside the image.
const WorkDir = "/workspace"

// DefaultIgnorePatterns are never baked into an image.
var DefaultIgnorePatterns = []string{".git", ".dockerignore", "**/__pycache__"}

// Entries are stamped with a fixed time so identical inputs give identical
// layers.
var epoch = time.Unix(0, 0)

// ScriptImage collects launch scripts in memory and bakes them into a layer on
// top of a base image. It implements storage.Store and is safe for concurrent
// Put calls.
type ScriptImage struct {
	fs        afero.Fs
	scriptDir string

	contextDir string
	ignore     *patternmatcher.PatternMatcher

	mu      sync.Mutex
	scripts map[string][]byte
}

// NewScriptImage returns an empty ScriptImage placing scripts under scriptDir.
func NewScriptImage(fs afero.Fs, scriptDir string) *ScriptImage {
	return &ScriptImage{
		fs:        fs,
		scriptDir: scriptDir,
		scripts:   map[string][]byte{},
	}
}

// WithContextDir also bakes dir into WorkDir, skipping paths matched by ignore.
// A nil ignore keeps everything.
func (s *ScriptImage) WithContextDir(dir string, ignore *patternmatcher.PatternMatcher) *ScriptImage {
	s.contextDir = dir
	s.ignore = ignore
	return s
}

// Put implements storage.Store. It returns the path the script will have
// inside the image.
func (s *ScriptImage) Put(_ context.Context, name string, lines []string) (string, error) {
	if name == "" || strings.Contains(name, "/") {
		return "", fmt.Errorf("invalid script name %q", name)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scripts[name] = []byte(launch.Script(lines))
	return path.Join(s.scriptDir, name), nil
}

// Layer returns a gzip compressed layer holding every script put so far and
// the context directory, if any.
func (s *ScriptImage) Layer() (v1.Layer, error) {
	var buf bytes.Buffer
	if err := s.writeTar(&buf); err != nil {
		return nil, err
	}
	data := buf.Bytes()
	layer, err := tarball.LayerFromOpener(func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(data)), nil
	}, tarball.WithCompression(compression.GZip))
	if err != nil {
		return nil, fmt.Errorf("failed to create layer from tarball: %w", err)
	}
	return layer, nil
}

// Build appends the script layer to base.
func (s *ScriptImage) Build(base v1.Image) (v1.Image, error) {
	layer, err := s.Layer()
	if err != nil {
		return nil, err
	}
	img, err := mutate.AppendLayers(base, layer)
	if err != nil {
		return nil, fmt.Errorf("failed to append layer: %w", err)
	}
	return img, nil
}

// Push pulls base for platform, appends the script layer and pushes the result
// to target. It returns the pushed image by digest.
func (s *ScriptImage) Push(ctx context.Context, base, target, platformStr string) (string, error) {
	platform, err := parsePlatform(platformStr)
	if err != nil {
		return "", err
	}
	baseRef, err := name.ParseReference(base)
	if err != nil {
		return "", fmt.Errorf("failed to parse base image reference %q: %w", base, err)
	}
	targetRef, err := name.ParseReference(target)
	if err != nil {
		return "", fmt.Errorf("failed to parse new image reference %q: %w", target, err)
	}

	logging.Info("Pulling base image %s for %s/%s", baseRef, platform.OS, platform.Architecture)
	baseImg, err := crane.Pull(baseRef.String(), crane.WithContext(ctx), crane.WithPlatform(&platform))
	if err != nil {
		return "", fmt.Errorf("failed to pull base image %q: %w", base, err)
	}
	img, err := s.Build(baseImg)
	if err != nil {
		return "", err
	}

	logging.Info("Uploading container image to %s", targetRef)
	if err := crane.Push(img, targetRef.String(), crane.WithContext(ctx)); err != nil {
		return "", fmt.Errorf("failed to push image %q: %w", target, err)
	}
	digest, err := img.Digest()
	if err != nil {
		return "", fmt.Errorf("failed to compute digest of %q: %w", target, err)
	}
	pushed := targetRef.Context().Digest(digest.String()).String()
	logging.Info("Image %s built and uploaded successfully.", pushed)
	return pushed, nil
}

func (s *ScriptImage) writeTar(w io.Writer) (err error) {
	gzipWriter := gzip.NewWriter(w)
	tarWriter := tar.NewWriter(gzipWriter)
	defer func() {
		if closeErr := tarWriter.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close tar writer: %w", closeErr)
		}
		if closeErr := gzipWriter.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close gzip writer: %w", closeErr)
		}
	}()

	if err := writeDirs(tarWriter, s.scriptDir); err != nil {
		return err
	}
	s.mu.Lock()
	names := make([]string, 0, len(s.scripts))
	for n := range s.scripts {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		header := &tar.Header{
			Name:     tarPath(path.Join(s.scriptDir, n)),
			Typeflag: tar.TypeReg,
			Mode:     0755,
			Size:     int64(len(s.scripts[n])),
			ModTime:  epoch,
		}
		if err := tarWriter.WriteHeader(header); err != nil {
			s.mu.Unlock()
			return fmt.Errorf("failed to write tar header for %q: %w", n, err)
		}
		if _, err := tarWriter.Write(s.scripts[n]); err != nil {
			s.mu.Unlock()
			return fmt.Errorf("failed to write launch script %q: %w", n, err)
		}
	}
	s.mu.Unlock()

	if s.contextDir == "" {
		return nil
	}
	if err := writeDirs(tarWriter, WorkDir); err != nil {
		return err
	}
	logging.Info("Adding training code from %s to %s", s.contextDir, WorkDir)
	return afero.Walk(s.fs, s.contextDir, func(p string, info fs.FileInfo, walkErr error) error {
		return s.addContextEntry(tarWriter, p, info, walkErr)
	})
}

func (s *ScriptImage) addContextEntry(tarWriter *tar.Writer, p string, info fs.FileInfo, walkErr error) error {
	if walkErr != nil {
		return walkErr
	}
	relPath, err := filepath.Rel(s.contextDir, p)
	if err != nil {
		return fmt.Errorf("failed to get relative path for %q: %w", p, err)
	}
	if relPath == "." {
		return nil
	}

	skip, err := ignored(s.ignore, relPath, info.IsDir())
	if err != nil {
		return fmt.Errorf("failed to check ignore patterns for %q: %w", p, err)
	}
	if skip {
		if info.IsDir() {
			logging.Debug("Ignoring directory %q", relPath)
			return filepath.SkipDir
		}
		logging.Debug("Ignoring file %q", relPath)
		return nil
	}
	if !info.IsDir() && !info.Mode().IsRegular() {
		logging.Debug("Skipping non-regular file %q", relPath)
		return nil
	}

	header, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return fmt.Errorf("failed to create tar header for %q: %w", p, err)
	}
	header.Name = tarPath(path.Join(WorkDir, filepath.ToSlash(relPath)))
	if info.IsDir() {
		header.Name += "/"
	}
	header.ModTime = epoch
	if err := tarWriter.WriteHeader(header); err != nil {
		return fmt.Errorf("failed to write tar header for %q: %w", p, err)
	}
	if info.IsDir() {
		return nil
	}

	file, err := s.fs.Open(p)
	if err != nil {
		return fmt.Errorf("failed to open file %q: %w", p, err)
	}
	defer file.Close()
	if _, err := io.Copy(tarWriter, file); err != nil {
		return fmt.Errorf("failed to write file content for %q: %w", p, err)
	}
	return nil
}

// writeDirs writes a directory entry for dir and each of its parents.
func writeDirs(tarWriter *tar.Writer, dir string) error {
	var prefix string
	for _, elem := range strings.Split(tarPath(dir), "/") {
		if elem == "" {
			continue
		}
		prefix = path.Join(prefix, elem)
		header := &tar.Header{
			Name:     prefix + "/",
			Typeflag: tar.TypeDir,
			Mode:     0755,
			ModTime:  epoch,
		}
		if err := tarWriter.WriteHeader(header); err != nil {
			return fmt.Errorf("failed to write tar header for %q: %w", prefix, err)
		}
	}
	return nil
}

// tarPath strips the leading slash; layer entries are relative to the root.
func tarPath(p string) string {
	return strings.TrimPrefix(path.Clean(p), "/")
}

// ignored reports whether relPath is excluded by matcher. Directories are
// matched with a trailing slash, as patternmatcher expects.
func ignored(matcher *patternmatcher.PatternMatcher, relPath string, isDir bool) (bool, error) {
	if matcher == nil {
		return false, nil
	}
	relPathSlash := filepath.ToSlash(relPath)
	if isDir && !strings.HasSuffix(relPathSlash, "/") {
		relPathSlash += "/"
	}
	return matcher.MatchesOrParentMatches(relPathSlash)
}

// ReadIgnorePatterns builds a matcher from defaultPatterns plus the
// .dockerignore file in dir, if there is one.
func ReadIgnorePatterns(fsys afero.Fs, dir string, defaultPatterns []string) (*patternmatcher.PatternMatcher, error) {
	dockerignorePath := filepath.Join(dir, ".dockerignore")

	patterns := make([]string, len(defaultPatterns))
	copy(patterns, defaultPatterns)

	file, err := fsys.Open(dockerignorePath)
	switch {
	case err == nil:
		defer file.Close()
		filePatterns, err := ignorefile.ReadAll(file)
		if err != nil {
			return nil, fmt.Errorf("failed to read .dockerignore file %q: %w", dockerignorePath, err)
		}
		patterns = append(patterns, filePatterns...)
		logging.Info("Found %d patterns in .dockerignore at %q", len(filePatterns), dockerignorePath)
	case !errors.Is(err, fs.ErrNotExist):
		return nil, fmt.Errorf("failed to open .dockerignore file %q: %w", dockerignorePath, err)
	}

	matcher, err := patternmatcher.New(patterns)
	if err != nil {
		return nil, fmt.Errorf("failed to create pattern matcher: %w", err)
	}
	return matcher, nil
}

// parsePlatform converts a platform string (e.g., "linux/amd64") into a
// v1.Platform. An empty string means LinuxAMD64.
func parsePlatform(platformStr string) (v1.Platform, error) {
	if platformStr == "" {
		platformStr = string(LinuxAMD64)
	}
	parts := strings.Split(platformStr, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return v1.Platform{}, fmt.Errorf("invalid platform format: %q, expected \"os/arch\"", platformStr)
	}
	return v1.Platform{
		OS:           parts[0],
		Architecture: parts[1],
	}, nil
}
