// Marquee - Movie Recommendation Serving
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

//go:build integration

package testinfra

import (
	"context"
	"os/exec"
	"sync"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
)

var (
	dockerOnce      sync.Once
	dockerAvailable bool
)

// SkipIfNoDocker skips t when no Docker daemon answers. The probe runs once per test binary.
func SkipIfNoDocker(t *testing.T) {
	t.Helper()
	if !IsDockerAvailable() {
		t.Skip("Skipping test: Docker not available")
	}
}

// IsDockerAvailable reports whether `docker info` succeeds within five seconds.
func IsDockerAvailable() bool {
	dockerOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		dockerAvailable = exec.CommandContext(ctx, "docker", "info").Run() == nil
	})
	return dockerAvailable
}

// CleanupContainer terminates container, logging rather than failing on error.
// A nil container is ignored so it can be deferred before the error check.
//
//nolint:revive // t first matches the other helpers
func CleanupContainer(t *testing.T, ctx context.Context, container testcontainers.Container) {
	t.Helper()
	if container == nil {
		return
	}
	if err := container.Terminate(ctx); err != nil {
		t.Logf("Warning: failed to terminate container %s: %v", shortID(container), err)
	}
}

// ContainerLogs returns the container's output for failure messages.
func ContainerLogs(ctx context.Context, container testcontainers.Container) string {
	rc, err := container.Logs(ctx)
	if err != nil {
		return "<logs unavailable: " + err.Error() + ">"
	}
	defer rc.Close()

	buf := make([]byte, 0, 4096)
	chunk := make([]byte, 1024)
	for len(buf) < 64*1024 {
		n, err := rc.Read(chunk)
		buf = append(buf, chunk[:n]...)
		if err != nil {
			break
		}
	}
	return string(buf)
}

func shortID(container testcontainers.Container) string {
	id := container.GetContainerID()
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
