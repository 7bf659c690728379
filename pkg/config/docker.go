package config

import (
	"os"
	"sync"
)

// dockerMarker exists in every Docker container.
var dockerMarker = "/.dockerenv"

var (
	isDockerOnce   sync.Once
	isDockerResult bool
)

// IsRunningInDocker reports whether the process runs inside a container.
// The result is cached after the first call.
func IsRunningInDocker() bool {
	isDockerOnce.Do(func() {
		_, err := os.Stat(dockerMarker)
		isDockerResult = err == nil
	})
	return isDockerResult
}

// ResolveHostForDocker rewrites loopback datasource hosts to
// host.docker.internal when running in a container, so a database on the
// host machine stays reachable.
func ResolveHostForDocker(host string) string {
	return resolveHost(host, IsRunningInDocker())
}

func resolveHost(host string, inDocker bool) string {
	if !inDocker {
		return host
	}
	switch host {
	case "localhost", "127.0.0.1", "::1":
		return "host.docker.internal"
	}
	return host
}
