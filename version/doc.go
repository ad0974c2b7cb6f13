// Package version exposes the minutes build information.
//
//	go build -ldflags "-X github.com/kbukum/minutes/version.Version=1.0.0 \
//	  -X github.com/kbukum/minutes/version.GitCommit=$(git rev-parse --short HEAD)" ./cmd/minutes
package version
