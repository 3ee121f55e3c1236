// Package version holds build metadata set with -ldflags, e.g.
//
//	go build -ldflags "-X github.com/simp-lee/epubtidy/internal/version.GitRelease=v1.0.0"
package version

import "runtime"

var (
	// GitRelease is the release tag.
	GitRelease = "dev"
	// GitCommit is the commit hash.
	GitCommit = "unknown"
	// GitCommitDate is the commit date.
	GitCommitDate = "unknown"
	// GoInfo is the Go toolchain used for the build.
	GoInfo = runtime.Version() + " " + runtime.GOOS + "/" + runtime.GOARCH
)
