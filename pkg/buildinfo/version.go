// Package buildinfo holds the version stamped into chaintwin releases:
//
//	go build -ldflags "-X github.com/matzehuels/chaintwin/pkg/buildinfo.Version=v0.3.0 \
//	    -X github.com/matzehuels/chaintwin/pkg/buildinfo.Commit=$(git rev-parse --short HEAD) \
//	    -X github.com/matzehuels/chaintwin/pkg/buildinfo.Date=$(date -u +%Y-%m-%dT%H:%M:%SZ)" ./cmd/chaintwin
//
// Version also scopes shared artifact cache keys, so a release that changes
// rendering never serves pictures drawn by an older one.
package buildinfo

import "fmt"

// Stamped at build time; the defaults mark a local build.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// Template is the cobra version template for `chaintwin --version`.
func Template() string {
	return fmt.Sprintf("{{.Name}} %s (%s, built %s)\n", Version, Commit, Date)
}
