// Package buildinfo holds release metadata stamped in at link time.
package buildinfo

// Set with -ldflags "-X github.com/pomdtr/vt/internal/buildinfo.Version=..." by the
// release build. Local builds leave them empty and fall back to debug.ReadBuildInfo.
var (
	Version = ""
	Commit  = ""
	Date    = ""
)
