package build

// Populated at build time via -ldflags "-X github.com/armadaproject/activitytracker/internal/activityctl/build.ReleaseVersion=...".
var (
	ReleaseVersion = "UNKNOWN"
	GitCommit      = "UNKNOWN"
	GoVersion      = "UNKNOWN"
	BuildTime      = "UNKNOWN"
)
