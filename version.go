package gotlive

// Version information for gotlive.
// These values can be overridden at build time using ldflags:
//
//	go build -ldflags "-X github.com/ZaguanLabs/gotlive.GitCommit=$(git rev-parse HEAD)"
const (
	// Name is the application name.
	Name = "gotlive"

	// Description is a short description of the application.
	Description = "Live in-place translation of HTML documents"

	// Version is the semantic version of the application.
	Version = "0.1.0"

	// Repository is the source code repository URL.
	Repository = "https://github.com/ZaguanLabs/gotlive"
)

// Build information, set via ldflags.
var (
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// FullVersion returns the version with a short commit suffix when known.
func FullVersion() string {
	v := Version
	if GitCommit != "unknown" && GitCommit != "" {
		short := GitCommit
		if len(short) > 7 {
			short = short[:7]
		}
		v += "+" + short
	}
	return v
}

// UserAgent returns the User-Agent sent to translation providers.
func UserAgent() string {
	return Name + "/" + FullVersion()
}
