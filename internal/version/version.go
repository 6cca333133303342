// Package version exposes the build version of ygo-embed. Release builds
// stamp it through ldflags:
//
//	go build -ldflags "-X github.com/ramonehamilton/ygo-embed/internal/version.Version=v3.14.0"
package version

// Version defaults to "dev" for local builds.
var Version = "dev"

// GetVersion returns the current application version.
func GetVersion() string {
	return Version
}

// UserAgent is the User-Agent sent to the card database.
func UserAgent() string {
	return "ygo-embed/" + Version + " (+https://github.com/ramonehamilton/ygo-embed)"
}
