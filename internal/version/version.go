// Package version holds build identity used in logs and embeds.
package version

import "runtime"

const (
	AppName        = "Melobot"
	AppDescription = "Discord music bot with two-phase YouTube search and caching"
	AppVersion     = "0.3.0"
)

// GoVersion is the runtime the binary was built with.
var GoVersion = runtime.Version()
