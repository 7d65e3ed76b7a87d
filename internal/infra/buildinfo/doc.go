// Package buildinfo reports the version, commit, and build time of the
// worldsave binary.
//
// Release builds inject the values through ldflags:
//
//	go build -ldflags "-X .../buildinfo.Version=1.2.0 -X .../buildinfo.Commit=abc123"
//
// Binaries built without ldflags fall back to the module metadata Go
// embeds, so the reported version stays meaningful either way.
package buildinfo
