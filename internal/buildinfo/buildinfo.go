// Package buildinfo reports the keylog build version.
package buildinfo

import "runtime/debug"

// version is set at link time with -ldflags "-X .../buildinfo.version=v1.0.0".
var version = "dev"

// SetVersion overrides the reported version; empty values are ignored.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Version prefers the linked version, then the module version recorded by
// the go tool, then "dev".
func Version() string {
	if version != "dev" {
		return version
	}
	info, ok := debug.ReadBuildInfo()
	if !ok || info.Main.Version == "" || info.Main.Version == "(devel)" {
		return "dev"
	}
	return info.Main.Version
}
