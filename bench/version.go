package bench

import "golang.org/x/mod/semver"

// Version is the current version of the benchmark harness.
const Version = "v0.2.0"

// Info provides build information about the harness.
type Info struct {
	// Version is the full semantic version, e.g. "v0.2.0".
	Version string

	// Major is the major version, e.g. "v0".
	Major string

	// MajorMinor is the major and minor version, e.g. "v0.2".
	MajorMinor string

	// Strategies lists the strategies run by RunSuite, in order.
	Strategies []string

	// Checker names the happens-before algorithm used by WithTracing.
	Checker string
}

// GetInfo returns information about the harness.
//
// Example:
//
//	info := bench.GetInfo()
//	fmt.Printf("lockbench %s (%s)\n", info.Version, info.Checker)
func GetInfo() Info {
	info := Info{
		Version:    Version,
		Major:      semver.Major(Version),
		MajorMinor: semver.MajorMinor(Version),
		Checker:    "FastTrack (PLDI 2009)",
	}
	for _, k := range []Kind{Spin, Mutex} {
		info.Strategies = append(info.Strategies, k.String())
	}
	return info
}

// Compatible reports whether a report produced by version v can be compared
// with reports of this version: same major version, valid semver.
func Compatible(v string) bool {
	return semver.IsValid(v) && semver.Major(v) == semver.Major(Version)
}
