package domain

import (
	"strconv"
	"strings"

	"golang.org/x/mod/semver"
)

// CompareVersions compares two version strings and returns -1, 0 or +1.
//
// Versions are normalized to semver ("1.2" -> "v1.2") and compared with
// x/mod/semver. When either side is not valid semver (e.g. "10.4.1.7"),
// the dot-separated numeric components are compared instead.
func CompareVersions(a, b string) int {
	va, vb := canonicalVersion(a), canonicalVersion(b)
	if semver.IsValid(va) && semver.IsValid(vb) {
		return semver.Compare(va, vb)
	}
	return compareNumeric(a, b)
}

// VersionAtLeast reports whether installed >= minimum.
// An empty minimum always passes.
func VersionAtLeast(installed, minimum string) bool {
	if strings.TrimSpace(minimum) == "" {
		return true
	}
	return CompareVersions(installed, minimum) >= 0
}

func canonicalVersion(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return ""
	}
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	return v
}

func compareNumeric(a, b string) int {
	pa := strings.Split(strings.TrimPrefix(strings.TrimSpace(a), "v"), ".")
	pb := strings.Split(strings.TrimPrefix(strings.TrimSpace(b), "v"), ".")

	n := len(pa)
	if len(pb) > n {
		n = len(pb)
	}
	for i := 0; i < n; i++ {
		x, y := part(pa, i), part(pb, i)
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		}
	}
	return 0
}

// part returns the numeric value of the i-th component, 0 if missing or
// not a number.
func part(parts []string, i int) int {
	if i >= len(parts) {
		return 0
	}
	n, err := strconv.Atoi(parts[i])
	if err != nil {
		return 0
	}
	return n
}
