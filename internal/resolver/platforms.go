package resolver

import "runtime"

// RuntimePlatforms returns the App Link platform identifiers for the OS
// this process runs on, most specific first.
func RuntimePlatforms() []string {
	return platformsFor(runtime.GOOS)
}

func platformsFor(goos string) []string {
	switch goos {
	case "darwin":
		return []string{"mac", "macos", "desktop"}
	case "windows":
		return []string{"windows", "windows_universal", "desktop"}
	case "linux", "freebsd", "openbsd", "netbsd":
		return []string{"linux", "desktop"}
	default:
		return []string{goos, "desktop"}
	}
}
