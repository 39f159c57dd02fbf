// Package environment reads runtime environment configuration.
package environment

import (
	"os"
	"strings"
)

var (
	appVersionDefault    = "REPL_VERSION"
	helpURLDefault       = "REPL_HELP_URL"
	posthogAPIKeyDefault = ""
)

// PosthogAPIKey returns the telemetry key. The environment wins over the
// key baked in at build time. Telemetry stays off while it is empty.
func PosthogAPIKey() string {
	key, present := os.LookupEnv("LANGSYNC_POSTHOG_API_KEY")
	if present {
		return strings.TrimSpace(key)
	}

	return posthogAPIKeyDefault
}

// BaseDir returns the base directory override and whether one was set.
func BaseDir() (string, bool) {
	dir, present := os.LookupEnv("LANGSYNC_BASE_DIR")
	if !present || strings.TrimSpace(dir) == "" {
		return "", false
	}

	return dir, true
}

func MachineID() (string, bool) {
	return os.LookupEnv("MACHINE_ID")
}

func IsTest() bool {
	_, present := os.LookupEnv("LANGSYNC_TEST")
	return present
}

func AppVersion() string {
	return appVersionDefault
}

func HelpURL() string {
	return helpURLDefault
}
