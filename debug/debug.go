// ─────────────────────────────────────────────────────────────────────────────
// [Filename]: debug.go — verbosity-gated diagnostics (zero-alloc)
//
// Purpose:
//   - Logs cold-path events: allocation phases, chase construction, samples.
//   - Carries the single fatal exit path used by all setup failures.
//
// Notes:
//   - Avoids fmt to minimize footprint; messages are plain concatenations.
//   - Verbosity is mirrored from the config once at startup and read-only
//     afterwards, so workers may call these without synchronization.
//
// ⚠️ Never invoke in measured loops — sampling accuracy depends on it.
// ─────────────────────────────────────────────────────────────────────────────

package debug

import (
	"os"

	"main/utils"
)

// verbosity is set once from the config before any worker starts.
var verbosity int

// SetVerbosity installs the process-wide diagnostic level.
func SetVerbosity(v int) {
	verbosity = v
}

// Verbosity reports the installed diagnostic level.
//
//go:inline
func Verbosity() int {
	return verbosity
}

// DropMessage logs a tagged message when the given level is enabled.
//
//go:nosplit
//go:inline
func DropMessage(level int, prefix, message string) {
	if verbosity < level {
		return
	}
	utils.PrintWarning(prefix + ": " + message + "\n")
}

// DropError logs a tagged error unconditionally.
//
//go:nosplit
//go:inline
func DropError(prefix string, err error) {
	if err != nil {
		utils.PrintWarning(prefix + ": " + err.Error() + "\n")
		return
	}
	utils.PrintWarning(prefix + "\n")
}

// Fatal reports a failure and terminates the process with exit code 1.
// A benchmark run with partially-failed setup is not a valid measurement,
// so every setup failure funnels through here — no retry, no degradation.
func Fatal(prefix, message string) {
	utils.PrintWarning(prefix + ": " + message + "\n")
	os.Exit(1)
}

// FatalError is Fatal for error values.
func FatalError(prefix string, err error) {
	if err == nil {
		Fatal(prefix, "unknown error")
	}
	Fatal(prefix, err.Error())
}
