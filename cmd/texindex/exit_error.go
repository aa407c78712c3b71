// SPDX-License-Identifier: MPL-2.0

package cmd

import "fmt"

const (
	// exitNotInDistribution is returned by index when a requested file is
	// unknown to the TeX distribution. Known files are still analyzed.
	exitNotInDistribution = 2
)

// ExitError carries a process exit code out of a RunE handler. Execute maps
// it to os.Exit; any other error exits with status 1.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return e.Err.Error()
}

// Unwrap returns the wrapped error so that renderError still finds the
// actionable error and its issue.
func (e *ExitError) Unwrap() error {
	return e.Err
}
