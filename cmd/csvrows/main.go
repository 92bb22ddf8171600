package main

import (
	"errors"
	"fmt"
	"os"

	"csvrows/internal/app"
	"csvrows/internal/logging"
)

func main() {
	runner := app.NewAppRunner()

	if err := runner.Run(os.Args[1:]); err != nil {
		if errors.Is(err, app.ErrUsage) || errors.Is(err, app.ErrConfigNotFound) || errors.Is(err, app.ErrMissingArgs) {
			fmt.Fprintln(os.Stderr)
			runner.Usage(os.Stderr)
		}

		// Make sure the failure is visible even with -loglevel=none.
		if logging.GetLevel() < logging.Error {
			logging.SetLevel(logging.Error)
		}
		logging.Logf(logging.Error, "Application execution failed: %v", err)
		os.Exit(1)
	}
}
