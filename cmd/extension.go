package cmd

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
)

// Environment variables read by the CLI, and passed to extensions.
const (
	EnvDB          = "BOOKKEEPER_DB"
	EnvCurrency    = "BOOKKEEPER_CURRENCY"
	EnvLogLevel    = "BOOKKEEPER_LOG_LEVEL"
	EnvMaxAttempts = "BOOKKEEPER_MAX_ATTEMPTS"
)

// RunExtension attempts to find and execute an external bk-<subcommand> binary.
// It returns (true, exitCode) if an extension was found and executed,
// and (false, 0) if no extension was found.
func RunExtension(subcommand string, args []string) (bool, int) {
	externalCmdName := "bk-" + subcommand

	lp, err := exec.LookPath(externalCmdName)
	if err != nil {
		return false, 0
	}

	cfg, err := LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return true, 1
	}

	cmd := exec.Command(lp, args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = out
	cmd.Stderr = os.Stderr

	// the resolved configuration overrides the inherited one
	cmd.Env = append(os.Environ(),
		EnvDB+"="+cfg.DB,
		EnvCurrency+"="+cfg.Currency,
		EnvLogLevel+"="+cfg.LogLevel.String(),
		fmt.Sprintf("%s=%d", EnvMaxAttempts, cfg.MaxAttempts),
	)

	if err := cmd.Run(); err != nil {
		var exitError *exec.ExitError
		if errors.As(err, &exitError) {
			return true, exitError.ExitCode()
		}
		fmt.Fprintf(os.Stderr, "Error executing external command %q: %v\n", externalCmdName, err)
		return true, 1
	}
	return true, 0
}
