package cmd

import (
	"errors"
	"fmt"
	"log"
	"os"
	"os/exec"
	"strconv"
)

const (
	EnvStore    = "INV_STORE"
	EnvData     = "INV_DATA"
	EnvCurrency = "INV_CURRENCY"
	EnvVerbose  = "INV_VERBOSE"
)

// RunExtension attempts to find and execute an external inv-<subcommand> binary.
// It returns (true, exitCode) if an extension was found and executed,
// and (false, 0) if no extension was found or executed.
func RunExtension(subcommand string, args []string) (bool, int) {
	externalCmdName := "inv-" + subcommand

	lp, err := exec.LookPath(externalCmdName)
	if err != nil {
		if *Verbose {
			log.Printf("External command %q not found in PATH: %v", externalCmdName, err)
		}
		return false, 0
	}

	cmd := exec.Command(lp, args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Env = append(os.Environ(), extensionEnv()...)

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

// extensionEnv passes the store settings, global flags included, to extensions.
func extensionEnv() []string {
	cfg, err := settings()
	if err != nil {
		// the extension reads the environment as is.
		return nil
	}
	return []string{
		EnvStore + "=" + cfg.Store.Type,
		EnvData + "=" + cfg.Store.Data,
		EnvCurrency + "=" + cfg.Report.Currency,
		EnvVerbose + "=" + strconv.FormatBool(cfg.Logging.Verbose),
	}
}
