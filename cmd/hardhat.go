package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Mohsinsiddi/hhbridge/internal/hardhat"
)

// newRunner builds a Hardhat runner from the loaded config. Commands that
// only shell out use it directly and never open the store or the queue.
func newRunner() *hardhat.Runner {
	return hardhat.New(cfg.ProjectPath,
		hardhat.WithLauncher(cfg.Launcher...),
		hardhat.WithLogger(logger.Named("hardhat")),
	)
}

// streamTo forwards Hardhat output to the command's stdout and stderr as it
// arrives.
func streamTo(cmd *cobra.Command) func(hardhat.Stream, string) {
	out, errOut := cmd.OutOrStdout(), cmd.ErrOrStderr()
	return func(s hardhat.Stream, chunk string) {
		if s == hardhat.StreamErr {
			fmt.Fprint(errOut, chunk)
			return
		}
		fmt.Fprint(out, chunk)
	}
}

// resultError turns an unsuccessful Result into a command error.
func resultError(what string, res hardhat.Result) error {
	if res.Successful() {
		return nil
	}
	return fmt.Errorf("%s failed (exit %d)", what, res.ExitCode)
}
