package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Mohsinsiddi/hhbridge/internal/app"
	"github.com/Mohsinsiddi/hhbridge/internal/config"
	"github.com/Mohsinsiddi/hhbridge/internal/doctor"
	"github.com/Mohsinsiddi/hhbridge/internal/logging"
	"github.com/Mohsinsiddi/hhbridge/internal/ui"
)

// Version is the current release. Overridable via build ldflags:
//
//	go build -ldflags "-X github.com/Mohsinsiddi/hhbridge/cmd.Version=1.2.3" .
var Version = "0.1.0"

// annotationHardhat marks commands that run Hardhat; they get the startup
// project checks.
const annotationHardhat = "hardhat"

var hardhatCommand = map[string]string{annotationHardhat: "true"}

var (
	cfgFile  string
	logLevel string

	cfg         *config.Config
	logger      *zap.SugaredLogger
	application *app.App
)

// rootCmd is the top-level command.
var rootCmd = &cobra.Command{
	Use:   "hhbridge",
	Short: "Bridge your application database to a Hardhat project",
	Long: `hhbridge runs Hardhat for you and records what it produces.

  Compile and test contracts, turn deploy/call scripts into pending
  transactions, verify deployed contracts, and classify confirmed
  deployments as ERC-20 tokens or NFT collections.

Configuration is read from --config, $HHBRIDGE_CONFIG, ./hhbridge.yaml or
~/.hhbridge/hhbridge.yaml. Any key can be overridden with HHBRIDGE_* variables,
e.g. HHBRIDGE_PROJECT_PATH=../blockchain.`,
	Version:      Version,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" || cmd.Name() == "completion" || cmd == configInitCmd {
			return nil
		}
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		level := cfg.Log.Level
		if logLevel != "" {
			level = logLevel
		}
		logger, err = logging.New(level)
		if err != nil {
			return err
		}
		if cmd.Annotations[annotationHardhat] == "true" {
			for _, w := range doctor.StartupWarnings(cfg.ProjectPath) {
				logger.Warn(w)
			}
		}
		return nil
	},
}

// loadApp builds the application container on first use.
func loadApp(cmd *cobra.Command) (*app.App, error) {
	if application != nil {
		return application, nil
	}
	a, err := app.New(cmd.Context(), cfg, logger)
	if err != nil {
		return nil, err
	}
	application = a
	return a, nil
}

// closeApp runs jobs left on the memory queue when drain is set, then
// releases the container.
func closeApp(ctx context.Context, drain bool) error {
	if application == nil {
		return nil
	}
	a := application
	application = nil
	if drain && a.Synchronous() {
		if n, err := a.Queue.Drain(ctx); err != nil {
			a.Log.Errorw("draining queued jobs", "err", err)
		} else if n > 0 {
			a.Log.Infow("ran queued jobs", "count", n)
		}
	}
	return a.Close()
}

// exitCodeError carries a child process exit status out of a command.
type exitCodeError struct {
	code int
	msg  string
}

func (e *exitCodeError) Error() string { return e.msg }

// exitCode maps a command error to the process exit status.
func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var ec *exitCodeError
	if errors.As(err, &ec) && ec.code > 0 {
		return ec.code
	}
	return 1
}

// Execute runs the root command.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	if cerr := closeApp(ctx, err == nil); cerr != nil {
		fmt.Fprintln(os.Stderr, ui.Err(cerr.Error()))
		if err == nil {
			err = cerr
		}
	}
	stop()
	if err != nil {
		os.Exit(exitCode(err))
	}
}

func init() {
	if env := os.Getenv(config.EnvConfig); env != "" {
		cfgFile = env
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", cfgFile, "config file (default: ./hhbridge.yaml or ~/.hhbridge/hhbridge.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error (default from config)")

	rootCmd.AddCommand(
		compileCmd,
		cleanCmd,
		runCmd,
		testCmd,
		updateCmd,
		doctorCmd,
		validateCmd,
		deployCmd,
		callCmd,
		verifyCmd,
		confirmCmd,
		networkCmd,
		walletCmd,
		contractCmd,
		selectorCmd,
		workerCmd,
		configCmd,
	)
}
