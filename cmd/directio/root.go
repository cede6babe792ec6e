package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"

	"github.com/jmgilman/go/directio/config"
	"github.com/jmgilman/go/directio/datasource"
	"github.com/jmgilman/go/directio/errors"
	"github.com/jmgilman/go/directio/fs/billy"
	"github.com/jmgilman/go/directio/internal/logging"
	"github.com/jmgilman/go/directio/repository"
	"github.com/jmgilman/go/directio/transaction"
	"github.com/spf13/cobra"
)

const defaultConfig = "directio.yaml"

// app holds the state shared by every command.
type app struct {
	configPath string
	logLevel   string
	json       bool

	logger *logging.Logger
	cfg    config.Config
	repo   *repository.Repository
}

// run executes the command line and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	a := &app{}
	cmd := a.rootCommand()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return 0
	}
	a.printError(cmd, err)
	if errors.IsInterrupted(err) {
		return 130
	}
	return 1
}

func (a *app) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "directio",
		Short:         "Inspect direct I/O data sources and transactions",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
	}
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", defaultConfig, "Configuration file (.yaml, .cue or .properties)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	root.PersistentFlags().BoolVar(&a.json, "json", false, "Print results and errors as JSON")

	root.AddCommand(
		a.resolveCommand(),
		a.listCommand(),
		a.deleteCommand(),
		a.transactionCommand(),
	)
	return root
}

func (a *app) init(cmd *cobra.Command) error {
	level, err := logging.ParseLevel(a.logLevel)
	if err != nil {
		return errors.Wrap(err, errors.CodeInvalidInput, "invalid --log-level")
	}
	a.logger = logging.New(logging.Config{Level: level, JSON: a.json, Output: cmd.ErrOrStderr()})

	abs, err := filepath.Abs(a.configPath)
	if err != nil {
		return errors.Wrapf(err, errors.CodeInvalidInput, "invalid configuration path %q", a.configPath)
	}
	cfg, err := config.Load(cmd.Context(), billy.NewLocal(filepath.Dir(abs)), filepath.Base(abs))
	if err != nil {
		return err
	}
	repo, err := cfg.Repository(
		repository.WithFactories(datasource.Factories(a.logger)),
		repository.WithLogger(a.logger),
	)
	if err != nil {
		return err
	}
	a.cfg, a.repo = cfg, repo
	a.logger.Debug(cmd.Context(), "loaded configuration", "file", abs, "data_sources", len(cfg.DataSources))
	return nil
}

func (a *app) editor() *transaction.Editor {
	store := transaction.NewStore(billy.NewLocal(a.cfg.SystemDirOrDefault()), "")
	return transaction.NewEditor(a.repo, store, transaction.WithLogger(a.logger))
}

// print writes v as JSON when --json is set and otherwise calls text.
func (a *app) print(cmd *cobra.Command, v any, text func()) error {
	if !a.json {
		text()
		return nil
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return errors.Wrap(err, errors.CodeInternal, "failed to encode output")
	}
	return nil
}

func (a *app) printError(cmd *cobra.Command, err error) {
	if a.json {
		data, merr := json.Marshal(errors.ToJSON(err))
		if merr == nil {
			fmt.Fprintln(cmd.ErrOrStderr(), string(data))
			return
		}
	}
	fmt.Fprintln(cmd.ErrOrStderr(), "Error:", err)
}
