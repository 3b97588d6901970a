package main

import (
	"io"
	"os"
	"strings"

	"github.com/athapong/ontonote/pkg/bootstrap"
	"github.com/athapong/ontonote/pkg/config"
	"github.com/athapong/ontonote/pkg/logging"
	"github.com/athapong/ontonote/pkg/source"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	envFile   string
	vault     string
	logLevel  string
	logFormat string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "ontonote",
		Short:         "Turn raw text into linked knowledge notes",
		Long:          "ontonote expands text into structured notes, extracts concepts and their relationships, and files the notes into an Obsidian vault linked to related notes.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.envFile, "env", ".env", "Path to environment file")
	cmd.PersistentFlags().StringVar(&opts.vault, "vault", "", "Vault directory (overrides OBSIDIAN_VAULT_PATH)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Logging level (debug, info, warn, error)")
	cmd.PersistentFlags().StringVar(&opts.logFormat, "log-format", "", "Log format (text, json)")

	cmd.AddCommand(
		newNewCmd(opts),
		newSuggestCmd(opts),
		newRelatedCmd(opts),
		newLinkCmd(opts),
		newAssistCmd(opts),
		newTemplatesCmd(opts),
		newWatchCmd(opts),
		newImportCmd(opts),
	)
	return cmd
}

// setup loads the configuration, applying command line overrides, and
// builds the pipeline.
func (o *rootOptions) setup(cmd *cobra.Command) (*bootstrap.App, error) {
	if o.vault != "" {
		if err := os.Setenv("OBSIDIAN_VAULT_PATH", o.vault); err != nil {
			return nil, errors.Wrap(err, "set vault path")
		}
	}

	boot := logrus.New()
	boot.SetOutput(cmd.ErrOrStderr())
	boot.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load(o.envFile, boot)
	if err != nil {
		return nil, err
	}
	if o.logLevel != "" {
		cfg.LogLevel = strings.ToLower(o.logLevel)
	}
	if o.logFormat != "" {
		cfg.LogFormat = strings.ToLower(o.logFormat)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat, cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}
	return bootstrap.New(cmd.Context(), cfg, logger)
}

// readInput returns the text of file when set, else the joined arguments,
// else standard input.
func readInput(cmd *cobra.Command, file string, args []string) (string, error) {
	if file != "" {
		return source.Load(file)
	}
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", errors.Wrap(err, "read standard input")
	}
	return string(data), nil
}
