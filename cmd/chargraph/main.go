package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/dancancer/chargraph/helper"
	"github.com/dancancer/chargraph/model"
	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"
)

var version = "0.1.0"

// rootOptions are the flags shared by every command
type rootOptions struct {
	configPath string
	logFile    string
	verbose    bool
	quiet      bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "chargraph",
		Short: "Character recognition for Chinese narrative text",
		Long: `chargraph extracts the characters of a Chinese novel chapter,
merges their names, nicknames and epithets into canonical identities,
resolves pronouns, attributes dialogue and builds a co-occurrence graph.

Configuration is read from the built-in defaults, an optional YAML file
(--config) and CHARGRAPH_* environment variables, in that order.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "YAML configuration file")
	rootCmd.PersistentFlags().StringVar(&opts.logFile, "log-file", "", "Also write logs to this file, rotated at 10 MB")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Log debug output")
	rootCmd.PersistentFlags().BoolVarP(&opts.quiet, "quiet", "q", false, "Only log warnings and errors")

	rootCmd.AddCommand(recognizeCmd(opts))
	rootCmd.AddCommand(normalizeCmd(opts))
	rootCmd.AddCommand(runsCmd(opts))
	rootCmd.AddCommand(exploreCmd(opts))
	rootCmd.AddCommand(searchCmd(opts))

	return rootCmd
}

// loadConfig layers the YAML file and the environment over the defaults
func (o *rootOptions) loadConfig() (model.Config, error) {
	config := model.DefaultConfig()
	if o.configPath != "" {
		var err error
		config, err = model.LoadConfigFile(o.configPath)
		if err != nil {
			return model.Config{}, err
		}
	}
	return model.ConfigFromEnv(config)
}

// logger writes pretty logs to stderr, keeping stdout for command output
func (o *rootOptions) logger() *slog.Logger {
	level := slog.LevelInfo
	switch {
	case o.verbose:
		level = slog.LevelDebug
	case o.quiet:
		level = slog.LevelWarn
	}

	var out io.Writer = os.Stderr
	if o.logFile != "" {
		out = io.MultiWriter(os.Stderr, &lumberjack.Logger{
			Filename:   o.logFile,
			MaxSize:    10,
			MaxBackups: 3,
			MaxAge:     28,
		})
	}

	return helper.NewLogger(out, level)
}
