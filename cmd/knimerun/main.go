package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"runtime/debug"
	"strings"
	"syscall"

	"github.com/knimenet/knimerun/internal/cmdline"
	"github.com/knimenet/knimerun/internal/log"
	"github.com/knimenet/knimerun/internal/model"
	"github.com/knimenet/knimerun/internal/service"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

var (
	userConfigPath string // /default/config/path/knimerun on given OS
	configPath     string // actual config file used (if loaded)
	config         model.Config

	flagConfigFilePath string // value of --config flag
	flagJSON           bool   // value of args --json flag
	flagRaw            string // value of run --raw flag

	settings = viper.New()
)

// errFailed is reported after the status of a failed run was printed
var errFailed = errors.New("run failed")

func init() {
	d, err := os.UserConfigDir()
	if err != nil {
		panic(err)
	}
	userConfigPath = filepath.Join(d, "knimerun")
}

func main() {
	// root flags
	rootCmd.PersistentFlags().StringVar(&flagConfigFilePath, "config", "", "Config file to load - default is knimerun.yaml in "+userConfigPath+" or in current directory")
	rootCmd.PersistentFlags().Bool("verbose", false, "verbose logging")
	mustBind("log.verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	runCmd.Flags().String("dir", "", "KNIME installation directory")
	runCmd.Flags().String("work-dir", "", "working directory of the KNIME process")
	runCmd.Flags().String("timeout", "", "abort the run after this duration, e.g. 30m")
	runCmd.Flags().Bool("kill-on-error", true, "kill KNIME when the run does not complete")
	runCmd.Flags().StringVar(&flagRaw, "raw", "", "literal launcher command line, replaces the configured arguments")
	mustBind("knime.dir", runCmd.Flags().Lookup("dir"))
	mustBind("knime.work_dir", runCmd.Flags().Lookup("work-dir"))
	mustBind("knime.timeout", runCmd.Flags().Lookup("timeout"))
	mustBind("knime.kill_on_error", runCmd.Flags().Lookup("kill-on-error"))

	argsCmd.Flags().BoolVar(&flagJSON, "json", false, "print the arguments as JSON document")

	// never print messages
	rootCmd.SilenceErrors = true

	// parse the config, setup logging
	rootCmd.PersistentPreRunE = initKnimerun

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(argsCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := 0
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		var exit exitCode
		switch {
		case errors.As(err, &exit):
			code = int(exit)
		case errors.Is(err, errFailed):
			code = 1
		default:
			slog.Error("knimerun failed", "err", err)
			code = 1
		}
	}
	stop()
	os.Exit(code)
}

var rootCmd = &cobra.Command{
	Use:          "knimerun",
	Short:        "Runs KNIME workflows in batch mode and supervises the launcher",
	SilenceUsage: true,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "run starts KNIME with the configured arguments and waits for it",
	RunE:  doRun,
}

var argsCmd = &cobra.Command{
	Use:   "args",
	Short: "args prints the launcher command line built from the configuration",
	RunE:  doArgs,
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "config prints the default configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		enc := yaml.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent(2)
		if err := enc.Encode(model.DefaultConfig()); err != nil {
			return fmt.Errorf("encoding configuration: %w", err)
		}
		return enc.Close()
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "version provide version of a knimerun",
	Run: func(cmd *cobra.Command, args []string) {
		info, ok := debug.ReadBuildInfo()
		if !ok {
			fmt.Println("knimerun: version info not available")
			return
		}

		if configPath != "" {
			fmt.Printf("config:   %s\n", configPath)
		}
		fmt.Printf("knimerun: %s\n", info.Main.Version)
		fmt.Printf("go:       %s\n", info.GoVersion)
		for _, s := range info.Settings {
			switch s.Key {
			case "vcs.revision":
				fmt.Printf("commit:   %s\n", s.Value)
			case "vcs.time":
				fmt.Printf("date:     %s\n", s.Value)
			case "vcs.modified":
				fmt.Printf("dirty:    %s\n", s.Value)
			}
		}
		fmt.Println()
	},
}

// exitCode passes the exit code of a completed KNIME run to main
type exitCode int

func (e exitCode) Error() string {
	return fmt.Sprintf("KNIME exited with %d", int(e))
}

func doRun(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	attrs := slog.Group("knimerun",
		slog.String("cmd", "run"),
		slog.Int("pid", os.Getpid()),
	)
	ctx = log.ContextAttrs(ctx, attrs)

	runner, err := service.NewRunner(config.Knime.Dir)
	if err != nil {
		return err
	}
	runner.Timeout, err = config.Timeout()
	if err != nil {
		return err
	}
	runner.KillOnError = config.Knime.KillOnError
	runner.Options = config.Options()
	if cmd.Flags().Changed("raw") {
		runner.Options = cmdline.Raw(flagRaw)
	}

	slog.DebugContext(ctx, "knimerun run", "path", runner.Path(), "raw", runner.Options.IsRaw())

	status := runner.Run(ctx, service.RunOptions{
		WorkDir: config.Knime.WorkDir,
		Stdout:  service.NewWriterSink(cmd.OutOrStdout()),
		Stderr:  service.NewWriterSink(cmd.ErrOrStderr()),
	})

	b, err := json.Marshal(status)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), string(b))

	switch {
	case status.Failed():
		return errFailed
	case status.ExitCode != 0:
		return exitCode(status.ExitCode)
	}
	return nil
}

func doArgs(cmd *cobra.Command, args []string) error {
	opts := config.Options()
	if err := opts.Validate(); err != nil {
		return err
	}
	if !flagJSON {
		_, err := fmt.Fprintln(cmd.OutOrStdout(), opts.Render())
		return err
	}
	b, err := opts.ToJSON(true)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(b))
	return err
}

func initKnimerun(cmd *cobra.Command, _ []string) error {
	if envConfig, ok := os.LookupEnv("KNIMERUNCONFIG"); ok {
		configPath = envConfig
	} else if flagConfigFilePath != "" {
		configPath = flagConfigFilePath
	} else {
		for _, d := range []string{userConfigPath, "."} {
			path := filepath.Join(d, "knimerun.yaml")
			if exists(path) {
				configPath = path
				break
			}
		}
	}

	if configPath == "" {
		config = model.DefaultConfig()
	} else {
		f, err := os.Open(configPath)
		if err != nil {
			return fmt.Errorf("opening config file: %w", err)
		}
		defer func() {
			_ = f.Close()
		}()
		config, err = model.LoadConfig(f)
		if err != nil {
			for _, d := range model.CueErrDetails(err) {
				slog.Error("invalid configuration", d.Attr("detail"))
			}
			return fmt.Errorf("parsing config %s: %w", configPath, err)
		}
	}

	// flags and KNIMERUN_* variables have a precedence over config file
	override(&config)

	slog.SetDefault(log.New(os.Stderr, config.Log.Verbose))

	// arguments may carry credentials, so they are never logged here
	slog.Debug("knimerun", "configPath", configPath, "knime", config.Knime)
	return nil
}

// override applies the values viper resolves from flags and environment
// variables. The configuration file provides the defaults.
func override(cfg *model.Config) {
	settings.SetEnvPrefix("KNIMERUN")
	settings.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	settings.AutomaticEnv()

	settings.SetDefault("knime.dir", cfg.Knime.Dir)
	settings.SetDefault("knime.work_dir", cfg.Knime.WorkDir)
	settings.SetDefault("knime.timeout", cfg.Knime.Timeout)
	settings.SetDefault("knime.kill_on_error", cfg.Knime.KillOnError)
	settings.SetDefault("log.verbose", cfg.Log.Verbose)

	cfg.Knime.Dir = settings.GetString("knime.dir")
	cfg.Knime.WorkDir = settings.GetString("knime.work_dir")
	cfg.Knime.Timeout = settings.GetString("knime.timeout")
	cfg.Knime.KillOnError = settings.GetBool("knime.kill_on_error")
	cfg.Log.Verbose = settings.GetBool("log.verbose")
}

func mustBind(key string, flag *pflag.Flag) {
	if err := settings.BindPFlag(key, flag); err != nil {
		panic(err)
	}
}

func exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
