package main

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/neptotech/betteradvancedpaste/ai"
	"github.com/neptotech/betteradvancedpaste/ai/metrics"
	"github.com/neptotech/betteradvancedpaste/ai/paste"
	"github.com/neptotech/betteradvancedpaste/ai/rewrite"
	"github.com/neptotech/betteradvancedpaste/ai/secret"
	"github.com/neptotech/betteradvancedpaste/internal/profile"
	"github.com/neptotech/betteradvancedpaste/internal/version"
	"github.com/neptotech/betteradvancedpaste/store"
	"github.com/neptotech/betteradvancedpaste/store/db"
)

// errRewriteFailed signals a failed rewrite whose result was already printed.
var errRewriteFailed = errors.New("rewrite failed")

type session struct {
	Profile *profile.Profile
	Store   *store.Store
	Paste   *paste.Service
	Metrics *metrics.PrometheusExporter
}

func (s *session) Close() {
	if err := s.Store.Close(); err != nil {
		slog.Warn("failed to close prompt store", "error", err)
	}
}

func setupLogger(w io.Writer, debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
}

// loadProfile layers defaults, conf.json, the environment and explicitly set
// flags, in that order.
func loadProfile(cmd *cobra.Command, args []string) (*profile.Profile, error) {
	instanceProfile := profile.Default()
	instanceProfile.Version = version.String()

	configPath := viper.GetString("config")
	if configPath == "" {
		configPath = defaultConfigPath()
	}
	if err := instanceProfile.FromConfigFile(configPath); err != nil {
		return nil, err
	}
	instanceProfile.FromEnv()

	flags := cmd.Flags()
	if flags.Changed("driver") {
		instanceProfile.Driver = viper.GetString("driver")
	}
	if flags.Changed("dsn") {
		instanceProfile.DSN = viper.GetString("dsn")
	}
	if flags.Changed("save-history") {
		instanceProfile.SaveHistory = viper.GetBool("save-history")
	}
	instanceProfile.Debug = viper.GetBool("debug")
	if instanceProfile.Debug {
		instanceProfile.Mode = "dev"
	}
	if len(args) > 0 {
		instanceProfile.OutputDir = args[0]
	}

	if err := instanceProfile.Validate(); err != nil {
		return nil, err
	}
	return instanceProfile, nil
}

// defaultConfigPath is conf.json beside the executable.
func defaultConfigPath() string {
	exe, err := os.Executable()
	if err != nil {
		return profile.DefaultConfigFile
	}
	return filepath.Join(filepath.Dir(exe), profile.DefaultConfigFile)
}

// newSession wires the paste service. The clipboard is read once here and
// never again for the lifetime of the process.
func newSession(instanceProfile *profile.Profile, captureClipboard bool) (*session, error) {
	dbDriver, err := db.NewDBDriver(instanceProfile)
	if err != nil {
		return nil, err
	}
	storeInstance := store.New(dbDriver, instanceProfile)

	var snapshot string
	if captureClipboard {
		snapshot, err = clipboard.ReadAll()
		if err != nil {
			slog.Warn("clipboard_unavailable", "error", err)
			snapshot = ""
		}
	}

	prompts := rewrite.LoadPromptConfig(instanceProfile.ConfigDir())
	if instanceProfile.Temperature != 0 {
		prompts.Params.Temperature = float64(instanceProfile.Temperature)
	}

	exporter := metrics.NewPrometheusExporter(metrics.DefaultConfig())
	selector := ai.NewSelector(ai.NewBackendConfigFromProfile(instanceProfile), secret.NewKeyring())
	svc := paste.NewService(
		paste.Config{
			Clipboard:   snapshot,
			OutputDir:   instanceProfile.OutputDir,
			SaveHistory: instanceProfile.SaveHistory,
		},
		selector,
		rewrite.NewClient(prompts),
		storeInstance,
		exporter,
	)

	return &session{
		Profile: instanceProfile,
		Store:   storeInstance,
		Paste:   svc,
		Metrics: exporter,
	}, nil
}
