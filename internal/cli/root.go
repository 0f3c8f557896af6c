package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
	"github.com/vietddude/stylelog"

	"github.com/vietddude/pacman/internal/control"
	"github.com/vietddude/pacman/internal/core/config"
	"github.com/vietddude/pacman/internal/interception/engine"
	"github.com/vietddude/pacman/internal/interception/rescue"
	"github.com/vietddude/pacman/internal/interception/status"
)

var (
	cfgPath     string
	isDebug     bool
	toolkitDir  string
	metricsPort int
)

var rootCmd = &cobra.Command{
	Use:   "pacman",
	Short: "Bootloader interceptor for Nothing Phone (2a)",
	Long: `Pacman watches the USB bus for a phone that briefly enters fastboot or
MediaTek BROM during a failed boot, seizes it, and hands it to the rescue script.`,
	Run: runIntercept,
}

var interceptCmd = &cobra.Command{
	Use:   "intercept",
	Short: "Wait for the device and start the rescue procedure (default)",
	Run:   runIntercept,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "config file (built-in defaults when empty)")
	rootCmd.PersistentFlags().BoolVar(&isDebug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&toolkitDir, "toolkit-dir", "", "directory holding flash_rescue.sh, firmware/ and mtkclient/")
	rootCmd.PersistentFlags().IntVar(&metricsPort, "metrics-port", 0, "serve /health and /metrics on this port (0 disables)")
	rootCmd.AddCommand(interceptCmd)
}

// loadConfig reads the config file and applies command-line overrides.
func loadConfig(cmd *cobra.Command) (*config.AppConfig, error) {
	_ = godotenv.Load()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}
	if toolkitDir != "" {
		cfg.Toolkit.Dir = toolkitDir
	}
	if cmd.Flags().Changed("metrics-port") {
		cfg.Server.Port = metricsPort
	}
	return cfg, nil
}

// setupLogging installs the tint handler, wrapped so log lines never
// interleave with the spinner.
func setupLogging(cfg *config.AppConfig, spinner *status.Spinner) {
	slogLevel := slog.LevelInfo
	if isDebug || cfg.Logging.Level == "debug" {
		slogLevel = slog.LevelDebug
	}

	stylelog.InitDefault(&tint.Options{
		Level:      slogLevel,
		TimeFormat: time.RFC3339,
	})
	if spinner != nil {
		slog.SetDefault(slog.New(status.NewHandler(slog.Default().Handler(), spinner)))
	}
}

func runIntercept(cmd *cobra.Command, args []string) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		stylelog.InitDefault()
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	spinner := status.ForTerminal(os.Stdout, "Waiting for device")
	setupLogging(cfg, spinner)

	if err := rescue.CheckPrerequisites(cfg.Toolkit); err != nil {
		reportProblems(err)
		os.Exit(1)
	}

	printInstructions(os.Stdout)

	app, err := control.NewInterceptor(control.Config{
		App:     cfg,
		Spinner: spinner,
		Logger:  slog.Default(),
	})
	if err != nil {
		slog.Error("Failed to initialize interceptor", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	res, err := app.Run(ctx)
	stop()

	if cerr := app.Close(); cerr != nil {
		slog.Warn("Error during shutdown", "error", cerr)
	}
	switch {
	case err != nil:
		slog.Error("Interceptor gave up", "error", err)
	case res.Interrupted:
		slog.Info("Aborted")
	default:
		slog.Info("Rescue procedure handed off", "mode", res.Mode, "device", res.Device.Identity)
	}
	if code := exitCode(res, err); code != 0 {
		os.Exit(code)
	}
}

// exitCode maps how the loop ended to the process exit status: 1 when it
// gave up (retry ceiling or any other loop error), 0 when a device was
// caught or the user interrupted the wait.
func exitCode(res engine.Result, err error) int {
	if err != nil {
		return 1
	}
	if res.Caught || res.Interrupted {
		return 0
	}
	return 1
}

func reportProblems(err error) {
	problems := rescue.Problems(err)
	if len(problems) == 0 {
		slog.Error("Prerequisite check failed", "error", err)
		return
	}
	for _, p := range problems {
		slog.Error(p.What, "path", p.Path, "fix", p.Remedy)
	}
}

func printInstructions(w io.Writer) {
	_, _ = fmt.Fprintln(w, "Waiting for Nothing Phone (2a) (Pacman)...")
	_, _ = fmt.Fprintln(w, "  Target VIDs: 0x18d1 (Google), 0x2b4c (Nothing), 0x0e8d (MediaTek)")
	_, _ = fmt.Fprintln(w, "  Connect the phone, then hold Volume Up + Volume Down + Power to force the boot loop.")
	_, _ = fmt.Fprintln(w, "  Press Ctrl+C to abort.")
	_, _ = fmt.Fprintln(w)
}
