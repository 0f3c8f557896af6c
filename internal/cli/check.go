package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/vietddude/stylelog"

	"github.com/vietddude/pacman/internal/core/config"
	"github.com/vietddude/pacman/internal/interception/protocol"
	"github.com/vietddude/pacman/internal/interception/rescue"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify the rescue script, firmware and payload tool are in place",
	Run:   runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		stylelog.InitDefault()
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	setupLogging(cfg, nil)

	err = rescue.CheckPrerequisites(cfg.Toolkit)
	printCheck(os.Stdout, cfg, err)
	if err != nil {
		os.Exit(1)
	}
}

func printCheck(out io.Writer, cfg *config.AppConfig, err error) {
	resolver := &protocol.Resolver{
		Dir:      cfg.Toolkit.MTKPath(),
		Python:   cfg.Interceptor.Python,
		Fallback: cfg.Interceptor.MTKTool,
	}

	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	_, _ = fmt.Fprintf(w, "Toolkit\t%s\n", cfg.Toolkit.Dir)
	_, _ = fmt.Fprintf(w, "Rescue script\t%s\n", cfg.Toolkit.RescueScriptPath())
	_, _ = fmt.Fprintf(w, "Firmware\t%s\n", cfg.Toolkit.FirmwarePath())
	_, _ = fmt.Fprintf(w, "MTK payload command\t%s\n", strings.Join(resolver.Resolve(), " "))
	_ = w.Flush()

	if err == nil {
		_, _ = fmt.Fprintln(out, "\nAll prerequisites found.")
		return
	}

	_, _ = fmt.Fprintln(out, "\nMissing prerequisites:")
	for _, p := range rescue.Problems(err) {
		_, _ = fmt.Fprintf(out, "  - %s: %s\n    fix: %s\n", p.What, p.Path, p.Remedy)
	}
}
