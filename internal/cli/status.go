package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/vietddude/stylelog"

	"github.com/vietddude/pacman/internal/interception/engine"
	"github.com/vietddude/pacman/internal/interception/health"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the state of a running interceptor",
	Long:  `Reads /health/detailed from an interceptor started with --metrics-port.`,
	Run:   runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		stylelog.InitDefault()
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	setupLogging(cfg, nil)

	if cfg.Server.Port == 0 {
		slog.Error("No status port configured; pass --metrics-port")
		os.Exit(1)
	}

	report, err := fetchStatus(&http.Client{Timeout: 5 * time.Second}, fmt.Sprintf("http://127.0.0.1:%d", cfg.Server.Port))
	if err != nil {
		slog.Error("Failed to query interceptor", "error", err)
		os.Exit(1)
	}
	printStatus(os.Stdout, report)
}

func fetchStatus(client *http.Client, baseURL string) (*health.DetailedReport, error) {
	resp, err := client.Get(baseURL + "/health/detailed")
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}

	var report health.DetailedReport
	if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
		return nil, fmt.Errorf("decode report: %w", err)
	}
	return &report, nil
}

func printStatus(out io.Writer, r *health.DetailedReport) {
	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	_, _ = fmt.Fprintf(w, "Status\t%s\n", r.Status)
	_, _ = fmt.Fprintf(w, "State\t%s (%s)\n", r.State, engine.StateDescription(r.State))
	_, _ = fmt.Fprintf(w, "Ticks\t%d\n", r.Ticks)
	_, _ = fmt.Fprintf(w, "Bus errors\t%d\n", r.BusErrors)
	if r.LastTick != nil {
		_, _ = fmt.Fprintf(w, "Last tick\t%s\n", r.LastTick.Format(time.RFC3339))
	}
	_ = w.Flush()

	if len(r.Cooldowns) > 0 {
		_, _ = fmt.Fprintln(out)
		w = tabwriter.NewWriter(out, 0, 0, 3, ' ', tabwriter.Debug)
		_, _ = fmt.Fprintln(w, "DEVICE\tFAILURES\tRETRY AFTER")
		for _, c := range r.Cooldowns {
			_, _ = fmt.Fprintf(w, "%s\t%d\t%s\n", c.Device, c.FailureCount, c.RetryAfter.Format(time.RFC3339))
		}
		_ = w.Flush()
	}

	if len(r.Recent) > 0 {
		_, _ = fmt.Fprintln(out)
		w = tabwriter.NewWriter(out, 0, 0, 3, ' ', tabwriter.Debug)
		_, _ = fmt.Fprintln(w, "ATTEMPT\tDEVICE\tCLASS\tSTATUS\tREASON")
		for _, a := range r.Recent {
			_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", a.ID, a.Device, a.Class, a.Status, a.Reason)
		}
		_ = w.Flush()
	}
}
