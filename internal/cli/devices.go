package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/vietddude/stylelog"

	"github.com/vietddude/pacman/internal/core/domain"
	"github.com/vietddude/pacman/internal/infra/usb"
	"github.com/vietddude/pacman/internal/interception/classifier"
)

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List USB devices and how the interceptor would treat them",
	Run:   runDevices,
}

func init() {
	rootCmd.AddCommand(devicesCmd)
}

func runDevices(cmd *cobra.Command, args []string) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		stylelog.InitDefault()
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	setupLogging(cfg, nil)

	bus, err := usb.NewLibUSB()
	if err != nil {
		slog.Error("Failed to open USB bus", "error", err)
		os.Exit(1)
	}
	defer func() {
		_ = bus.Close()
	}()

	devices, err := bus.Enumerate()
	if err != nil {
		slog.Error("Failed to enumerate devices", "error", err)
		os.Exit(1)
	}

	printDevices(os.Stdout, devices, classifier.New(cfg.Interceptor.FastbootProductIDs...))
}

func printDevices(out io.Writer, devices []domain.Device, c *classifier.Classifier) {
	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	_, _ = fmt.Fprintln(w, "BUS\tADDRESS\tVID\tPID\tSPEED\tCLASS")
	for _, d := range devices {
		_, _ = fmt.Fprintf(w, "%03d\t%03d\t%04x\t%04x\t%s\t%s\n",
			d.Bus, d.Address, d.Vendor, d.Product, d.Speed, c.Classify(d.Vendor, d.Product))
	}
	_ = w.Flush()
}
