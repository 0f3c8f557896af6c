package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/vietddude/pacman/internal/core/domain"
)

// UdevRulesFile is the conventional name for the installed rules.
const UdevRulesFile = "99-pacman-unbrick.rules"

// udevMode grants the owning group read/write access only.
const udevMode = "0660"

var udevGroup string

var udevCmd = &cobra.Command{
	Use:   "udev-rules",
	Short: "Print udev rules letting a non-root group open the target devices",
	Long: `Prints rules for the Google, Nothing and MediaTek vendor IDs. Install with:

  pacman udev-rules | sudo tee /etc/udev/rules.d/` + UdevRulesFile + `
  sudo udevadm control --reload-rules && sudo udevadm trigger

then add your user to the group.`,
	Args: cobra.NoArgs,
	Run:  runUdevRules,
}

func init() {
	udevCmd.Flags().StringVar(&udevGroup, "group", "uucp", "group granted access to the devices")
	rootCmd.AddCommand(udevCmd)
}

func runUdevRules(cmd *cobra.Command, args []string) {
	if err := writeUdevRules(os.Stdout, udevGroup); err != nil {
		slog.Error("Failed to write udev rules", "error", err)
		os.Exit(1)
	}
}

func writeUdevRules(w io.Writer, group string) error {
	if group == "" {
		return fmt.Errorf("udev group must not be empty")
	}
	vendors := []struct {
		id   uint16
		name string
	}{
		{domain.VendorGoogle, "Google (fastboot)"},
		{domain.VendorNothing, "Nothing (fastboot)"},
		{domain.VendorMediaTek, "MediaTek (BROM / preloader)"},
	}

	if _, err := fmt.Fprintf(w, "# %s: USB access for pacman without root\n", UdevRulesFile); err != nil {
		return err
	}
	for _, v := range vendors {
		if _, err := fmt.Fprintf(w, "# %s\nSUBSYSTEM==\"usb\", ATTR{idVendor}==\"%04x\", MODE=\"%s\", GROUP=\"%s\"\n",
			v.name, v.id, udevMode, group); err != nil {
			return err
		}
	}
	return nil
}
