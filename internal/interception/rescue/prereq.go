package rescue

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hashicorp/go-multierror"

	"github.com/vietddude/pacman/internal/core/config"
)

// ErrPrerequisites is wrapped by every CheckPrerequisites failure.
var ErrPrerequisites = errors.New("prerequisites missing")

// Problem is one missing prerequisite with the step that fixes it.
type Problem struct {
	What   string
	Path   string
	Remedy string
}

func (p *Problem) Error() string {
	return fmt.Sprintf("%s: %s (%s)", p.What, p.Path, p.Remedy)
}

// CheckPrerequisites verifies the rescue script, the firmware directory and
// every required firmware image. All problems are reported together.
func CheckPrerequisites(tk config.ToolkitConfig) error {
	var result *multierror.Error

	script := tk.RescueScriptPath()
	if !isFile(script) {
		result = multierror.Append(result, &Problem{
			What:   "Rescue script not found",
			Path:   script,
			Remedy: "run the setup routine or set toolkit.dir",
		})
	}

	fwDir := tk.FirmwarePath()
	if !isDir(fwDir) {
		result = multierror.Append(result, &Problem{
			What:   "Firmware directory not found",
			Path:   fwDir,
			Remedy: "run the setup routine to download firmware",
		})
	} else {
		for _, name := range tk.RequiredFirmware {
			p := filepath.Join(fwDir, name)
			if !isFile(p) {
				result = multierror.Append(result, &Problem{
					What:   name + " not found",
					Path:   p,
					Remedy: fmt.Sprintf("place %s in %s", name, fwDir),
				})
			}
		}
	}

	if err := result.ErrorOrNil(); err != nil {
		return fmt.Errorf("%w: %w", ErrPrerequisites, err)
	}
	return nil
}

// Problems returns the individual problems carried by a CheckPrerequisites error.
func Problems(err error) []*Problem {
	var merr *multierror.Error
	if !errors.As(err, &merr) {
		return nil
	}
	out := make([]*Problem, 0, len(merr.Errors))
	for _, e := range merr.Errors {
		var p *Problem
		if errors.As(e, &p) {
			out = append(out, p)
		}
	}
	return out
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
