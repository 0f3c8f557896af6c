package protocol

import (
	"os"
	"path/filepath"
)

// PayloadArg is the subcommand that performs the BROM handshake.
const PayloadArg = "payload"

// Resolver finds the payload-injection tool. It checks the filesystem on
// every call since the toolchain may change between attempts.
type Resolver struct {
	// Dir is the bundled mtkclient checkout.
	Dir string
	// Python runs the bundled scripts.
	Python string
	// Fallback is the tool name looked up on the search path.
	Fallback string
	// Exists reports whether a path exists. Defaults to os.Stat.
	Exists func(path string) bool
}

// Resolve returns the argv of the payload command, preferring the bundled
// mtk.py, then the legacy bundled mtk entry point, then the system tool.
func (r *Resolver) Resolve() []string {
	exists := r.Exists
	if exists == nil {
		exists = fileExists
	}

	for _, name := range []string{"mtk.py", "mtk"} {
		script := filepath.Join(r.Dir, name)
		if exists(script) {
			return []string{r.Python, script, PayloadArg}
		}
	}
	return []string{r.Fallback, PayloadArg}
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
