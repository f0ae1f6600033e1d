package logging

import (
	"io"
	"os"

	hclog "github.com/hashicorp/go-hclog"
)

// New returns the root logger. Unknown levels fall back to info.
func New(name, level string, output io.Writer) hclog.Logger {
	if output == nil {
		output = os.Stderr
	}
	lvl := hclog.LevelFromString(level)
	if lvl == hclog.NoLevel {
		lvl = hclog.Info
	}
	return hclog.New(&hclog.LoggerOptions{
		Name:   name,
		Level:  lvl,
		Output: output,
	})
}
