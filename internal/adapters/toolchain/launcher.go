package toolchain

import (
	"context"
	"fmt"
	"os"
	"runtime"

	"github.com/kamal-hamza/nst/internal/core/ports"
)

// Launcher implements ports.Launcher with detached jobs
type Launcher struct {
	runner *Runner
	dir    string
	env    []string
}

// NewLauncher creates a launcher that starts programs in dir with env
func NewLauncher(runner *Runner, dir string, env []string) *Launcher {
	return &Launcher{runner: runner, dir: dir, env: env}
}

var _ ports.Launcher = (*Launcher)(nil)

// Launch starts program detached. An empty program opens the first argument
// with the OS default application.
func (l *Launcher) Launch(ctx context.Context, program string, args ...string) error {
	if program == "" {
		if len(args) == 0 {
			return fmt.Errorf("nothing to launch")
		}
		program, args = systemOpener(args[0])
	}

	return l.runner.Detach(Job{
		Name:    program,
		Program: program,
		Args:    args,
		Dir:     l.dir,
		Env:     l.env,
	})
}

func systemOpener(path string) (string, []string) {
	switch runtime.GOOS {
	case "darwin":
		return "open", []string{path}
	case "windows":
		return "cmd", []string{"/c", "start", path}
	default:
		if env := os.Getenv("BROWSER"); env != "" {
			return env, []string{path}
		}
		return "xdg-open", []string{path}
	}
}
