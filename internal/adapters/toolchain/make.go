package toolchain

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"sort"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/kamal-hamza/nst/internal/core/ports"
	"github.com/kamal-hamza/nst/pkg/config"
	"github.com/kamal-hamza/nst/pkg/workspace"
)

// Make implements ports.Toolchain by running the project's generated
// Makefile through the runner
type Make struct {
	runner *Runner
	ws     *workspace.Workspace
	config *config.Config
	jobs   int
}

// NewMake creates a make based toolchain. jobs overrides config.BuildJobs when > 0.
func NewMake(runner *Runner, ws *workspace.Workspace, cfg *config.Config, jobs int) *Make {
	if jobs <= 0 {
		jobs = cfg.BuildJobs
	}
	return &Make{
		runner: runner,
		ws:     ws,
		config: cfg,
		jobs:   jobs,
	}
}

var _ ports.Toolchain = (*Make)(nil)

// Build runs `make -j<N>` in the project root
func (m *Make) Build(ctx context.Context, onOutput func(line string)) (int, error) {
	args := make([]string, 0, len(m.config.BuildFlags)+1)
	if m.jobs > 1 {
		args = append(args, "-j"+strconv.Itoa(m.jobs))
	}
	args = append(args, m.config.BuildFlags...)

	return m.run(ctx, "build", args, onOutput)
}

// Clean runs `make clean` in the project root
func (m *Make) Clean(ctx context.Context, onOutput func(line string)) (int, error) {
	return m.run(ctx, "clean", []string{"clean"}, onOutput)
}

func (m *Make) run(ctx context.Context, name string, args []string, onOutput func(string)) (int, error) {
	env, err := Environment(m.ws, m.config)
	if err != nil {
		return -1, err
	}

	job := Job{
		Name:    name,
		Program: m.config.BuildTool,
		Args:    args,
		Dir:     m.ws.RootPath,
		Env:     env,
	}

	code, err := m.runner.Run(ctx, job, onOutput)
	if err != nil {
		return code, err
	}
	if code != 0 {
		return code, fmt.Errorf("%s exited with code %d", job.String(), code)
	}
	return code, nil
}

// Environment returns the process environment for toolchain commands:
// the current environment, then the project's .env file, then N64_INST
// from the user config when set
func Environment(ws *workspace.Workspace, cfg *config.Config) ([]string, error) {
	env := os.Environ()

	if _, err := os.Stat(ws.EnvFile()); err == nil {
		vars, err := godotenv.Read(ws.EnvFile())
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", ws.EnvFile(), err)
		}
		keys := make([]string, 0, len(vars))
		for k := range vars {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			env = append(env, k+"="+vars[k])
		}
	}

	if cfg.SDKPath != "" {
		env = append(env, "N64_INST="+cfg.SDKPath)
	}

	return env, nil
}

// IsAvailable checks if the configured build tool is on PATH
func IsAvailable(tool string) bool {
	_, err := exec.LookPath(tool)
	return err == nil
}
