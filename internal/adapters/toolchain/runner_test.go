package toolchain

import (
	"context"
	"errors"
	"os"
	"runtime"
	"slices"
	"testing"
	"time"

	"github.com/kamal-hamza/nst/pkg/config"
	"github.com/kamal-hamza/nst/pkg/workspace"
)

func requireShell(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("tests use /bin/sh")
	}
}

func shellJob(name, script string) Job {
	return Job{Name: name, Program: "sh", Args: []string{"-c", script}}
}

func TestRunner_RunCollectsOutput(t *testing.T) {
	requireShell(t)
	r := NewRunner(16, nil)

	var lines []string
	code, err := r.Run(context.Background(), shellJob("echo", "echo one; echo two >&2; echo three"), func(line string) {
		lines = append(lines, line)
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if code != 0 {
		t.Errorf("expected exit code 0, got %d", code)
	}
	for _, want := range []string{"one", "two", "three"} {
		if !slices.Contains(lines, want) {
			t.Errorf("missing output line %q in %v", want, lines)
		}
	}
	if r.Busy() {
		t.Error("runner should not be busy after Run returns")
	}
}

func TestRunner_ExitCode(t *testing.T) {
	requireShell(t)
	r := NewRunner(4, nil)

	code, err := r.Run(context.Background(), shellJob("fail", "exit 3"), nil)
	if err != nil {
		t.Fatalf("a non-zero exit is reported through the code, got error %v", err)
	}
	if code != 3 {
		t.Errorf("expected exit code 3, got %d", code)
	}
}

func TestRunner_RefusesSecondJobWhileBusy(t *testing.T) {
	requireShell(t)
	r := NewRunner(4, nil)
	ctx := context.Background()

	if err := r.Start(ctx, shellJob("slow", "sleep 0.3")); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if !r.Busy() {
		t.Error("runner should be busy while the job runs")
	}

	err := r.Start(ctx, shellJob("second", "true"))
	if !errors.Is(err, ErrBusy) {
		t.Fatalf("expected ErrBusy, got %v", err)
	}

	timeout := time.After(5 * time.Second)
	for {
		select {
		case ev := <-r.Events():
			if ev.Kind != EventExit {
				continue
			}
			if ev.Job != "slow" || ev.ExitCode != 0 {
				t.Errorf("unexpected exit event %+v", ev)
			}
			if r.Busy() {
				t.Error("busy flag must be cleared before the exit event is delivered")
			}
			if err := r.Start(ctx, shellJob("third", "true")); err != nil {
				t.Errorf("runner should accept a new job after exit, got %v", err)
			}
			return
		case <-timeout:
			t.Fatal("timed out waiting for exit event")
		}
	}
}

func TestRunner_StartFailureClearsBusy(t *testing.T) {
	r := NewRunner(1, nil)

	err := r.Start(context.Background(), Job{Name: "missing", Program: "nst-no-such-program-xyz"})
	if err == nil {
		t.Fatal("expected error for a missing program")
	}
	if r.Busy() {
		t.Error("failed start must not leave the runner busy")
	}
}

func TestRunner_Detach(t *testing.T) {
	requireShell(t)
	r := NewRunner(1, nil)

	if err := r.Detach(shellJob("bg", "true")); err != nil {
		t.Fatalf("Detach failed: %v", err)
	}
	if r.Busy() {
		t.Error("detached jobs do not set the busy flag")
	}
	if err := r.Detach(Job{Name: "missing", Program: "nst-no-such-program-xyz"}); err == nil {
		t.Error("expected error for a missing program")
	}
}

func TestMake_BuildUsesProjectEnv(t *testing.T) {
	requireShell(t)

	ws, err := workspace.New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(ws.EnvFile(), []byte("GREETING=hello\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg := config.DefaultConfig()
	cfg.SDKPath = "/opt/libdragon"
	cfg.BuildTool = "sh"
	cfg.BuildFlags = []string{"-c", "echo $GREETING; echo $N64_INST; pwd"}

	m := NewMake(NewRunner(8, nil), ws, cfg, 1)

	var lines []string
	code, err := m.Build(context.Background(), func(line string) { lines = append(lines, line) })
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if code != 0 {
		t.Errorf("expected exit 0, got %d", code)
	}
	if !slices.Contains(lines, "hello") {
		t.Errorf(".env variable not exported: %v", lines)
	}
	if !slices.Contains(lines, "/opt/libdragon") {
		t.Errorf("N64_INST not exported: %v", lines)
	}
}

func TestMake_NonZeroExitIsError(t *testing.T) {
	requireShell(t)

	ws, err := workspace.New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	cfg := config.DefaultConfig()
	cfg.BuildTool = "sh"
	cfg.BuildFlags = []string{"-c", "exit 2"}

	code, err := NewMake(NewRunner(4, nil), ws, cfg, 1).Build(context.Background(), nil)
	if err == nil {
		t.Fatal("expected error for failing build")
	}
	if code != 2 {
		t.Errorf("expected exit code 2, got %d", code)
	}
}

func TestEnvironment_WithoutEnvFile(t *testing.T) {
	ws, err := workspace.New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	cfg := config.DefaultConfig()
	cfg.SDKPath = ""

	env, err := Environment(ws, cfg)
	if err != nil {
		t.Fatalf("Environment failed: %v", err)
	}
	if len(env) != len(os.Environ()) {
		t.Errorf("expected only the inherited environment, got %d extra entries", len(env)-len(os.Environ()))
	}
}
