package recovery

import (
	"bytes"
	"errors"
	"os"
	"os/exec"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// crashers run in a subprocess selected by RECOVERY_CRASH
var crashers = map[string]func(){
	"handle": func() {
		defer HandlePanic()
		panic("session exploded")
	},
	"cleanup": func() {
		defer HandlePanicFunc(func() {
			_, _ = os.Stdout.WriteString("AUDIO_CLOSED\n")
		})
		panic("scheduler exploded")
	},
}

func TestMain(m *testing.M) {
	if name := os.Getenv("RECOVERY_CRASH"); name != "" {
		crashers[name]()
		os.Exit(0)
	}
	os.Exit(m.Run())
}

func TestHandlePanic_NoPanic(t *testing.T) {
	func() {
		defer HandlePanic()
	}()
}

func TestHandlePanicFunc_NoPanic(t *testing.T) {
	called := false
	func() {
		defer HandlePanicFunc(func() { called = true })
	}()
	if called {
		t.Error("cleanup was called without a panic")
	}

	// nil cleanup is allowed
	func() {
		defer HandlePanicFunc(nil)
	}()
}

func TestHandlePanic_Exits(t *testing.T) {
	tests := []struct {
		crasher    string
		wantStderr []string
		wantStdout string
	}{
		{"handle", []string{"FATAL", "session exploded", "Stack trace"}, ""},
		{"cleanup", []string{"FATAL", "scheduler exploded"}, "AUDIO_CLOSED"},
	}

	for _, tt := range tests {
		t.Run(tt.crasher, func(t *testing.T) {
			cmd := exec.Command(os.Args[0], "-test.run=^$")
			cmd.Env = append(os.Environ(), "RECOVERY_CRASH="+tt.crasher)
			var stdout, stderr bytes.Buffer
			cmd.Stdout = &stdout
			cmd.Stderr = &stderr

			err := cmd.Run()
			var exitErr *exec.ExitError
			if !errors.As(err, &exitErr) {
				t.Fatalf("Run() error = %v, want exit status 1", err)
			}
			if exitErr.ExitCode() != 1 {
				t.Errorf("exit code = %d, want 1", exitErr.ExitCode())
			}
			for _, want := range tt.wantStderr {
				if !bytes.Contains(stderr.Bytes(), []byte(want)) {
					t.Errorf("stderr missing %q, got: %s", want, stderr.String())
				}
			}
			if tt.wantStdout != "" && !bytes.Contains(stdout.Bytes(), []byte(tt.wantStdout)) {
				t.Errorf("stdout missing %q, got: %s", tt.wantStdout, stdout.String())
			}
		})
	}
}

func TestGuard_RecoversAndLogs(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	log := zap.New(core)

	func() {
		defer Guard(log, "completion")
		panic("boom")
	}()

	entries := logs.FilterMessage("recovered panic").All()
	if len(entries) != 1 {
		t.Fatalf("logged %d entries, want 1", len(entries))
	}
	if got := entries[0].ContextMap()["where"]; got != "completion" {
		t.Errorf("where = %v, want completion", got)
	}
}

func TestGuard_NoPanic(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	func() {
		defer Guard(zap.New(core), "idle")
	}()
	if logs.Len() != 0 {
		t.Errorf("logged %d entries, want 0", logs.Len())
	}
}

func TestGuard_NilLogger(t *testing.T) {
	func() {
		defer Guard(nil, "nil")
		panic("boom")
	}()
}
