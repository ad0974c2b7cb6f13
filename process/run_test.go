package process_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/kbukum/minutes/process"
)

func TestRun(t *testing.T) {
	tests := []struct {
		name       string
		cmd        process.Command
		wantErr    bool
		wantCode   int
		wantStdout string
		wantStderr string
	}{
		{
			name:       "version query",
			cmd:        process.Command{Binary: "sh", Args: []string{"-c", "echo ffmpeg version 7.1"}},
			wantStdout: "ffmpeg version 7.1",
		},
		{
			name:       "stdin is piped",
			cmd:        process.Command{Binary: "cat", Stdin: strings.NewReader("pcm")},
			wantStdout: "pcm",
		},
		{
			name:       "encoder failure",
			cmd:        process.Command{Binary: "sh", Args: []string{"-c", "echo 'pipe:0: Invalid data' >&2; exit 187"}},
			wantErr:    true,
			wantCode:   187,
			wantStderr: "pipe:0: Invalid data",
		},
		{
			name:       "extra env is merged",
			cmd:        process.Command{Binary: "sh", Args: []string{"-c", "echo $AV_LOG_FORCE_NOCOLOR"}, Env: []string{"AV_LOG_FORCE_NOCOLOR=1"}},
			wantStdout: "1",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := process.Run(context.Background(), tt.cmd)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if res.ExitCode != tt.wantCode {
				t.Errorf("exit code = %d, want %d", res.ExitCode, tt.wantCode)
			}
			if got := strings.TrimSpace(string(res.Stdout)); got != tt.wantStdout {
				t.Errorf("stdout = %q, want %q", got, tt.wantStdout)
			}
			if got := res.StderrTail(0); got != tt.wantStderr {
				t.Errorf("stderr = %q, want %q", got, tt.wantStderr)
			}
		})
	}
}

func TestRunRequiresBinary(t *testing.T) {
	if _, err := process.Run(context.Background(), process.Command{}); err == nil {
		t.Fatal("empty binary accepted")
	}
}

func TestRunCanceledTerminatesGroup(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	res, err := process.Run(ctx, process.Command{
		Binary:      "sh",
		Args:        []string{"-c", "sleep 10 & wait"},
		GracePeriod: 300 * time.Millisecond,
	})
	if err == nil || !strings.Contains(err.Error(), "killed by context") {
		t.Fatalf("err = %v", err)
	}
	if res.Duration > 3*time.Second {
		t.Fatalf("took %v to stop", res.Duration)
	}
}

func TestStderrTail(t *testing.T) {
	banner := strings.Repeat("configuration: --enable-libmp3lame\n", 20)
	res := &process.Result{Stderr: []byte(banner + "Error opening output file clip.mp3\n")}

	tail := res.StderrTail(48)
	if tail != "Error opening output file clip.mp3" {
		t.Errorf("tail = %q", tail)
	}
	if got := res.StderrTail(0); !strings.HasPrefix(got, "configuration:") {
		t.Errorf("untrimmed tail = %.20q", got)
	}
	var none *process.Result
	if none.StderrTail(10) != "" {
		t.Error("nil result has a tail")
	}
}
