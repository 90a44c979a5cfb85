package strategy

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"time"

	json "github.com/goccy/go-json"
	"github.com/mselser95/polymarket-trader/pkg/types"
)

// Subprocess runs an external, operator-editable strategy executable.
// The SignalInput is written to the process's stdin as JSON and a
// Signal is read back from stdout. Any failure — spawn error, timeout,
// non-zero exit, unparseable output — surfaces as an error and degrades
// to HOLD at the Guard. The executable is untrusted and never shares
// the host's state.
type Subprocess struct {
	command string
	args    []string
	timeout time.Duration
}

// SubprocessConfig holds subprocess strategy configuration.
type SubprocessConfig struct {
	Command string
	Args    []string
	Timeout time.Duration
}

// NewSubprocess creates a subprocess strategy adapter.
func NewSubprocess(cfg *SubprocessConfig) (*Subprocess, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if cfg.Command == "" {
		return nil, fmt.Errorf("command cannot be empty")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	return &Subprocess{
		command: cfg.Command,
		args:    cfg.Args,
		timeout: timeout,
	}, nil
}

// Name implements Strategy.
func (s *Subprocess) Name() string {
	return "subprocess:" + s.command
}

// Evaluate implements Strategy.
func (s *Subprocess) Evaluate(input types.SignalInput) (types.Signal, error) {
	payload, err := json.Marshal(input)
	if err != nil {
		return types.Signal{}, fmt.Errorf("marshal signal input: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, s.command, s.args...)
	cmd.Stdin = bytes.NewReader(payload)

	var stdout bytes.Buffer
	cmd.Stdout = &stdout

	err = cmd.Run()
	if err != nil {
		return types.Signal{}, fmt.Errorf("run strategy command: %w", err)
	}

	var signal types.Signal
	err = json.Unmarshal(stdout.Bytes(), &signal)
	if err != nil {
		return types.Signal{}, fmt.Errorf("decode strategy output: %w", err)
	}

	return signal, nil
}
