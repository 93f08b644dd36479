package labelstudio

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"syscall"

	"github.com/thumbtrend/thumbtrend/config"
)

const defaultCommand = "label-studio"

// Runner starts and stops a local labeling-tool instance, tracking it
// through a PID file so a later invocation can replace an earlier one.
type Runner struct {
	command      string
	pidFile      string
	documentRoot string
}

func NewRunner(cfg *config.Config) *Runner {
	command := cfg.LabelStudio.Command
	if command == "" {
		command = defaultCommand
	}
	pidFile := cfg.LabelStudio.PIDFile
	if pidFile == "" {
		pidFile = "labelstudio.pid"
	}
	return &Runner{
		command:      command,
		pidFile:      pidFile,
		documentRoot: cfg.LabelStudio.DocumentRoot,
	}
}

// Stop terminates the instance recorded in the PID file, if any. A stale
// PID file pointing at a dead process is cleaned up silently.
func (r *Runner) Stop() error {
	data, err := os.ReadFile(r.pidFile)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to read PID file: %w", err)
	}
	defer os.Remove(r.pidFile)

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return fmt.Errorf("PID file %s is corrupt: %w", r.pidFile, err)
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return nil
	}
	if err := process.Signal(syscall.SIGTERM); err != nil {
		// Already gone.
		log.Debugf("process %d not running: %v", pid, err)
		return nil
	}
	log.Infof("stopped labeling tool (PID %d)", pid)
	return nil
}

// Start stops any previous instance, then launches a new one detached
// with local-file serving enabled against the document root. The new PID
// is recorded for the next Stop.
func (r *Runner) Start() error {
	if err := r.Stop(); err != nil {
		return err
	}

	cmd := exec.Command(r.command, "start")
	cmd.Env = append(os.Environ(),
		"LABEL_STUDIO_LOCAL_FILES_SERVING_ENABLED=true",
		"LABEL_STUDIO_LOCAL_FILES_DOCUMENT_ROOT="+r.documentRoot,
	)
	cmd.Stdout = nil
	cmd.Stderr = nil

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start %s: %w", r.command, err)
	}

	pid := cmd.Process.Pid
	if err := os.WriteFile(r.pidFile, []byte(strconv.Itoa(pid)), 0o644); err != nil {
		return fmt.Errorf("failed to write PID file: %w", err)
	}

	// Detach so the tool outlives this process.
	if err := cmd.Process.Release(); err != nil {
		return fmt.Errorf("failed to release process: %w", err)
	}
	log.Infof("labeling tool started (PID %d)", pid)
	return nil
}
