// Package aptly wraps the aptly CLI for building and publishing APT
// repositories inside a throwaway root directory. Every command runs with
// -config pointing at a configuration file generated for the run and with
// inherited APTLY_* variables scrubbed from the environment, so a run can
// never read or damage the operator's own aptly state.
package aptly

import (
	"bytes"
	"context"
	stderrors "errors"
	"os"
	"os/exec"
	"strings"

	"github.com/feelpp/aptforge/pkg/errors"
	"github.com/feelpp/aptforge/pkg/logging"
)

// Runner executes one aptly invocation and returns its combined output.
// The production implementation shells out; tests substitute a fake.
type Runner interface {
	Run(ctx context.Context, args ...string) (string, error)
}

// ExecRunner runs the aptly binary with a pinned configuration file and a
// scrubbed environment.
type ExecRunner struct {
	Binary     string
	ConfigPath string
	RootDir    string
}

// scrubVars are the inherited environment variables that would redirect
// aptly away from the run's own root directory.
var scrubVars = []string{"APTLY_CONFIG", "APTLY_ROOT_DIR", "APTLY_ROOT", "APTLY_DB_DIR"}

// Run executes aptly with the given arguments. Stdout and stderr are
// captured together because aptly reports progress and failures on both.
// Failures are returned as a ProcessError carrying the full output.
func (r *ExecRunner) Run(ctx context.Context, args ...string) (string, error) {
	binary := r.Binary
	if binary == "" {
		binary = "aptly"
	}
	full := append([]string{"-config=" + r.ConfigPath}, args...)

	logging.FromContext(ctx).Debug().
		Str("command", binary+" "+strings.Join(full, " ")).
		Msg("Running aptly")

	cmd := exec.CommandContext(ctx, binary, full...)
	cmd.Env = r.Environment()
	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf

	err := cmd.Run()
	output := strings.TrimSpace(buf.String())
	if err != nil {
		exitCode := 0
		var exitErr *exec.ExitError
		if stderrors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		}
		return output, &errors.ProcessError{
			Operation: operation(args),
			Command:   binary + " " + strings.Join(args, " "),
			Output:    output,
			ExitCode:  exitCode,
			Err:       err,
		}
	}
	return output, nil
}

// Environment returns the process environment the runner hands to aptly:
// the inherited variables minus any aptly settings, plus this run's
// configuration and root directory.
func (r *ExecRunner) Environment() []string {
	env := make([]string, 0, len(os.Environ())+3)
	for _, kv := range os.Environ() {
		name, _, _ := strings.Cut(kv, "=")
		if isScrubbed(name) {
			continue
		}
		env = append(env, kv)
	}
	return append(env,
		"APTLY_CONFIG="+r.ConfigPath,
		"APTLY_ROOT_DIR="+r.RootDir,
		"APTLY_ROOT="+r.RootDir,
	)
}

func isScrubbed(name string) bool {
	for _, v := range scrubVars {
		if name == v {
			return true
		}
	}
	return false
}

// operation names the aptly subcommand for error reporting, skipping flags.
func operation(args []string) string {
	words := make([]string, 0, 2)
	for _, a := range args {
		if strings.HasPrefix(a, "-") {
			continue
		}
		words = append(words, a)
		if len(words) == 2 {
			break
		}
	}
	return strings.TrimSpace("aptly " + strings.Join(words, " "))
}
