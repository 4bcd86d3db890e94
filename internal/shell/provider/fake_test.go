package provider

import (
	"context"
	"strings"
	"time"

	"github.com/nexxera/ndeploy/internal/shell/shellexec"
)

// scripted is a canned response for commands containing match. A response
// marked once is consumed by its first hit.
type scripted struct {
	match  string
	result shellexec.Result
	err    error
	once   bool
}

// fakeRunner records every executed command and answers from a script.
// Commands with no scripted response succeed with empty output.
type fakeRunner struct {
	commands      []string
	shellCommands []string
	script        []scripted
	shellErr      error
}

func (f *fakeRunner) respond(match string, result shellexec.Result, err error) {
	f.script = append(f.script, scripted{match: match, result: result, err: err})
}

func (f *fakeRunner) respondOnce(match string, result shellexec.Result, err error) {
	f.script = append(f.script, scripted{match: match, result: result, err: err, once: true})
}

func (f *fakeRunner) Execute(ctx context.Context, command string, silent bool) (shellexec.Result, error) {
	f.commands = append(f.commands, command)
	for i, s := range f.script {
		if strings.Contains(command, s.match) {
			if s.once {
				f.script = append(f.script[:i], f.script[i+1:]...)
			}
			return s.result, s.err
		}
	}
	return shellexec.Result{}, nil
}

func (f *fakeRunner) ExecuteWithTimeout(ctx context.Context, command string, silent bool, timeout time.Duration) (shellexec.Result, error) {
	return f.Execute(ctx, command, silent)
}

func (f *fakeRunner) ExecuteShell(ctx context.Context, command string) error {
	f.shellCommands = append(f.shellCommands, command)
	return f.shellErr
}

// count returns how many executed commands contain match.
func (f *fakeRunner) count(match string) int {
	n := 0
	for _, cmd := range f.commands {
		if strings.Contains(cmd, match) {
			n++
		}
	}
	return n
}
