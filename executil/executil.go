// Package executil runs external system utilities with structured argument
// lists. Commands are built as explicit argv slices so no value ever passes
// through a shell, and execution goes through the Runner interface so callers
// can be exercised in tests without touching the system.
package executil

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// Command is a single external tool invocation: a program, its argument list,
// and optional data piped to stdin.
type Command struct {
	Program string
	Args    []string
	Stdin   string
}

// New builds a Command for the given program and arguments.
func New(program string, args ...string) Command {
	return Command{Program: program, Args: args}
}

// WithStdin returns a copy of the command with data attached to stdin.
func (c Command) WithStdin(data string) Command {
	c.Stdin = data
	return c
}

// String renders the command for logging. Stdin contents are never included.
func (c Command) String() string {
	return strings.Join(append([]string{c.Program}, c.Args...), " ")
}

// Runner executes external commands.
type Runner interface {
	// Run executes the command and waits for it to finish.
	Run(cmd Command) error

	// Output executes the command and returns its standard output with
	// surrounding whitespace trimmed.
	Output(cmd Command) (string, error)
}

// ExecRunner runs commands via os/exec. Commands without explicit stdin data
// inherit the process stdin, so interactive tools can still prompt on the
// terminal.
type ExecRunner struct{}

func (ExecRunner) Run(cmd Command) error {
	c := exec.Command(cmd.Program, cmd.Args...)
	if cmd.Stdin != "" {
		c.Stdin = strings.NewReader(cmd.Stdin)
	} else {
		c.Stdin = os.Stdin
	}
	c.Stderr = os.Stderr
	if err := c.Run(); err != nil {
		return fmt.Errorf("%s: %w", cmd.Program, err)
	}
	return nil
}

func (ExecRunner) Output(cmd Command) (string, error) {
	c := exec.Command(cmd.Program, cmd.Args...)
	if cmd.Stdin != "" {
		c.Stdin = strings.NewReader(cmd.Stdin)
	}
	out, err := c.Output()
	if err != nil {
		return "", fmt.Errorf("%s: %w", cmd.Program, err)
	}
	return strings.TrimSpace(string(out)), nil
}
