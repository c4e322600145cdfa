package executil

// RecordingRunner records every command instead of executing it. Failures and
// canned outputs are scripted per program name, or per "program subcommand"
// pair for tools like cryptsetup whose first argument selects the action.
type RecordingRunner struct {
	// Commands holds every command passed to Run or Output, in order.
	Commands []Command

	// FailOn maps a command key to the error Run/Output should return.
	FailOn map[string]error

	// Outputs maps a command key to the string Output should return.
	Outputs map[string]string
}

// Key returns the lookup key for a command: the program name, plus the first
// argument if one exists.
func Key(cmd Command) string {
	if len(cmd.Args) == 0 {
		return cmd.Program
	}
	return cmd.Program + " " + cmd.Args[0]
}

func (r *RecordingRunner) Run(cmd Command) error {
	r.Commands = append(r.Commands, cmd)
	if err := r.failure(cmd); err != nil {
		return err
	}
	return nil
}

func (r *RecordingRunner) Output(cmd Command) (string, error) {
	r.Commands = append(r.Commands, cmd)
	if err := r.failure(cmd); err != nil {
		return "", err
	}
	if out, ok := r.Outputs[Key(cmd)]; ok {
		return out, nil
	}
	if out, ok := r.Outputs[cmd.Program]; ok {
		return out, nil
	}
	return "", nil
}

func (r *RecordingRunner) failure(cmd Command) error {
	if err, ok := r.FailOn[Key(cmd)]; ok {
		return err
	}
	if err, ok := r.FailOn[cmd.Program]; ok {
		return err
	}
	return nil
}

// Programs returns the recorded program names, in invocation order.
func (r *RecordingRunner) Programs() []string {
	programs := make([]string, 0, len(r.Commands))
	for _, cmd := range r.Commands {
		programs = append(programs, cmd.Program)
	}
	return programs
}

// Keys returns the recorded command keys, in invocation order.
func (r *RecordingRunner) Keys() []string {
	keys := make([]string, 0, len(r.Commands))
	for _, cmd := range r.Commands {
		keys = append(keys, Key(cmd))
	}
	return keys
}
