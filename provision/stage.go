package provision

import "errors"

// Stage identifies a step of the provisioning pipeline. Stages run strictly
// in order; the first failure aborts the remainder.
type Stage int

const (
	StageValidating Stage = iota
	StageContainerPrep
	StageFormatting
	StageUnlocking
	StageMakingFilesystem
	StageMounting
	StagePersisting
	StageDone
)

func (s Stage) String() string {
	switch s {
	case StageValidating:
		return "validating"
	case StageContainerPrep:
		return "container-prep"
	case StageFormatting:
		return "formatting"
	case StageUnlocking:
		return "unlocking"
	case StageMakingFilesystem:
		return "making-filesystem"
	case StageMounting:
		return "mounting"
	case StagePersisting:
		return "persisting"
	case StageDone:
		return "done"
	default:
		return "unknown"
	}
}

// Error is a pipeline failure tagged with the stage it occurred in.
type Error struct {
	Stage Stage
	Err   error
}

func (e *Error) Error() string {
	return e.Stage.String() + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Process exit codes, one per failure class, for calling automation to
// branch on.
const (
	ExitOK             = 0
	ExitMissingDevice  = 1
	ExitInvalidDevice  = 2
	ExitContainerPrep  = 3
	ExitFormat         = 4
	ExitUnlock         = 5
	ExitMakeFilesystem = 6
	ExitMount          = 7
	ExitPersistence    = 8
	ExitKeyFile        = 9
	ExitMountPointBusy = 10
)

// ExitCode maps a pipeline error to its process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	if errors.Is(err, ErrMissingDevice) {
		return ExitMissingDevice
	}
	if errors.Is(err, ErrMountPointBusy) {
		return ExitMountPointBusy
	}

	var stageErr *Error
	if !errors.As(err, &stageErr) {
		return ExitInvalidDevice
	}
	switch stageErr.Stage {
	case StageValidating:
		return ExitInvalidDevice
	case StageContainerPrep:
		return ExitContainerPrep
	case StageFormatting:
		return ExitFormat
	case StageUnlocking:
		return ExitUnlock
	case StageMakingFilesystem:
		return ExitMakeFilesystem
	case StageMounting:
		return ExitMount
	case StagePersisting:
		return ExitPersistence
	default:
		return ExitInvalidDevice
	}
}
