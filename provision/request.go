package provision

import (
	"errors"
	"fmt"

	"github.com/rgeorgiev583/storage-provisioning-tools/blockdev"
)

// Defaults applied by NewRequest when the corresponding field is unset.
const (
	DefaultFilesystem = "ext4"
	DefaultMountPoint = "/mnt"
)

var (
	// ErrMissingDevice is returned when no target device was given.
	ErrMissingDevice = errors.New("no target device given")

	// ErrInvalidDevice is returned when the target device path is malformed.
	ErrInvalidDevice = errors.New("invalid target device")

	// ErrMountPointBusy is returned when the requested mount point is
	// already mounted, to avoid clobbering a live filesystem.
	ErrMountPointBusy = errors.New("mount point is already mounted")
)

// Request is a fully validated encrypted-volume provisioning request. It is
// constructed once from command-line input and never mutated afterwards.
type Request struct {
	// Device is the raw block device to encrypt. Its previous contents are
	// destroyed.
	Device string

	// MapperName is the device-mapper name the unlocked device is exposed
	// under. Defaults to the last segment of the device path.
	MapperName string

	// Filesystem is created on the unlocked device. Defaults to ext4.
	Filesystem string

	// MountPoint is where the unlocked device is mounted. Defaults to /mnt.
	MountPoint string

	// SkipBootloader suppresses the bootloader kernel-cmdline update.
	SkipBootloader bool

	// SkipPersistence suppresses all boot-time configuration (initramfs,
	// bootloader, crypttab and fstab). Supersedes SkipBootloader.
	SkipPersistence bool
}

// NewRequest validates the device path and fills in defaults for the
// remaining fields.
func NewRequest(device, mapperName, filesystem, mountPoint string, skipBootloader, skipPersistence bool) (Request, error) {
	if device == "" {
		return Request{}, ErrMissingDevice
	}
	if err := blockdev.ValidatePath(device); err != nil {
		return Request{}, fmt.Errorf("%w: %w", ErrInvalidDevice, err)
	}

	if mapperName == "" {
		mapperName = blockdev.MapperName(device)
	}
	if filesystem == "" {
		filesystem = DefaultFilesystem
	}
	if mountPoint == "" {
		mountPoint = DefaultMountPoint
	}

	return Request{
		Device:          device,
		MapperName:      mapperName,
		Filesystem:      filesystem,
		MountPoint:      mountPoint,
		SkipBootloader:  skipBootloader,
		SkipPersistence: skipPersistence,
	}, nil
}
