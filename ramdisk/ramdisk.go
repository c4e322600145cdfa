// Package ramdisk provisions memory-backed filesystems. A plain request
// mounts a tmpfs; a request naming a ram block device (/dev/ram*) formats the
// device and mounts it, for workloads that need a fixed-size disk-like
// device rather than a dynamically sized tmpfs.
package ramdisk

import (
	"errors"
	"fmt"
	"os"

	"github.com/rgeorgiev583/storage-provisioning-tools/blockdev"
	"github.com/rgeorgiev583/storage-provisioning-tools/executil"
)

// Defaults applied by NewRequest.
const (
	DefaultSize             = "512M"
	DefaultDeviceFilesystem = "ext2"
)

// Request describes the ramdisk to provision.
type Request struct {
	// MountPoint is where the ramdisk is mounted. Required.
	MountPoint string

	// Size is the tmpfs size, e.g. "512M" or "2G". Ignored when Device is
	// set (ram devices have a fixed size).
	Size string

	// Device optionally names a ram block device to format and mount
	// instead of a tmpfs.
	Device string

	// Filesystem is created on Device. Ignored for tmpfs mounts.
	Filesystem string
}

// NewRequest validates the mount point and optional device and fills in
// defaults.
func NewRequest(mountPoint, size, device, filesystem string) (Request, error) {
	if mountPoint == "" {
		return Request{}, errors.New("no mount point given")
	}
	if device != "" {
		if err := blockdev.ValidatePath(device); err != nil {
			return Request{}, err
		}
	}
	if size == "" {
		size = DefaultSize
	}
	if filesystem == "" {
		filesystem = DefaultDeviceFilesystem
	}
	return Request{MountPoint: mountPoint, Size: size, Device: device, Filesystem: filesystem}, nil
}

// Provision creates and mounts the ramdisk.
func Provision(runner executil.Runner, req Request) error {
	os.MkdirAll(req.MountPoint, 0755)

	if req.Device == "" {
		cmd := executil.New("mount", "-t", "tmpfs", "-o", "size="+req.Size, "tmpfs", req.MountPoint)
		if err := runner.Run(cmd); err != nil {
			return fmt.Errorf("could not mount tmpfs at %s: %w", req.MountPoint, err)
		}
		return nil
	}

	if err := runner.Run(executil.New("mkfs", "-t", req.Filesystem, req.Device)); err != nil {
		return fmt.Errorf("could not create %s filesystem on %s: %w", req.Filesystem, req.Device, err)
	}
	if err := runner.Run(executil.New("mount", req.Device, req.MountPoint)); err != nil {
		return fmt.Errorf("could not mount %s at %s: %w", req.Device, req.MountPoint, err)
	}
	return nil
}
