// Package blockdev resolves and validates block device paths and queries
// device metadata via blkid.
package blockdev

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/rgeorgiev583/storage-provisioning-tools/executil"
)

// ValidatePath checks that path plausibly names a block device node. Any path
// under /dev/ is accepted so that sd*, nvme*, vd*, md* and /dev/disk/by-*
// names all work; the check deliberately does not stat the path, so requests
// can be validated before the device exists.
func ValidatePath(path string) error {
	if path == "" {
		return errors.New("device path is empty")
	}
	if !strings.HasPrefix(path, "/dev/") || len(path) == len("/dev/") {
		return fmt.Errorf("device path %q does not begin with /dev/", path)
	}
	if strings.ContainsAny(path, " \t\n") {
		return fmt.Errorf("device path %q contains whitespace", path)
	}
	return nil
}

// MapperName derives a device-mapper name from the last segment of the
// device path, e.g. /dev/sdb1 -> sdb1.
func MapperName(devicePath string) string {
	return filepath.Base(devicePath)
}

// MapperDevicePath returns the device node exposed for a mapper name.
func MapperDevicePath(mapperName string) string {
	return "/dev/mapper/" + mapperName
}

// IsBlockDevice reports whether path exists and is a block device node.
func IsBlockDevice(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeDevice != 0 && info.Mode()&os.ModeCharDevice == 0
}

// UUID queries the filesystem/container UUID of a device via blkid and
// validates the result.
func UUID(runner executil.Runner, devicePath string) (string, error) {
	out, err := runner.Output(executil.New("blkid", "-s", "UUID", "-o", "value", devicePath))
	if err != nil {
		return "", fmt.Errorf("could not query UUID of %s: %w", devicePath, err)
	}
	id, err := uuid.Parse(out)
	if err != nil {
		return "", fmt.Errorf("blkid returned malformed UUID %q for %s: %w", out, devicePath, err)
	}
	return id.String(), nil
}
