package diskutil

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/rgeorgiev583/storage-provisioning-tools/blockdev"
	"github.com/rgeorgiev583/storage-provisioning-tools/executil"
)

// DiskConfig describes the encrypted disk being operated on.
type DiskConfig struct {
	DevicePath   string
	MountPoint   string
	MapperName   string
	MapperDevice string
	Filesystem   string
}

// NewDiskConfig creates a DiskConfig, deriving the mapper device node from
// the mapper name.
func NewDiskConfig(devicePath, mountPoint, mapperName, filesystem string) DiskConfig {
	return DiskConfig{
		DevicePath:   devicePath,
		MountPoint:   mountPoint,
		MapperName:   mapperName,
		MapperDevice: blockdev.MapperDevicePath(mapperName),
		Filesystem:   filesystem,
	}
}

// LUKS format parameters. 512-bit keys with SHA-512 header hashing.
const (
	luksKeySize = "512"
	luksHash    = "sha512"
)

// wipeSuffix names the temporary plain mapping used to overwrite the device
// before formatting.
const wipeSuffix = "_prep"

// OpenPlainContainer opens a plain (non-LUKS) dm-crypt mapping over the raw
// device, keyed from /dev/urandom, and returns the mapping name. The mapping
// exists only so the device can be overwritten with data indistinguishable
// from the encrypted payload that follows; callers should verify the mapping
// is visible as a block device before writing to it.
func OpenPlainContainer(runner executil.Runner, cfg DiskConfig) (string, error) {
	name := cfg.MapperName + wipeSuffix
	err := runner.Run(executil.New("cryptsetup", "open", "--type", "plain", "-d", "/dev/urandom", cfg.DevicePath, name))
	if err != nil {
		return "", fmt.Errorf("could not open plain container over %s: %w", cfg.DevicePath, err)
	}
	return name, nil
}

// WipeContainer overwrites the plain mapping with zeroes. Through the random
// key of the plain mapping the device ends up filled with pseudorandom data.
// The write is bounded by the mapping's size: an unbounded dd would run off
// the end of the block device and exit non-zero with ENOSPC even though the
// overwrite succeeded.
func WipeContainer(runner executil.Runner, containerName string) error {
	device := blockdev.MapperDevicePath(containerName)

	out, err := runner.Output(executil.New("blockdev", "--getsize64", device))
	if err != nil {
		return fmt.Errorf("could not determine size of container %s: %w", containerName, err)
	}
	size, err := strconv.ParseUint(out, 10, 64)
	if err != nil {
		return fmt.Errorf("blockdev returned malformed size %q for %s: %w", out, device, err)
	}

	cmd := executil.New("dd", "if=/dev/zero", "of="+device,
		"bs=1M", "count="+strconv.FormatUint(size, 10), "iflag=count_bytes", "status=none")
	if err := runner.Run(cmd); err != nil {
		return fmt.Errorf("could not overwrite container %s: %w", containerName, err)
	}
	return nil
}

// ClosePlainContainer removes the temporary plain mapping.
func ClosePlainContainer(runner executil.Runner, containerName string) error {
	if err := runner.Run(executil.New("cryptsetup", "close", containerName)); err != nil {
		return fmt.Errorf("could not close plain container %s: %w", containerName, err)
	}
	return nil
}

// FormatLUKS initializes a LUKS2 header on the raw device, destroying any
// prior contents. -q suppresses the interactive confirmation; the caller owns
// that decision.
func FormatLUKS(runner executil.Runner, cfg DiskConfig, passphrase string) error {
	cmd := executil.New("cryptsetup", "luksFormat", "--type", "luks2",
		"-q", "-s", luksKeySize, "-h", luksHash, cfg.DevicePath).WithStdin(passphrase)
	if err := runner.Run(cmd); err != nil {
		return fmt.Errorf("could not format %s: %w", cfg.DevicePath, err)
	}
	return nil
}

// OpenLUKS unlocks the LUKS device under the configured mapper name.
func OpenLUKS(runner executil.Runner, cfg DiskConfig, passphrase string) error {
	cmd := executil.New("cryptsetup", "open", cfg.DevicePath, cfg.MapperName).WithStdin(passphrase)
	if err := runner.Run(cmd); err != nil {
		return fmt.Errorf("could not open LUKS device %s: %w", cfg.DevicePath, err)
	}
	return nil
}

// MakeFilesystem formats the mapped device with the configured filesystem.
func MakeFilesystem(runner executil.Runner, cfg DiskConfig) error {
	if err := runner.Run(executil.New("mkfs", "-t", cfg.Filesystem, cfg.MapperDevice)); err != nil {
		return fmt.Errorf("could not create %s filesystem on %s: %w", cfg.Filesystem, cfg.MapperDevice, err)
	}
	return nil
}

// Mount mounts the mapped device at the configured mount point, creating the
// mount point if needed.
func Mount(runner executil.Runner, cfg DiskConfig) error {
	os.MkdirAll(cfg.MountPoint, 0755)
	if err := runner.Run(executil.New("mount", cfg.MapperDevice, cfg.MountPoint)); err != nil {
		return fmt.Errorf("could not mount %s at %s: %w", cfg.MapperDevice, cfg.MountPoint, err)
	}
	return nil
}

// IsLUKS checks whether the raw device already carries a LUKS header.
func IsLUKS(runner executil.Runner, cfg DiskConfig) bool {
	return runner.Run(executil.New("cryptsetup", "isLuks", cfg.DevicePath)) == nil
}

// IsMounted checks whether the configured mount point is currently mounted.
func IsMounted(cfg DiskConfig) bool {
	data, err := os.ReadFile("/proc/mounts")
	if err != nil {
		return false
	}
	return strings.Contains(string(data), " "+cfg.MountPoint+" ")
}

// CleanupMount unmounts the mount point and closes the mapping. Best effort,
// used when aborting a partially completed setup by hand.
func CleanupMount(runner executil.Runner, cfg DiskConfig) {
	runner.Run(executil.New("umount", cfg.MountPoint))
	runner.Run(executil.New("cryptsetup", "close", cfg.MapperName))
}
