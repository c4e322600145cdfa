package ramdisk

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rgeorgiev583/storage-provisioning-tools/executil"
)

func TestNewRequest(t *testing.T) {
	req, err := NewRequest("/mnt/ram", "", "", "")
	require.NoError(t, err)
	assert.Equal(t, DefaultSize, req.Size)
	assert.Equal(t, DefaultDeviceFilesystem, req.Filesystem)

	_, err = NewRequest("", "", "", "")
	assert.Error(t, err)

	_, err = NewRequest("/mnt/ram", "", "ram0", "")
	assert.Error(t, err, "relative device path must be rejected")
}

func TestProvisionTmpfs(t *testing.T) {
	runner := &executil.RecordingRunner{}
	mountPoint := filepath.Join(t.TempDir(), "ram")
	req, err := NewRequest(mountPoint, "2G", "", "")
	require.NoError(t, err)

	require.NoError(t, Provision(runner, req))

	require.Len(t, runner.Commands, 1)
	assert.Equal(t, "mount", runner.Commands[0].Program)
	assert.Equal(t, []string{"-t", "tmpfs", "-o", "size=2G", "tmpfs", mountPoint}, runner.Commands[0].Args)
}

func TestProvisionRamDevice(t *testing.T) {
	runner := &executil.RecordingRunner{}
	mountPoint := filepath.Join(t.TempDir(), "ram")
	req, err := NewRequest(mountPoint, "", "/dev/ram0", "ext4")
	require.NoError(t, err)

	require.NoError(t, Provision(runner, req))

	require.Len(t, runner.Commands, 2)
	assert.Equal(t, []string{"-t", "ext4", "/dev/ram0"}, runner.Commands[0].Args)
	assert.Equal(t, []string{"/dev/ram0", mountPoint}, runner.Commands[1].Args)
}

func TestProvisionMkfsFailureSkipsMount(t *testing.T) {
	failure := errors.New("exit status 1")
	runner := &executil.RecordingRunner{FailOn: map[string]error{"mkfs": failure}}
	req, err := NewRequest(filepath.Join(t.TempDir(), "ram"), "", "/dev/ram0", "")
	require.NoError(t, err)

	err = Provision(runner, req)
	require.ErrorIs(t, err, failure)
	assert.Equal(t, []string{"mkfs"}, runner.Programs())
}
