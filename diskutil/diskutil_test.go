package diskutil

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rgeorgiev583/storage-provisioning-tools/executil"
)

func TestNewDiskConfig(t *testing.T) {
	cfg := NewDiskConfig("/dev/sdb1", "/secure", "sdb1", "xfs")
	assert.Equal(t, "/dev/mapper/sdb1", cfg.MapperDevice)
	assert.Equal(t, "xfs", cfg.Filesystem)
}

func TestFormatLUKS(t *testing.T) {
	runner := &executil.RecordingRunner{}
	cfg := NewDiskConfig("/dev/sdb1", "/mnt", "sdb1", "ext4")

	require.NoError(t, FormatLUKS(runner, cfg, "passphrase"))

	require.Len(t, runner.Commands, 1)
	cmd := runner.Commands[0]
	assert.Equal(t, "cryptsetup", cmd.Program)
	assert.Equal(t, []string{"luksFormat", "--type", "luks2", "-q", "-s", "512", "-h", "sha512", "/dev/sdb1"}, cmd.Args)
	assert.Equal(t, "passphrase", cmd.Stdin)
}

func TestOpenLUKSPassphraseOnStdin(t *testing.T) {
	runner := &executil.RecordingRunner{}
	cfg := NewDiskConfig("/dev/sdb1", "/mnt", "cryptdisk", "ext4")

	require.NoError(t, OpenLUKS(runner, cfg, "passphrase"))

	require.Len(t, runner.Commands, 1)
	assert.Equal(t, []string{"open", "/dev/sdb1", "cryptdisk"}, runner.Commands[0].Args)
	assert.Equal(t, "passphrase", runner.Commands[0].Stdin)
	assert.NotContains(t, runner.Commands[0].String(), "passphrase")
}

func TestMakeFilesystem(t *testing.T) {
	runner := &executil.RecordingRunner{}
	cfg := NewDiskConfig("/dev/sdc1", "/secure", "sdc1", "xfs")

	require.NoError(t, MakeFilesystem(runner, cfg))

	require.Len(t, runner.Commands, 1)
	assert.Equal(t, "mkfs", runner.Commands[0].Program)
	assert.Equal(t, []string{"-t", "xfs", "/dev/mapper/sdc1"}, runner.Commands[0].Args)
}

func TestMakeFilesystemFailure(t *testing.T) {
	failure := errors.New("exit status 1")
	runner := &executil.RecordingRunner{FailOn: map[string]error{"mkfs": failure}}
	cfg := NewDiskConfig("/dev/sdc1", "/secure", "sdc1", "xfs")

	err := MakeFilesystem(runner, cfg)
	require.ErrorIs(t, err, failure)
}

func TestWipeContainerBoundedBySize(t *testing.T) {
	runner := &executil.RecordingRunner{Outputs: map[string]string{"blockdev": "4194304"}}

	require.NoError(t, WipeContainer(runner, "sdb1_prep"))

	require.Len(t, runner.Commands, 2)
	assert.Equal(t, []string{"--getsize64", "/dev/mapper/sdb1_prep"}, runner.Commands[0].Args)
	assert.Equal(t, "dd", runner.Commands[1].Program)
	assert.Equal(t, []string{"if=/dev/zero", "of=/dev/mapper/sdb1_prep",
		"bs=1M", "count=4194304", "iflag=count_bytes", "status=none"}, runner.Commands[1].Args)
}

func TestWipeContainerSizeQueryFailure(t *testing.T) {
	failure := errors.New("exit status 1")
	runner := &executil.RecordingRunner{FailOn: map[string]error{"blockdev": failure}}

	err := WipeContainer(runner, "sdb1_prep")
	require.ErrorIs(t, err, failure)
	assert.Equal(t, []string{"blockdev"}, runner.Programs())
}

func TestWipeContainerMalformedSize(t *testing.T) {
	runner := &executil.RecordingRunner{Outputs: map[string]string{"blockdev": "not-a-size"}}

	err := WipeContainer(runner, "sdb1_prep")
	require.Error(t, err)
	assert.NotContains(t, runner.Programs(), "dd")
}

func TestWipeContainerWriteFailure(t *testing.T) {
	failure := errors.New("exit status 1")
	runner := &executil.RecordingRunner{
		Outputs: map[string]string{"blockdev": "4194304"},
		FailOn:  map[string]error{"dd": failure},
	}

	err := WipeContainer(runner, "sdb1_prep")
	require.ErrorIs(t, err, failure)
}

func TestIsLUKS(t *testing.T) {
	cfg := NewDiskConfig("/dev/sdb1", "/mnt", "sdb1", "ext4")

	runner := &executil.RecordingRunner{}
	assert.True(t, IsLUKS(runner, cfg))
	require.Len(t, runner.Commands, 1)
	assert.Equal(t, []string{"isLuks", "/dev/sdb1"}, runner.Commands[0].Args)

	failing := &executil.RecordingRunner{FailOn: map[string]error{"cryptsetup isLuks": errors.New("exit status 1")}}
	assert.False(t, IsLUKS(failing, cfg))
}

func TestOpenPlainContainer(t *testing.T) {
	runner := &executil.RecordingRunner{}
	cfg := NewDiskConfig("/dev/sdb1", "/mnt", "sdb1", "ext4")

	name, err := OpenPlainContainer(runner, cfg)
	require.NoError(t, err)
	assert.Equal(t, "sdb1_prep", name)

	require.Len(t, runner.Commands, 1)
	assert.Equal(t, []string{"open", "--type", "plain", "-d", "/dev/urandom", "/dev/sdb1", "sdb1_prep"}, runner.Commands[0].Args)
}

func TestCleanupMount(t *testing.T) {
	runner := &executil.RecordingRunner{}
	cfg := NewDiskConfig("/dev/sdb1", "/mnt", "sdb1", "ext4")

	CleanupMount(runner, cfg)

	assert.Equal(t, []string{"umount", "cryptsetup close"}, runner.Keys())
}
