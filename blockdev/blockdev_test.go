package blockdev

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rgeorgiev583/storage-provisioning-tools/executil"
)

func TestValidatePath(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{"sata partition", "/dev/sdb1", false},
		{"nvme namespace", "/dev/nvme0n1p2", false},
		{"virtio disk", "/dev/vda", false},
		{"md array", "/dev/md0", false},
		{"by-id symlink", "/dev/disk/by-id/scsi-0ATA_disk", false},
		{"empty", "", true},
		{"bare /dev/", "/dev/", true},
		{"relative", "sdb1", true},
		{"outside /dev", "/tmp/sdb1", true},
		{"embedded whitespace", "/dev/sd b1", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePath(tt.path)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestMapperName(t *testing.T) {
	assert.Equal(t, "sdb1", MapperName("/dev/sdb1"))
	assert.Equal(t, "nvme0n1p2", MapperName("/dev/nvme0n1p2"))
	assert.Equal(t, "scsi-0ATA_disk", MapperName("/dev/disk/by-id/scsi-0ATA_disk"))
}

func TestMapperDevicePath(t *testing.T) {
	assert.Equal(t, "/dev/mapper/cryptdisk", MapperDevicePath("cryptdisk"))
}

func TestUUID(t *testing.T) {
	runner := &executil.RecordingRunner{Outputs: map[string]string{
		"blkid": "F4C6A2F3-2538-4B61-B4E1-9B9D1F1F8A88",
	}}

	id, err := UUID(runner, "/dev/sdb1")
	require.NoError(t, err)
	// uuid.Parse normalizes to lowercase.
	assert.Equal(t, "f4c6a2f3-2538-4b61-b4e1-9b9d1f1f8a88", id)

	require.Len(t, runner.Commands, 1)
	assert.Equal(t, []string{"-s", "UUID", "-o", "value", "/dev/sdb1"}, runner.Commands[0].Args)
}

func TestUUIDMalformed(t *testing.T) {
	runner := &executil.RecordingRunner{Outputs: map[string]string{
		"blkid": "not-a-uuid",
	}}

	_, err := UUID(runner, "/dev/sdb1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "malformed UUID")
}
