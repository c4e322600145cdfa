// Package provision sets up a LUKS-encrypted volume on a block device and
// optionally records it in the system's boot configuration.
//
// The pipeline runs strictly in order:
//
//  1. Container preparation: a plain dm-crypt mapping keyed from /dev/urandom
//     is opened over the raw device, checked for visibility and overwritten,
//     leaving the disk filled with pseudorandom data.
//  2. LUKS formatting: a LUKS2 header is written to the raw device,
//     irreversibly destroying prior contents.
//  3. Unlock: the device is opened under the resolved device-mapper name.
//  4. Filesystem creation on the mapped device.
//  5. Mount at the resolved mount point.
//  6. Optional persistence: initramfs unlock hook, bootloader kernel
//     parameter and crypttab/fstab entries, each skippable via request flags.
//
// A failing stage aborts the remainder and surfaces as an *Error carrying the
// stage tag, which ExitCode maps to a distinct process exit code. Nothing is
// retried or rolled back: interrupting or failing a run can leave the device
// partially configured, the same accepted risk as running the underlying
// tools by hand. Re-running against an already-formatted device is
// destructive by design.
package provision
