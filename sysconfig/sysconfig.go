// Package sysconfig edits the system configuration files consulted at boot:
// /etc/crypttab, /etc/fstab, /etc/mkinitcpio.conf and /etc/default/grub.
//
// All edits are idempotent. Table entries are appended only when no
// equivalent line is already present, and the mkinitcpio/grub edits rewrite a
// single parsed assignment rather than pattern-substituting raw text, so
// re-running a provisioning flow never duplicates configuration.
package sysconfig

import (
	"fmt"
	"os"
	"strings"
)

// CrypttabEntry is one line of the encrypted-device table.
type CrypttabEntry struct {
	MapperName string
	Device     string // typically UUID=<uuid>
	KeyFile    string // "none" prompts for the passphrase at boot
	Options    string
}

// Line renders the entry in crypttab(5) format.
func (e CrypttabEntry) Line() string {
	keyFile := e.KeyFile
	if keyFile == "" {
		keyFile = "none"
	}
	options := e.Options
	if options == "" {
		options = "luks"
	}
	return fmt.Sprintf("%s\t%s\t%s\t%s", e.MapperName, e.Device, keyFile, options)
}

// FstabEntry is one line of the filesystem table.
type FstabEntry struct {
	Device     string
	MountPoint string
	Filesystem string
	Options    string
	Dump       int
	Pass       int
}

// Line renders the entry in fstab(5) format.
func (e FstabEntry) Line() string {
	options := e.Options
	if options == "" {
		options = "defaults"
	}
	return fmt.Sprintf("%s\t%s\t%s\t%s\t%d\t%d", e.Device, e.MountPoint, e.Filesystem, options, e.Dump, e.Pass)
}

// AppendLine appends line to the file at path unless an equivalent line (same
// fields after whitespace normalization) is already present. It reports
// whether the file was modified.
func AppendLine(path, line string) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return false, fmt.Errorf("could not read %s: %w", path, err)
	}

	normalized := strings.Join(strings.Fields(line), " ")
	for _, existing := range strings.Split(string(data), "\n") {
		if strings.Join(strings.Fields(existing), " ") == normalized {
			return false, nil
		}
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return false, fmt.Errorf("could not open %s for appending: %w", path, err)
	}
	defer f.Close()

	prefix := ""
	if len(data) > 0 && !strings.HasSuffix(string(data), "\n") {
		prefix = "\n"
	}
	if _, err := f.WriteString(prefix + line + "\n"); err != nil {
		return false, fmt.Errorf("could not append to %s: %w", path, err)
	}
	return true, nil
}
