package sysconfig

import (
	"fmt"
	"os"
	"slices"
	"strings"
)

// AddInitramfsHook inserts hook into the HOOKS=(...) array of a
// mkinitcpio.conf file. The hook is placed immediately before the
// "filesystems" hook when present (unlock must happen before the root
// filesystem is mounted), otherwise appended at the end. Returns whether the
// file was modified; the caller is responsible for regenerating the image.
func AddInitramfsHook(path, hook string) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return false, fmt.Errorf("could not read %s: %w", path, err)
	}

	lines := strings.Split(string(data), "\n")
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, "HOOKS=(") || !strings.HasSuffix(trimmed, ")") {
			continue
		}

		hooks := strings.Fields(strings.TrimSuffix(strings.TrimPrefix(trimmed, "HOOKS=("), ")"))
		if slices.Contains(hooks, hook) {
			return false, nil
		}

		if idx := slices.Index(hooks, "filesystems"); idx >= 0 {
			hooks = slices.Insert(hooks, idx, hook)
		} else {
			hooks = append(hooks, hook)
		}

		lines[i] = "HOOKS=(" + strings.Join(hooks, " ") + ")"
		if err := writeFilePreserveMode(path, strings.Join(lines, "\n")); err != nil {
			return false, err
		}
		return true, nil
	}

	return false, fmt.Errorf("no HOOKS=(...) line found in %s", path)
}

// AddKernelParam appends param to the GRUB_CMDLINE_LINUX assignment of a
// grub default file, unless already present. Returns whether the file was
// modified; the caller is responsible for running grub-mkconfig afterwards.
func AddKernelParam(path, param string) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return false, fmt.Errorf("could not read %s: %w", path, err)
	}

	lines := strings.Split(string(data), "\n")
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, "GRUB_CMDLINE_LINUX=\"") || !strings.HasSuffix(trimmed, "\"") {
			continue
		}

		cmdline := strings.TrimSuffix(strings.TrimPrefix(trimmed, "GRUB_CMDLINE_LINUX=\""), "\"")
		if slices.Contains(strings.Fields(cmdline), param) {
			return false, nil
		}

		if cmdline != "" {
			cmdline += " "
		}
		lines[i] = "GRUB_CMDLINE_LINUX=\"" + cmdline + param + "\""
		if err := writeFilePreserveMode(path, strings.Join(lines, "\n")); err != nil {
			return false, err
		}
		return true, nil
	}

	return false, fmt.Errorf("no GRUB_CMDLINE_LINUX assignment found in %s", path)
}

func writeFilePreserveMode(path, content string) error {
	mode := os.FileMode(0644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}
	if err := os.WriteFile(path, []byte(content), mode); err != nil {
		return fmt.Errorf("could not write %s: %w", path, err)
	}
	return nil
}
