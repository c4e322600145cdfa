// Package raid manages Linux md (software RAID) arrays by orchestrating
// mdadm. Invocations are assembled with fluent builders so every option is a
// discrete argument, then executed through executil.
package raid

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rgeorgiev583/storage-provisioning-tools/executil"
	"github.com/rgeorgiev583/storage-provisioning-tools/sysconfig"
)

const mdadmProgram = "mdadm"

// DefaultConfigPath is the mdadm configuration consulted at boot to
// reassemble arrays.
const DefaultConfigPath = "/etc/mdadm.conf"

type builder struct {
	options   []string
	arguments []string
}

func (b *builder) Command() executil.Command {
	return executil.New(mdadmProgram, append(b.options, b.arguments...)...)
}

// CreateBuilder assembles an mdadm --create invocation.
type CreateBuilder struct {
	builder
}

// Create starts building the creation of a new array at the given md device.
func Create(device string) *CreateBuilder {
	c := new(CreateBuilder)
	c.options = append(c.options, "--create", device)
	return c
}

// Level sets the RAID level: 0, 1, 4, 5, 6, 10, linear and synonyms.
func (c *CreateBuilder) Level(level string) *CreateBuilder {
	c.options = append(c.options, "--level", level)
	return c
}

// ChunkSize sets the chunk size in kibibytes.
func (c *CreateBuilder) ChunkSize(kib int) *CreateBuilder {
	c.options = append(c.options, "--chunk", strconv.Itoa(kib))
	return c
}

// Spares sets the number of spare devices.
func (c *CreateBuilder) Spares(n int) *CreateBuilder {
	c.options = append(c.options, "--spare-devices", strconv.Itoa(n))
	return c
}

// Force honours the component devices exactly as given.
func (c *CreateBuilder) Force() *CreateBuilder {
	c.options = append(c.options, "--force")
	return c
}

// Devices sets the component devices; their count becomes --raid-devices.
func (c *CreateBuilder) Devices(devices ...string) *CreateBuilder {
	c.options = append(c.options, "--raid-devices", strconv.Itoa(len(devices)))
	c.arguments = append(c.arguments, devices...)
	return c
}

// AssembleBuilder assembles an mdadm --assemble invocation.
type AssembleBuilder struct {
	builder
}

// Assemble starts building the assembly of an existing array.
func Assemble(device string) *AssembleBuilder {
	a := new(AssembleBuilder)
	a.options = append(a.options, "--assemble", device)
	return a
}

// Devices names the component devices explicitly. Without it mdadm scans its
// configuration file.
func (a *AssembleBuilder) Devices(devices ...string) *AssembleBuilder {
	a.arguments = append(a.arguments, devices...)
	return a
}

// Stop builds the command stopping a running array.
func Stop(device string) executil.Command {
	return executil.New(mdadmProgram, "--stop", device)
}

// Detail builds the command printing details of an array.
func Detail(device string) executil.Command {
	return executil.New(mdadmProgram, "--detail", device)
}

// detailScan builds the command emitting config-file lines for all arrays.
func detailScan() executil.Command {
	return executil.New(mdadmProgram, "--detail", "--scan")
}

// SaveConfig records the currently assembled arrays in the mdadm
// configuration file so they are reassembled at boot. Existing entries are
// not duplicated.
func SaveConfig(runner executil.Runner, configPath string) error {
	out, err := runner.Output(detailScan())
	if err != nil {
		return fmt.Errorf("could not scan arrays: %w", err)
	}
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if _, err := sysconfig.AppendLine(configPath, line); err != nil {
			return fmt.Errorf("could not record array: %w", err)
		}
	}
	return nil
}
