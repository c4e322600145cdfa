package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/rgeorgiev583/storage-provisioning-tools/cmd/flags"
	"github.com/rgeorgiev583/storage-provisioning-tools/executil"
	"github.com/rgeorgiev583/storage-provisioning-tools/provision"
)

var provisionFlags = []cli.Flag{
	&cli.StringFlag{
		Name:    "mapper-name",
		Aliases: []string{"n"},
		Usage:   "device-mapper name for the unlocked device. Defaults to the last segment of the device path",
		EnvVars: []string{"MAPPER_NAME"},
	},
	&cli.StringFlag{
		Name:    "fs-type",
		Aliases: []string{"t"},
		Value:   provision.DefaultFilesystem,
		Usage:   "filesystem type to create on the unlocked device",
		EnvVars: []string{"FS_TYPE"},
	},
	&cli.StringFlag{
		Name:    "mountpoint",
		Aliases: []string{"m"},
		Value:   provision.DefaultMountPoint,
		Usage:   "path to mount the unlocked device on",
		EnvVars: []string{"MOUNT_POINT"},
	},
	&cli.BoolFlag{
		Name:    "skip-bootloader",
		Aliases: []string{"B"},
		Usage:   "do not touch the bootloader kernel command line",
	},
	&cli.BoolFlag{
		Name:    "skip-config",
		Aliases: []string{"C"},
		Usage:   "do not touch any boot-time configuration (initramfs, bootloader, crypttab, fstab); supersedes -B",
	},
	&cli.StringFlag{
		Name:    "key-file",
		Usage:   "read the LUKS passphrase from this file instead of prompting",
		EnvVars: []string{"KEY_FILE"},
	},
}

const usage string = `Set up a LUKS-encrypted volume on a block device
Overwrites the device with pseudorandom data, formats it as LUKS2, unlocks it,
creates a filesystem, mounts it, and records the mapping in the boot
configuration. DESTROYS all prior data on the device.`

func main() {
	app := &cli.App{
		Name:      "provision",
		Usage:     usage,
		ArgsUsage: "<device>",
		Flags:     append(provisionFlags, flags.LogFlags...),
		Action:    run,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func run(cCtx *cli.Context) error {
	logger := flags.SetupLogger(cCtx, "provision")

	device := cCtx.Args().First()
	if device == "" {
		return cli.Exit("missing required argument: <device>", provision.ExitMissingDevice)
	}

	req, err := provision.NewRequest(
		device,
		cCtx.String("mapper-name"),
		cCtx.String("fs-type"),
		cCtx.String("mountpoint"),
		cCtx.Bool("skip-bootloader"),
		cCtx.Bool("skip-config"),
	)
	if err != nil {
		return cli.Exit(err.Error(), provision.ExitCode(err))
	}

	prov := provision.NewProvisioner(executil.ExecRunner{}, logger)
	if keyFile := cCtx.String("key-file"); keyFile != "" {
		key, err := os.ReadFile(keyFile)
		if err != nil {
			return cli.Exit(fmt.Sprintf("could not read key file: %v", err), provision.ExitKeyFile)
		}
		prov.Passphrase = strings.TrimRight(string(key), "\n")
	}

	// Overwriting a large device takes a long while; show progress while
	// that stage runs.
	wipeSpinner := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	wipeSpinner.Suffix = " overwriting " + req.Device + " with pseudorandom data..."
	prov.OnStage = func(stage provision.Stage) {
		switch stage {
		case provision.StageContainerPrep:
			if !color.NoColor {
				wipeSpinner.Start()
			}
		case provision.StageFormatting:
			wipeSpinner.Stop()
		}
	}

	// No rollback on interrupt; just report where the run stopped so the
	// operator knows what state the device was left in.
	interrupted := make(chan os.Signal, 1)
	signal.Notify(interrupted, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-interrupted
		wipeSpinner.Stop()
		logger.Error("Interrupted; device may be partially configured", "stage", prov.CurrentStage().String(), "device", req.Device)
		os.Exit(130)
	}()

	if err := prov.Run(req); err != nil {
		wipeSpinner.Stop()
		fmt.Fprintln(os.Stderr, color.RedString("provisioning failed: %v", err))
		return cli.Exit("", provision.ExitCode(err))
	}

	fmt.Println(color.GreenString("%s unlocked as %s and mounted at %s", req.Device, req.MapperName, req.MountPoint))
	return nil
}
