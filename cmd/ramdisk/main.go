package main

import (
	"fmt"
	"log"
	"os"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/rgeorgiev583/storage-provisioning-tools/cmd/flags"
	"github.com/rgeorgiev583/storage-provisioning-tools/executil"
	"github.com/rgeorgiev583/storage-provisioning-tools/ramdisk"
)

var ramdiskFlags = []cli.Flag{
	&cli.StringFlag{
		Name:    "size",
		Aliases: []string{"s"},
		Value:   ramdisk.DefaultSize,
		Usage:   "tmpfs size, e.g. 512M or 2G",
	},
	&cli.StringFlag{
		Name:    "device",
		Aliases: []string{"d"},
		Usage:   "ram block device (e.g. /dev/ram0) to format and mount instead of a tmpfs",
	},
	&cli.StringFlag{
		Name:    "fs-type",
		Aliases: []string{"t"},
		Value:   ramdisk.DefaultDeviceFilesystem,
		Usage:   "filesystem type to create on the ram device",
	},
}

func main() {
	app := &cli.App{
		Name:      "ramdisk",
		Usage:     "Mount a memory-backed filesystem",
		ArgsUsage: "<mountpoint>",
		Flags:     append(ramdiskFlags, flags.LogFlags...),
		Action:    run,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func run(cCtx *cli.Context) error {
	logger := flags.SetupLogger(cCtx, "ramdisk")

	mountPoint := cCtx.Args().First()
	if mountPoint == "" {
		return cli.Exit("missing required argument: <mountpoint>", 1)
	}

	req, err := ramdisk.NewRequest(mountPoint, cCtx.String("size"), cCtx.String("device"), cCtx.String("fs-type"))
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}

	logger.Info("Provisioning ramdisk", "mountpoint", req.MountPoint, "size", req.Size, "device", req.Device)
	if err := ramdisk.Provision(executil.ExecRunner{}, req); err != nil {
		return cli.Exit(err.Error(), 3)
	}

	fmt.Println(color.GreenString("ramdisk mounted at %s", req.MountPoint))
	return nil
}
