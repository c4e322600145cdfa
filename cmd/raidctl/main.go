package main

import (
	"fmt"
	"log"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/rgeorgiev583/storage-provisioning-tools/blockdev"
	"github.com/rgeorgiev583/storage-provisioning-tools/cmd/flags"
	"github.com/rgeorgiev583/storage-provisioning-tools/executil"
	"github.com/rgeorgiev583/storage-provisioning-tools/raid"
)

func main() {
	app := &cli.App{
		Name:  "raidctl",
		Usage: "Manage Linux md RAID arrays via mdadm",
		Flags: flags.LogFlags,
		Commands: []*cli.Command{
			{
				Name:      "create",
				Usage:     "create a new array from component devices",
				ArgsUsage: "<md-device> <component>...",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "level",
						Aliases: []string{"l"},
						Value:   "1",
						Usage:   "RAID level: 0, 1, 4, 5, 6, 10, linear",
					},
					&cli.IntFlag{
						Name:  "chunk",
						Usage: "chunk size in kibibytes",
					},
					&cli.IntFlag{
						Name:  "spares",
						Usage: "number of spare devices",
					},
					&cli.BoolFlag{
						Name:  "force",
						Usage: "honour component devices exactly as given",
					},
				},
				Action: createAction,
			},
			{
				Name:      "assemble",
				Usage:     "assemble an existing array",
				ArgsUsage: "<md-device> [component]...",
				Action:    assembleAction,
			},
			{
				Name:      "stop",
				Usage:     "stop a running array",
				ArgsUsage: "<md-device>",
				Action:    stopAction,
			},
			{
				Name:      "detail",
				Usage:     "print details of an array",
				ArgsUsage: "<md-device>",
				Action:    detailAction,
			},
			{
				Name:  "save",
				Usage: "record assembled arrays in the mdadm configuration file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "config",
						Value: raid.DefaultConfigPath,
						Usage: "mdadm configuration file to append to",
					},
				},
				Action: saveAction,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// arrayDevice validates the positional md-device argument.
func arrayDevice(cCtx *cli.Context) (string, error) {
	device := cCtx.Args().First()
	if device == "" {
		return "", cli.Exit("missing required argument: <md-device>", 1)
	}
	if err := blockdev.ValidatePath(device); err != nil {
		return "", cli.Exit(err.Error(), 2)
	}
	return device, nil
}

func createAction(cCtx *cli.Context) error {
	logger := flags.SetupLogger(cCtx, "raidctl")

	device, err := arrayDevice(cCtx)
	if err != nil {
		return err
	}
	components := cCtx.Args().Tail()
	if len(components) == 0 {
		return cli.Exit("no component devices given", 1)
	}
	for _, component := range components {
		if err := blockdev.ValidatePath(component); err != nil {
			return cli.Exit(err.Error(), 2)
		}
	}

	builder := raid.Create(device).Level(cCtx.String("level"))
	if chunk := cCtx.Int("chunk"); chunk > 0 {
		builder = builder.ChunkSize(chunk)
	}
	if spares := cCtx.Int("spares"); spares > 0 {
		builder = builder.Spares(spares)
	}
	if cCtx.Bool("force") {
		builder = builder.Force()
	}

	logger.Info("Creating array", "device", device, "level", cCtx.String("level"), "components", len(components))
	if err := (executil.ExecRunner{}).Run(builder.Devices(components...).Command()); err != nil {
		return cli.Exit(fmt.Sprintf("could not create array: %v", err), 3)
	}
	return nil
}

func assembleAction(cCtx *cli.Context) error {
	logger := flags.SetupLogger(cCtx, "raidctl")

	device, err := arrayDevice(cCtx)
	if err != nil {
		return err
	}

	logger.Info("Assembling array", "device", device)
	cmd := raid.Assemble(device).Devices(cCtx.Args().Tail()...).Command()
	if err := (executil.ExecRunner{}).Run(cmd); err != nil {
		return cli.Exit(fmt.Sprintf("could not assemble array: %v", err), 3)
	}
	return nil
}

func stopAction(cCtx *cli.Context) error {
	logger := flags.SetupLogger(cCtx, "raidctl")

	device, err := arrayDevice(cCtx)
	if err != nil {
		return err
	}

	logger.Info("Stopping array", "device", device)
	if err := (executil.ExecRunner{}).Run(raid.Stop(device)); err != nil {
		return cli.Exit(fmt.Sprintf("could not stop array: %v", err), 3)
	}
	return nil
}

func detailAction(cCtx *cli.Context) error {
	device, err := arrayDevice(cCtx)
	if err != nil {
		return err
	}

	out, err := (executil.ExecRunner{}).Output(raid.Detail(device))
	if err != nil {
		return cli.Exit(fmt.Sprintf("could not query array: %v", err), 3)
	}
	fmt.Println(out)
	return nil
}

func saveAction(cCtx *cli.Context) error {
	logger := flags.SetupLogger(cCtx, "raidctl")

	configPath := cCtx.String("config")
	logger.Info("Recording assembled arrays", "config", configPath)
	if err := raid.SaveConfig(executil.ExecRunner{}, configPath); err != nil {
		return cli.Exit(err.Error(), 3)
	}
	return nil
}
