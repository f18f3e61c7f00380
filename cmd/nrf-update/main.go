// Command nrf-update flashes firmware onto an nRF5 device running the
// Secure DFU bootloader over a serial connection.
package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli"

	"github.com/nrf5dfu/nrf-update/dfu"
	"github.com/nrf5dfu/nrf-update/internal/dfulog"
)

func main() {
	app := cli.NewApp()
	app.Name = "nrf-update"
	app.Usage = "Update firmware on a nRF5 device (running in bootloader) via DFU over serial port"
	app.UsageText = "nrf-update -d <device> -i <init-packet> -f <firmware> [-l <1..4>]"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "d",
			Usage: "serial device",
		},
		cli.StringFlag{
			Name:  "i",
			Usage: "init-packet (*.dat) file",
		},
		cli.StringFlag{
			Name:  "f",
			Usage: "firmware (*.bin) file",
		},
		cli.IntFlag{
			Name:  "l",
			Value: 2,
			Usage: "1-4 (1 means quiet, 4 highest verbosity, default is 2)",
		},
	}
	app.Action = run

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "Update failed!")
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	device := c.String("d")
	initPacket := c.String("i")
	firmware := c.String("f")

	if device == "" {
		cli.ShowAppHelp(c)
		fmt.Fprintln(os.Stderr, "No device provided")
		return cli.NewExitError("", 1)
	}
	if initPacket == "" {
		cli.ShowAppHelp(c)
		fmt.Fprintln(os.Stderr, "No *.dat file provided")
		return cli.NewExitError("", 1)
	}
	if firmware == "" {
		cli.ShowAppHelp(c)
		fmt.Fprintln(os.Stderr, "No *.bin file provided")
		return cli.NewExitError("", 1)
	}

	level, err := logLevelFromFlag(c.Int("l"))
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}

	opts := dfu.Options{
		Device:         device,
		InitPacketPath: initPacket,
		FirmwarePath:   firmware,
		LogLevel:       level,
		LogOutput:      os.Stderr,
	}

	if err := dfu.Update(opts); err != nil {
		return err
	}
	return nil
}

// logLevelFromFlag maps the CLI's 1-indexed -l value (1=SILENT..4=DEBUG, as
// in the original tool's switch on log_input) onto the engine's 0-indexed
// dfulog.Level. Anything outside 1..4 falls back to the CLI's own default
// of ERROR, matching the original's "case 2, default:" behavior.
func logLevelFromFlag(v int) (dfulog.Level, error) {
	switch v {
	case 1:
		return dfulog.Silent, nil
	case 2:
		return dfulog.Error, nil
	case 3:
		return dfulog.Info, nil
	case 4:
		return dfulog.Debug, nil
	default:
		return dfulog.Error, nil
	}
}
