// tv-backlight - drive ambient TV backlighting from screen captures
//  Copyright (C) 2020, The Cacophony Project
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program. If not, see <http://www.gnu.org/licenses/>.

package main

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	arg "github.com/alexflint/go-arg"

	"github.com/TheCacophonyProject/tv-backlight/backlightctl"
	"github.com/TheCacophonyProject/tv-backlight/config"
	"github.com/TheCacophonyProject/tv-backlight/protocol"
	"github.com/TheCacophonyProject/tv-backlight/raster"
	"github.com/TheCacophonyProject/tv-backlight/transport"
)

var version = "<not set>"

type Args struct {
	ConfigFile string `arg:"-c,--config" help:"path to configuration file"`
	Colour     string `arg:"--colour" help:"idle colour as RRGGBB hex (default from config)"`
	Daemon     bool   `arg:"--daemon" help:"ask the running tv-backlight daemon to switch"`
	Status     bool   `arg:"--status" help:"show the running daemon's input and black bars"`
	Input      int    `arg:"positional" help:"input number to switch to"`
}

// daemonStatus queries a running daemon.
type daemonStatus struct {
	currentInput func() (uint8, error)
	blackBars    func() (top, bottom int32, err error)
}

var runningDaemon = daemonStatus{
	currentInput: backlightctl.CurrentInput,
	blackBars:    backlightctl.BlackBars,
}

func (Args) Version() string {
	return version
}

func procArgs() Args {
	var args Args
	args.ConfigFile = config.DefaultConfigFile
	args.Input = -1
	arg.MustParse(&args)
	return args
}

func main() {
	log.SetFlags(0)
	err := runMain()
	if err != nil {
		log.Fatal(err)
	}
}

func runMain() error {
	args := procArgs()

	if args.Status {
		return printStatus(os.Stdout, runningDaemon)
	}
	input, err := checkInput(args.Input)
	if err != nil {
		return err
	}

	if args.Daemon {
		idle := uint32(0)
		if args.Colour != "" {
			c, err := parseColour(args.Colour)
			if err != nil {
				return err
			}
			idle = uint32(c)
		}
		return backlightctl.SwitchInput(input, idle)
	}

	conf, err := config.ParseConfigFile(args.ConfigFile)
	if err != nil {
		return err
	}
	idle := raster.Color(conf.IdleColour)
	if args.Colour != "" {
		if idle, err = parseColour(args.Colour); err != nil {
			return err
		}
	}
	log.Printf("switching %s to input %d (idle %s)", conf.Address(), input, idle)
	return transport.SendOnce(conf.Address(), protocol.EncodeSwitchInput(input, idle))
}

func checkInput(n int) (uint8, error) {
	if n < 0 {
		return 0, errors.New("input number is required")
	}
	if n > 255 {
		return 0, errors.New("input should be in range 0 - 255")
	}
	return uint8(n), nil
}

func printStatus(w io.Writer, d daemonStatus) error {
	input, err := d.currentInput()
	if err != nil {
		return err
	}
	top, bottom, err := d.blackBars()
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "input: %d\n", input)
	fmt.Fprintf(w, "picture rows: %d - %d\n", top, bottom)
	return nil
}

// parseColour reads RRGGBB, optionally prefixed with 0x or #.
func parseColour(s string) (raster.Color, error) {
	hex := strings.TrimPrefix(strings.TrimPrefix(strings.ToLower(s), "0x"), "#")
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil || v > 0xffffff {
		return 0, fmt.Errorf("invalid colour %q, expected RRGGBB", s)
	}
	return raster.Color(v), nil
}
