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
	"log"

	arg "github.com/alexflint/go-arg"

	"github.com/TheCacophonyProject/tv-backlight/config"
	"github.com/TheCacophonyProject/tv-backlight/protocol"
	"github.com/TheCacophonyProject/tv-backlight/raster"
	"github.com/TheCacophonyProject/tv-backlight/transport"
)

var version = "<not set>"

var patternColours = []raster.Color{
	raster.RGB(0xff, 0, 0),
	raster.RGB(0, 0xff, 0),
	raster.RGB(0, 0, 0xff),
}

type Args struct {
	ConfigFile string `arg:"-c,--config" help:"path to configuration file"`
	Input      int    `arg:"--input" help:"input number to use (default from config)"`
	Total      int    `arg:"--total" help:"number of pixels to send"`
}

func (Args) Version() string {
	return version
}

func procArgs() Args {
	var args Args
	args.ConfigFile = config.DefaultConfigFile
	args.Input = -1
	args.Total = 150
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
	conf, err := config.ParseConfigFile(args.ConfigFile)
	if err != nil {
		return err
	}
	input := conf.Input
	if args.Input >= 0 {
		if args.Input > 255 {
			return errors.New("input should be in range 0 - 255")
		}
		input = uint8(args.Input)
	}

	sender := transport.NewUDP(conf.Address())
	defer sender.Close()

	log.Printf("switching %s to input %d", conf.Address(), input)
	if err := sender.Send(protocol.EncodeSwitchInput(input, 0)); err != nil {
		return err
	}

	pixels := testPattern(args.Total)
	buf, err := protocol.EncodePixels(input, pixels)
	if err != nil {
		return err
	}
	log.Printf("sending %d pixel test pattern", len(pixels))
	return sender.Send(buf)
}

// testPattern returns whole runs of red, green and blue, at most total
// pixels long.
func testPattern(total int) []raster.Color {
	n := total / len(patternColours) * len(patternColours)
	if n < 0 {
		n = 0
	}
	pixels := make([]raster.Color, n)
	for i := range pixels {
		pixels[i] = patternColours[i%len(patternColours)]
	}
	return pixels
}
