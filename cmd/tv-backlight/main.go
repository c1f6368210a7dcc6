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
	"context"
	"fmt"
	"log"

	arg "github.com/alexflint/go-arg"
	"github.com/coreos/go-systemd/daemon"
	"github.com/maruel/interrupt"
	"periph.io/x/periph/host"

	"github.com/TheCacophonyProject/tv-backlight/capture"
	"github.com/TheCacophonyProject/tv-backlight/config"
	"github.com/TheCacophonyProject/tv-backlight/pipeline"
	"github.com/TheCacophonyProject/tv-backlight/statusled"
	"github.com/TheCacophonyProject/tv-backlight/transport"
)

var version = "<not set>"

type Args struct {
	ConfigFile string `arg:"-c,--config" help:"path to configuration file"`
	Timestamps bool   `arg:"-t,--timestamps" help:"include timestamps in log output"`
	NoDbus     bool   `arg:"--no-dbus" help:"don't register the D-Bus service"`
}

func (Args) Version() string {
	return version
}

func procArgs() Args {
	var args Args
	args.ConfigFile = config.DefaultConfigFile
	arg.MustParse(&args)
	return args
}

func main() {
	err := runMain()
	if err != nil {
		log.Fatal(err)
	}
}

func runMain() error {
	args := procArgs()
	if !args.Timestamps {
		log.SetFlags(0) // Removes default timestamp flag
	}

	log.Printf("running version: %s", version)
	conf, err := config.ParseConfigFile(args.ConfigFile)
	if err != nil {
		return err
	}
	logConfig(conf)
	log.Printf("Sending %d pixels each screen.", conf.ArduinoPixels())

	var led *statusled.LED
	if conf.StatusPin != "" {
		log.Print("host initialisation")
		if _, err := host.Init(); err != nil {
			return err
		}
		led, err = statusled.New(conf.StatusPin)
		if err != nil {
			return err
		}
	}

	source, err := openSource(conf)
	if err != nil {
		return err
	}

	sender := transport.NewUDP(conf.Address())
	defer sender.Close()

	loop := pipeline.NewLoop(conf, source, sender)
	loop.Watchdog = func() {
		daemon.SdNotify(false, "WATCHDOG=1")
	}
	loop.SendStatus = func(ok bool) {
		if err := led.Set(ok); err != nil {
			log.Print(err)
		}
	}
	if err := led.Set(true); err != nil {
		log.Print(err)
	}
	defer led.Set(false)

	if !args.NoDbus {
		log.Print("starting d-bus service")
		if err := startService(loop); err != nil {
			return err
		}
	}

	interrupt.HandleCtrlC()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		<-interrupt.Channel
		log.Print("stopping")
		cancel()
	}()

	daemon.SdNotify(false, "READY=1")
	err = loop.Run(ctx)
	stats := loop.Stats()
	log.Printf("processed %d frames: %d sent, %d dropped, %d send failures, %d capture failures",
		stats.Ticks, stats.Sent, stats.Dropped, stats.SendFailures, stats.CaptureFailures)
	return err
}

func openSource(conf *config.Config) (capture.Source, error) {
	switch conf.Capture.Source {
	case config.SourceScreen:
		screen, err := capture.NewScreen(conf.Capture.Display, conf.SizeX, conf.SizeY)
		if err != nil {
			return nil, err
		}
		bounds := screen.Bounds()
		log.Printf("capturing display %d (%dx%d)", conf.Capture.Display, bounds.Dx(), bounds.Dy())
		return screen, nil
	case config.SourceSocket:
		socket, err := capture.NewSocket(conf.Capture.Socket, conf.SizeX, conf.SizeY)
		if err != nil {
			return nil, err
		}
		log.Printf("listening for frames on %s", conf.Capture.Socket)
		return socket, nil
	}
	return nil, fmt.Errorf("unknown capture source %q", conf.Capture.Source)
}

func logConfig(conf *config.Config) {
	log.Printf("controller: %s input %d", conf.Address(), conf.Input)
	log.Printf("grid: %dx%d", conf.SizeX, conf.SizeY)
	log.Printf("average frames: %d", conf.AverageFrames)
	log.Printf("black bars: search height %d, candidate length %d",
		conf.BlackBarSearchHeight, conf.BlackBarCandidateLength)
	log.Printf("colour divisor: %d", conf.ColourDivisor)
	log.Printf("idle colour: %06x", conf.IdleColour)
	if conf.FPS > 0 {
		log.Printf("fps cap: %g", conf.FPS)
	}
	log.Printf("retry delay: %v", conf.RetryDelay)
	if conf.StatusPin != "" {
		log.Printf("status pin: %s", conf.StatusPin)
	}
	log.Printf("capture: %+v", conf.Capture)
}
