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

package config

import (
	"errors"
	"fmt"
	"io/ioutil"
	"math"
	"time"

	yaml "gopkg.in/yaml.v2"
)

const (
	DefaultConfigFile = "/etc/tv-backlight.yaml"

	SourceScreen = "screen"
	SourceSocket = "socket"
)

type Config struct {
	Host                    string
	Port                    int
	Input                   uint8
	SizeX                   int
	SizeY                   int
	AverageFrames           int
	BlackBarSearchHeight    int
	BlackBarCandidateLength int
	ColourDivisor           int
	IdleColour              uint32
	FPS                     float64
	RetryDelay              time.Duration
	StatusPin               string
	Capture                 CaptureConfig
}

type CaptureConfig struct {
	Source  string `yaml:"source"`
	Display int    `yaml:"display"`
	Socket  string `yaml:"socket"`
}

// ArduinoPixels returns the number of LEDs around the screen.
func (conf *Config) ArduinoPixels() int {
	return 2*conf.SizeX + 2*conf.SizeY - 4
}

// Address returns the host:port the LED controller listens on.
func (conf *Config) Address() string {
	return fmt.Sprintf("%s:%d", conf.Host, conf.Port)
}

func (conf *Config) Validate() error {
	if conf.Host == "" {
		return errors.New("host is not set")
	}
	if conf.Port < 1 || conf.Port > math.MaxUint16 {
		return errors.New("port should be in range 1 - 65535")
	}
	if conf.SizeX < 2 || conf.SizeY < 2 {
		return errors.New("size_x and size_y should be at least 2")
	}
	if conf.SizeX%2 != 0 {
		return fmt.Errorf("size_x should be even (was %d)", conf.SizeX)
	}
	if conf.ArduinoPixels() > math.MaxUint16 {
		return errors.New("size_x and size_y give too many pixels for one frame")
	}
	if conf.AverageFrames < 1 {
		return errors.New("average_frames should be at least 1")
	}
	if conf.BlackBarSearchHeight < 1 {
		return errors.New("black_bar_search_height should be at least 1")
	}
	if conf.BlackBarCandidateLength < 1 {
		return errors.New("black_bar_candidate_length should be at least 1")
	}
	if conf.ColourDivisor < 1 {
		return errors.New("colour_divisor should be at least 1")
	}
	if conf.IdleColour > 0xffffff {
		return errors.New("idle_colour should be in range 0 - 0xffffff")
	}
	if conf.FPS < 0 {
		return errors.New("fps should not be negative")
	}
	if conf.RetryDelay < 0 {
		return errors.New("retry_delay should not be negative")
	}
	return conf.Capture.Validate()
}

func (conf *CaptureConfig) Validate() error {
	switch conf.Source {
	case SourceScreen:
		if conf.Display < 0 {
			return errors.New("capture display should not be negative")
		}
	case SourceSocket:
		if conf.Socket == "" {
			return errors.New("capture socket is not set")
		}
	default:
		return fmt.Errorf("unknown capture source %q", conf.Source)
	}
	return nil
}

// rawConfig uses pointers for the settings which have no default so
// their absence can be told apart from a zero value.
type rawConfig struct {
	Host                    string        `yaml:"host"`
	Port                    *int          `yaml:"port"`
	Input                   *int          `yaml:"input"`
	SizeX                   int           `yaml:"size_x"`
	SizeY                   int           `yaml:"size_y"`
	AverageFrames           int           `yaml:"average_frames"`
	BlackBarSearchHeight    int           `yaml:"black_bar_search_height"`
	BlackBarCandidateLength int           `yaml:"black_bar_candidate_length"`
	ColourDivisor           int           `yaml:"colour_divisor"`
	IdleColour              uint32        `yaml:"idle_colour"`
	FPS                     float64       `yaml:"fps"`
	RetryDelay              time.Duration `yaml:"retry_delay"`
	StatusPin               string        `yaml:"status_pin"`
	Capture                 CaptureConfig `yaml:"capture"`
}

var defaultConfig = rawConfig{
	SizeX:                   46,
	SizeY:                   26,
	AverageFrames:           16,
	BlackBarSearchHeight:    8,
	BlackBarCandidateLength: 1024,
	ColourDivisor:           2,
	FPS:                     50,
	RetryDelay:              2 * time.Second,
	Capture: CaptureConfig{
		Source:  SourceScreen,
		Display: 0,
		Socket:  "/var/run/backlight-frames",
	},
}

func ParseConfigFile(filename string) (*Config, error) {
	buf, err := ioutil.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	return ParseConfig(buf)
}

func ParseConfig(buf []byte) (*Config, error) {
	raw := defaultConfig
	if err := yaml.Unmarshal(buf, &raw); err != nil {
		return nil, err
	}

	if raw.Host == "" {
		return nil, errors.New("host is not set")
	}
	if raw.Port == nil {
		return nil, errors.New("port is not set")
	}
	if raw.Input == nil {
		return nil, errors.New("input is not set")
	}
	if *raw.Input < 0 || *raw.Input > math.MaxUint8 {
		return nil, errors.New("input should be in range 0 - 255")
	}

	conf := &Config{
		Host:                    raw.Host,
		Port:                    *raw.Port,
		Input:                   uint8(*raw.Input),
		SizeX:                   raw.SizeX,
		SizeY:                   raw.SizeY,
		AverageFrames:           raw.AverageFrames,
		BlackBarSearchHeight:    raw.BlackBarSearchHeight,
		BlackBarCandidateLength: raw.BlackBarCandidateLength,
		ColourDivisor:           raw.ColourDivisor,
		IdleColour:              raw.IdleColour,
		FPS:                     raw.FPS,
		RetryDelay:              raw.RetryDelay,
		StatusPin:               raw.StatusPin,
		Capture:                 raw.Capture,
	}

	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return conf, nil
}
