// tv-backlight - drive ambient TV backlighting from screen captures
// Copyright (C) 2020, The Cacophony Project
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

package loglimiter

import (
	"bytes"
	"log"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPrint(t *testing.T) {
	logs, reset := captureLogs()
	defer reset()

	limiter := New(time.Minute)
	limiter.Print("hello")
	limiter.Printf("send failed: %s", "network is unreachable")

	assert.Equal(t, "hello\nsend failed: network is unreachable\n", logs.String())
}

func TestRepeatsCountedAndReported(t *testing.T) {
	logs, reset := captureLogs()
	defer reset()

	now := time.Now()
	limiter := New(2 * time.Second)
	limiter.nowFunc = func() time.Time { return now }

	limiter.Print("send failed")
	for i := 0; i < 3; i++ {
		now = now.Add(500 * time.Millisecond)
		limiter.Print("send failed")
	}
	assert.Equal(t, "send failed\n", logs.String())
	assert.Equal(t, 3, limiter.Suppressed())

	// Past the window the line is let through with the count.
	now = now.Add(time.Second)
	limiter.Print("send failed")
	assert.Equal(t, "send failed\nsend failed (3 repeats suppressed)\n", logs.String())
	assert.Equal(t, 0, limiter.Suppressed())

	// The suffix doesn't stop the next repeat being recognised.
	limiter.Print("send failed")
	assert.Equal(t, "send failed\nsend failed (3 repeats suppressed)\n", logs.String())
}

func TestDifferentMessageFlushesCount(t *testing.T) {
	logs, reset := captureLogs()
	defer reset()

	limiter := New(time.Minute)
	limiter.Print("capture failed")
	limiter.Print("capture failed")
	limiter.Print("capture failed")
	limiter.Print("capture ok")

	assert.Equal(t,
		"capture failed\nprevious message repeated 2 more times\ncapture ok\n",
		logs.String())
}

func TestMixed(t *testing.T) {
	logs, reset := captureLogs()
	defer reset()

	// Mixing Print and Printf doesn't matter if the resulting string is the same.
	limiter := New(time.Minute)
	limiter.Print("hello")
	limiter.Printf("hello")
	assert.Equal(t, "hello\n", logs.String())
}

func captureLogs() (*bytes.Buffer, func()) {
	flags := log.Flags()
	log.SetFlags(0)

	logs := new(bytes.Buffer)
	log.SetOutput(logs)

	return logs, func() {
		log.SetOutput(os.Stderr)
		log.SetFlags(flags)
	}
}
