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
	"fmt"
	"log"
	"sync"
	"time"
)

// New returns a new LogLimiter with the configured minimum log interval.
func New(interval time.Duration) *LogLimiter {
	return &LogLimiter{
		interval: interval,
		nowFunc:  time.Now,
	}
}

// LogLimiter suppresses a log message if the same message was logged
// within the interval. How many lines were swallowed is reported the
// next time something gets through, so an error that repeats every
// tick shows up as one line per interval with a count.
type LogLimiter struct {
	mu            sync.Mutex
	interval      time.Duration
	nowFunc       func() time.Time
	previousEntry string
	previousTime  time.Time
	suppressed    int
}

func (limiter *LogLimiter) Printf(format string, v ...interface{}) {
	limiter.Print(fmt.Sprintf(format, v...))
}

func (limiter *LogLimiter) Print(s string) {
	limiter.mu.Lock()
	defer limiter.mu.Unlock()

	now := limiter.nowFunc()
	if s == limiter.previousEntry && now.Sub(limiter.previousTime) < limiter.interval {
		limiter.suppressed++
		return
	}

	line := s
	if limiter.suppressed > 0 {
		if s == limiter.previousEntry {
			line = fmt.Sprintf("%s (%d repeats suppressed)", s, limiter.suppressed)
		} else {
			log.Printf("previous message repeated %d more times", limiter.suppressed)
		}
	}
	log.Print(line)

	limiter.previousTime = now
	limiter.previousEntry = s
	limiter.suppressed = 0
}

// Suppressed returns how many lines have been swallowed since the last
// one was logged.
func (limiter *LogLimiter) Suppressed() int {
	limiter.mu.Lock()
	defer limiter.mu.Unlock()
	return limiter.suppressed
}
