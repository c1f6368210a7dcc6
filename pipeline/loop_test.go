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

package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/juju/ratelimit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TheCacophonyProject/tv-backlight/protocol"
	"github.com/TheCacophonyProject/tv-backlight/raster"
)

var _ ratelimit.Clock = new(realClock)
var _ ratelimit.Clock = new(testClock)

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time {
	return c.now
}

func (c *testClock) Sleep(d time.Duration) {
	c.now = c.now.Add(d)
}

// testSource hands out solid frames. It fails the first captureErrors
// captures and calls stop once frames have been produced.
type testSource struct {
	mu            sync.Mutex
	frame         raster.Accessor
	captureErrors int
	frames        int
	stopAfter     int
	stop          func()
	closed        bool
}

func (s *testSource) Capture() (raster.Accessor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.captureErrors > 0 {
		s.captureErrors--
		return nil, errors.New("no picture")
	}
	s.frames++
	if s.stop != nil && s.frames == s.stopAfter {
		s.stop()
	}
	return s.frame, nil
}

func (s *testSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *testSource) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// testSender records datagrams, failing the first failures sends (or
// every send if failures is negative).
type testSender struct {
	mu       sync.Mutex
	sent     [][]byte
	failures int
}

func (s *testSender) Send(buf []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failures != 0 {
		if s.failures > 0 {
			s.failures--
		}
		return errors.New("network is unreachable")
	}
	s.sent = append(s.sent, buf)
	return nil
}

func (s *testSender) datagrams() [][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]byte(nil), s.sent...)
}

func runLoop(t *testing.T, l *Loop) (cancel func(), wait func() error) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- l.Run(ctx)
	}()
	return cancel, func() error {
		select {
		case err := <-done:
			return err
		case <-time.After(5 * time.Second):
			t.Fatal("loop didn't stop")
			return nil
		}
	}
}

func TestLoopSendsFrames(t *testing.T) {
	source := &testSource{frame: solidFrame(raster.RGB(9, 8, 7))}
	sender := new(testSender)
	l := NewLoop(testConfig(), source, sender)

	cancel, wait := runLoop(t, l)
	assert.Eventually(t, func() bool { return len(sender.datagrams()) >= 3 }, 5*time.Second, time.Millisecond)
	cancel()
	require.NoError(t, wait())
	assert.True(t, source.isClosed())

	for _, buf := range sender.datagrams() {
		frame, err := protocol.DecodePixels(buf)
		require.NoError(t, err)
		assert.Equal(t, uint8(3), frame.Input)
		assert.Len(t, frame.Pixels, 10)
		assert.Equal(t, raster.RGB(9, 8, 7), frame.Pixels[0])
	}
	top, bottom := l.BlackBars()
	assert.Equal(t, 0, top)
	assert.Equal(t, 2, bottom)
}

func TestLoopKeepsTickingWhenSendsFail(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	source := &testSource{frame: solidFrame(raster.RGB(1, 1, 1)), stopAfter: 200, stop: cancel}
	sender := &testSender{failures: -1}
	l := NewLoop(testConfig(), source, sender)
	var statuses []bool
	l.SendStatus = func(ok bool) { statuses = append(statuses, ok) }

	require.NoError(t, l.Run(ctx))

	stats := l.Stats()
	assert.Equal(t, uint64(200), stats.Ticks)
	assert.True(t, stats.SendFailures > 0)
	assert.Equal(t, uint64(0), stats.Sent)
	assert.Empty(t, sender.datagrams())
	assert.Equal(t, []bool{false}, statuses)
}

func TestLoopRecoversAfterSendFailures(t *testing.T) {
	source := &testSource{frame: solidFrame(raster.RGB(1, 1, 1))}
	sender := &testSender{failures: 2}
	l := NewLoop(testConfig(), source, sender)
	statuses := make(chan bool, 2)
	l.SendStatus = func(ok bool) { statuses <- ok }

	cancel, wait := runLoop(t, l)
	assert.Eventually(t, func() bool { return len(sender.datagrams()) > 0 }, 5*time.Second, time.Millisecond)
	cancel()
	require.NoError(t, wait())

	assert.Equal(t, uint64(2), l.Stats().SendFailures)
	assert.False(t, <-statuses)
	assert.True(t, <-statuses)
}

func TestLoopSkipsFailedCaptures(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	source := &testSource{
		frame:         solidFrame(raster.RGB(1, 1, 1)),
		captureErrors: 3,
		stopAfter:     5,
		stop:          cancel,
	}
	l := NewLoop(testConfig(), source, new(testSender))

	require.NoError(t, l.Run(ctx))
	stats := l.Stats()
	assert.Equal(t, uint64(3), stats.CaptureFailures)
	assert.Equal(t, uint64(5), stats.Ticks)
}

func TestLoopStopsOnWrongFrameSize(t *testing.T) {
	source := &testSource{frame: raster.New(8, 3)}
	l := NewLoop(testConfig(), source, new(testSender))

	err := l.Run(context.Background())
	var consistencyErr *ConsistencyError
	assert.True(t, errors.As(err, &consistencyErr))
	assert.True(t, source.isClosed())
}

func TestLoopSwitchInput(t *testing.T) {
	source := &testSource{frame: solidFrame(raster.RGB(1, 1, 1))}
	sender := new(testSender)
	l := NewLoop(testConfig(), source, sender)
	l.SwitchInput(5, raster.RGB(0x11, 0x22, 0x33))
	assert.Equal(t, uint8(5), l.Input())

	cancel, wait := runLoop(t, l)
	assert.Eventually(t, func() bool { return len(sender.datagrams()) >= 2 }, 5*time.Second, time.Millisecond)
	cancel()
	require.NoError(t, wait())

	sent := sender.datagrams()
	switchFrame, err := protocol.DecodeSwitchInput(sent[0])
	require.NoError(t, err)
	assert.Equal(t, uint8(5), switchFrame.Input)
	assert.Equal(t, raster.RGB(0x11, 0x22, 0x33), switchFrame.Idle)

	pixelFrame, err := protocol.DecodePixels(sent[1])
	require.NoError(t, err)
	assert.Equal(t, uint8(5), pixelFrame.Input)
}

func TestLoopWatchdog(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	source := &testSource{frame: solidFrame(0), stopAfter: 2*framesPerSdNotify + 1, stop: cancel}
	l := NewLoop(testConfig(), source, new(testSender))
	notifies := 0
	l.Watchdog = func() { notifies++ }

	require.NoError(t, l.Run(ctx))
	assert.Equal(t, 2, notifies)
}

func TestLoopPacedByFPS(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	conf := testConfig()
	conf.FPS = 10
	clock := &testClock{now: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)}
	start := clock.now
	source := &testSource{frame: solidFrame(0), stopAfter: 21, stop: cancel}
	l := NewLoopWithClock(conf, source, new(testSender), clock)
	l.pause = func(_ context.Context, d time.Duration) { clock.Sleep(d) }

	require.NoError(t, l.Run(ctx))
	// The first tick is free, the other 20 wait 100ms each.
	assert.Equal(t, 2*time.Second, clock.now.Sub(start))
}

func TestLoopStopsPromptlyWhilePaced(t *testing.T) {
	conf := testConfig()
	conf.FPS = 0.01
	source := &testSource{frame: solidFrame(0)}
	l := NewLoop(conf, source, new(testSender))

	cancel, wait := runLoop(t, l)
	assert.Eventually(t, func() bool { return l.Stats().Ticks == 1 }, 5*time.Second, time.Millisecond)
	// The next tick is 100s away.
	start := time.Now()
	cancel()
	require.NoError(t, wait())
	assert.True(t, time.Since(start) < time.Second)
	assert.Equal(t, uint64(1), l.Stats().Ticks)
}
