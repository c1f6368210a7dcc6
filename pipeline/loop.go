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
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/juju/ratelimit"

	"github.com/TheCacophonyProject/tv-backlight/capture"
	"github.com/TheCacophonyProject/tv-backlight/config"
	"github.com/TheCacophonyProject/tv-backlight/loglimiter"
	"github.com/TheCacophonyProject/tv-backlight/protocol"
	"github.com/TheCacophonyProject/tv-backlight/raster"
)

const (
	framesHz = 50 // approx

	frameLogIntervalFirstMin = 15 * framesHz
	frameLogInterval         = 60 * 5 * framesHz

	framesPerSdNotify = 5 * framesHz

	errorLogInterval = time.Minute
)

// Sender delivers one datagram to the LED controller.
type Sender interface {
	Send([]byte) error
}

// Stats is a snapshot of the loop's counters.
type Stats struct {
	Ticks           uint64
	Sent            uint64
	Dropped         uint64
	SendFailures    uint64
	CaptureFailures uint64
}

func NewLoop(conf *config.Config, source capture.Source, sender Sender) *Loop {
	return NewLoopWithClock(conf, source, sender, new(realClock))
}

// NewLoopWithClock is NewLoop with the clock used for fps pacing
// supplied by the caller.
func NewLoopWithClock(conf *config.Config, source capture.Source, sender Sender, clock ratelimit.Clock) *Loop {
	l := &Loop{
		source:     source,
		sender:     sender,
		processor:  NewProcessor(conf),
		mailbox:    newMailbox(),
		pause:      sleepCtx,
		retryDelay: conf.RetryDelay,
		captureLog: loglimiter.New(errorLogInterval),
		sendLog:    loglimiter.New(errorLogInterval),
		bottom:     conf.SizeY - 1,
	}
	if conf.FPS > 0 {
		l.limiter = ratelimit.NewBucketWithRateAndClock(conf.FPS, 1, clock)
	}
	return l
}

// Loop captures, processes and sends one frame per tick. Processing
// happens on the goroutine calling Run; sending happens on a second
// goroutine so a slow or dead network never holds up the averages.
type Loop struct {
	sent            uint64
	sendFailures    uint64
	captureFailures uint64

	source     capture.Source
	sender     Sender
	processor  *Processor
	mailbox    *mailbox
	limiter    *ratelimit.Bucket
	pause      func(context.Context, time.Duration)
	retryDelay time.Duration
	captureLog *loglimiter.LogLimiter
	sendLog    *loglimiter.LogLimiter

	// Watchdog, if set, is called every few seconds while frames are
	// being processed.
	Watchdog func()
	// SendStatus, if set, is called from the sender goroutine whenever
	// sending starts or stops working.
	SendStatus func(ok bool)

	mu     sync.Mutex
	top    int
	bottom int
}

// Run processes frames until ctx is cancelled or a frame can't be
// made to fit the LED strip. The source is closed before Run returns.
func (l *Loop) Run(ctx context.Context) error {
	var wg sync.WaitGroup
	defer wg.Wait()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	wg.Add(2)
	go func() {
		defer wg.Done()
		<-ctx.Done()
		l.mailbox.close()
		l.source.Close()
	}()
	go func() {
		defer wg.Done()
		l.sendLoop(ctx)
	}()

	log.Print("reading frames")
	var captureTime, processTime time.Duration
	notifyCount := 0
	for ctx.Err() == nil {
		if l.limiter != nil {
			if d := l.limiter.Take(1); d > 0 {
				l.pause(ctx, d)
				if ctx.Err() != nil {
					break
				}
			}
		}

		start := time.Now()
		src, err := l.source.Capture()
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			atomic.AddUint64(&l.captureFailures, 1)
			l.captureLog.Print((&CaptureError{err}).Error())
			sleepCtx(ctx, l.retryDelay)
			continue
		}
		captured := time.Now()

		frame, err := l.processor.Process(src)
		if err != nil {
			return err
		}
		l.setBlackBars(frame.Top, frame.Bottom)
		l.mailbox.putPixels(frame.Datagram)
		captureTime += captured.Sub(start)
		processTime += time.Since(captured)

		if notifyCount++; notifyCount >= framesPerSdNotify {
			if l.Watchdog != nil {
				l.Watchdog()
			}
			notifyCount = 0
		}

		ticks := l.processor.Ticks()
		if ticks%frameLogIntervalFirstMin == 0 && ticks <= 60*framesHz || ticks%frameLogInterval == 0 {
			logTimings(ticks, captureTime, processTime, frame)
		}
	}
	return nil
}

func logTimings(ticks uint64, captureTime, processTime time.Duration, frame *Frame) {
	n := time.Duration(ticks)
	perFrame := (captureTime + processTime) / n
	fps := 0.0
	if perFrame > 0 {
		fps = float64(time.Second) / float64(perFrame)
	}
	log.Printf("%d frames seen (capture %v, process %v per frame, %.1f fps max), black bars %d-%d",
		ticks, captureTime/n, processTime/n, fps, frame.Top, frame.Bottom)
}

func (l *Loop) sendLoop(ctx context.Context) {
	ok := true
	for {
		buf, more := l.mailbox.take()
		if !more {
			return
		}
		if err := l.sender.Send(buf); err != nil {
			atomic.AddUint64(&l.sendFailures, 1)
			l.sendLog.Print((&TransportError{err}).Error())
			if ok {
				ok = false
				l.reportSendStatus(false)
			}
			sleepCtx(ctx, l.retryDelay)
			continue
		}
		atomic.AddUint64(&l.sent, 1)
		if !ok {
			ok = true
			log.Print("sending frames again")
			l.reportSendStatus(true)
		}
	}
}

func (l *Loop) reportSendStatus(ok bool) {
	if l.SendStatus != nil {
		l.SendStatus(ok)
	}
}

// SwitchInput tags subsequent pixel frames with input and queues an
// input switch frame ahead of them. It may be called from any
// goroutine.
func (l *Loop) SwitchInput(input uint8, idle raster.Color) {
	l.processor.SetInput(input)
	l.mailbox.putControl(protocol.EncodeSwitchInput(input, idle))
}

func (l *Loop) Input() uint8 {
	return l.processor.Input()
}

// BlackBars returns the rows bounding the picture in the most recently
// processed frame.
func (l *Loop) BlackBars() (top, bottom int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.top, l.bottom
}

func (l *Loop) setBlackBars(top, bottom int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.top = top
	l.bottom = bottom
}

func (l *Loop) Stats() Stats {
	return Stats{
		Ticks:           l.processor.Ticks(),
		Sent:            atomic.LoadUint64(&l.sent),
		Dropped:         l.mailbox.dropped(),
		SendFailures:    atomic.LoadUint64(&l.sendFailures),
		CaptureFailures: atomic.LoadUint64(&l.captureFailures),
	}
}

func sleepCtx(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}

// realClock implements ratelimit.Clock in terms of standard time functions.
type realClock struct{}

// Now implements Clock.Now by calling time.Now.
func (realClock) Now() time.Time {
	return time.Now()
}

// Sleep implements Clock.Sleep by calling time.Sleep.
func (realClock) Sleep(d time.Duration) {
	time.Sleep(d)
}
