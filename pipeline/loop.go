// rgbd-codec - carry depth maps and GPS poses through 8-bit video
//  Copyright (C) 2025, The Cacophony Project
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
	"fmt"
	"time"

	"github.com/juju/ratelimit"
	"golang.org/x/sync/errgroup"

	"github.com/TheCacophonyProject/rgbd-codec/depth"
	"github.com/TheCacophonyProject/rgbd-codec/frame"
	"github.com/TheCacophonyProject/rgbd-codec/pose"
)

// Source produces captures. testframes.FrameMaker is one.
type Source interface {
	Next() (*frame.RGB, *frame.Depth, pose.Pose)
}

// Sink receives each decoded capture. The buffers are reused for the
// next frame.
type Sink func(rgb *frame.RGB, d *frame.Depth, p pose.Pose, ok bool) error

// Loop pulls captures from a source at a fixed rate, encodes them, passes
// them through a channel and decodes them again.
type Loop struct {
	enc     *depth.Encoder
	source  Source
	fps     int
	channel Channel
	sink    Sink
	clock   ratelimit.Clock
	logf    func(string)
}

func NewLoop(enc *depth.Encoder, source Source, fps int) *Loop {
	return &Loop{
		enc:     enc,
		source:  source,
		fps:     fps,
		channel: Lossless,
		sink:    func(*frame.RGB, *frame.Depth, pose.Pose, bool) error { return nil },
		clock:   new(realClock),
		logf:    func(string) {},
	}
}

func (l *Loop) SetChannel(c Channel) {
	l.channel = c
}

func (l *Loop) SetSink(s Sink) {
	l.sink = s
}

// SetClock replaces the clock pacing the source.
func (l *Loop) SetClock(c ratelimit.Clock) {
	l.clock = c
}

// SetLogFunc sets where per frame diagnostics go.
func (l *Loop) SetLogFunc(f func(string)) {
	l.logf = f
}

// Run moves frames captures through the loop, or until ctx is done or the
// sink fails.
func (l *Loop) Run(ctx context.Context, frames int) (Stats, error) {
	if l.fps <= 0 {
		return Stats{}, fmt.Errorf("fps must be positive, got %d", l.fps)
	}
	if err := l.enc.Init(); err != nil {
		return Stats{}, err
	}

	slot := NewSlot()
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer slot.Close()
		return l.produce(ctx, slot, frames)
	})

	var stats Stats
	g.Go(func() error {
		defer slot.Close()
		return l.consume(slot, &stats)
	})
	err := g.Wait()
	stats.Dropped = slot.Drops()
	return stats, err
}

func (l *Loop) produce(ctx context.Context, slot *Slot, frames int) error {
	bucket := ratelimit.NewBucketWithClock(time.Second/time.Duration(l.fps), 1, l.clock)
	for seq := 0; seq < frames; seq++ {
		bucket.Wait(1)
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		rgb, d, p := l.source.Next()
		slot.Put(&Capture{Seq: seq, RGB: rgb, Depth: d, Pose: p})
	}
	return nil
}

func (l *Loop) consume(slot *Slot, stats *Stats) error {
	conf := l.enc.Config()
	minCode, maxCode := uint16(conf.MinCode()), uint16(conf.MaxCode())
	v := new(frame.Video)
	rgb := new(frame.RGB)
	d := new(frame.Depth)
	for {
		c, ok := slot.Take()
		if !ok {
			return nil
		}
		l.enc.EncodeInto(v, c.RGB, c.Depth, c.Pose)
		l.channel(v)
		p, poseOK := l.enc.DecodeInto(rgb, d, v)

		stats.Frames++
		if c.Pose.Defined() {
			stats.PosesSent++
			if poseOK && c.Pose.Equal(p) {
				stats.PosesRecovered++
			}
		}
		if !poseOK {
			l.logf(fmt.Sprintf("no pose in frame %d", c.Seq))
		}
		stats.addDepth(c.Depth, d, minCode, maxCode)
		if err := l.sink(rgb, d, p, poseOK); err != nil {
			return err
		}
	}
}

// realClock implements ratelimit.Clock in terms of standard time functions.
type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now()
}

func (realClock) Sleep(d time.Duration) {
	time.Sleep(d)
}
