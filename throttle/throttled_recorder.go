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

// Package throttle limits how much of a long replay or capture session
// gets recorded.
package throttle

import (
	"log"
	"time"

	"github.com/juju/ratelimit"

	"github.com/TheCacophonyProject/go-cptv/cptvframe"

	"github.com/TheCacophonyProject/rgbd-codec/frame"
	"github.com/TheCacophonyProject/rgbd-codec/pose"
	"github.com/TheCacophonyProject/rgbd-codec/recorder"
)

type ThrottledEventListener interface {
	WhenThrottled()
}

type nullListener struct{}

func (nullListener) WhenThrottled() {}

// ThrottledRecorder passes depth frames to another recorder while a token
// bucket of frames lasts. The bucket holds bucket-size worth of frames and
// refills min-secs worth every min-refill. Once it runs dry the recording
// is stopped, and a new one only starts when min-secs worth of frames are
// available again.
type ThrottledRecorder struct {
	recorder  recorder.Recorder
	listener  ThrottledEventListener
	bucket    *ratelimit.Bucket
	minFrames int64

	first     pose.Pose
	recording bool
	written   int
	skipped   int
	throttles int
}

func NewThrottledRecorder(
	base recorder.Recorder,
	conf *ThrottlerConfig,
	listener ThrottledEventListener,
	camera cptvframe.CameraSpec,
) *ThrottledRecorder {
	return NewThrottledRecorderWithClock(base, conf, listener, realClock{}, camera)
}

// NewThrottledRecorderWithClock is NewThrottledRecorder with the bucket
// refilling by clock.
func NewThrottledRecorderWithClock(
	base recorder.Recorder,
	conf *ThrottlerConfig,
	listener ThrottledEventListener,
	clock ratelimit.Clock,
	camera cptvframe.CameraSpec,
) *ThrottledRecorder {
	capacity := framesIn(conf.BucketSize, camera.FPS())
	minFrames := framesIn(time.Duration(conf.MinSecs)*time.Second, camera.FPS())
	if minFrames > capacity {
		log.Printf("min-secs %d is longer than bucket-size %v, nothing will be recorded", conf.MinSecs, conf.BucketSize)
	}
	if listener == nil {
		listener = nullListener{}
	}
	rate := float64(minFrames) / conf.MinRefill.Seconds()
	return &ThrottledRecorder{
		recorder:  base,
		listener:  listener,
		bucket:    ratelimit.NewBucketWithRateAndClock(rate, capacity, clock),
		minFrames: minFrames,
	}
}

func framesIn(d time.Duration, fps int) int64 {
	return int64(d.Seconds()) * int64(fps)
}

func (tr *ThrottledRecorder) CheckCanRecord() error {
	return tr.recorder.CheckCanRecord()
}

// StartRecording starts a recording if the bucket allows it. first is
// kept for recordings started later, after the bucket has refilled.
func (tr *ThrottledRecorder) StartRecording(first pose.Pose) error {
	tr.first = first
	tr.written, tr.skipped = 0, 0
	if err := tr.tryStart(); err != nil {
		return err
	}
	if !tr.recording {
		log.Print("recording not started due to throttling")
		tr.throttled()
	}
	return nil
}

func (tr *ThrottledRecorder) StopRecording() error {
	if tr.skipped > 0 {
		log.Printf("%d of %d frames throttled", tr.skipped, tr.written+tr.skipped)
	}
	tr.written, tr.skipped = 0, 0
	return tr.stop()
}

// WriteFrame writes d if a recording is running or can be started.
func (tr *ThrottledRecorder) WriteFrame(d *frame.Depth) error {
	if !tr.recording {
		if err := tr.tryStart(); err != nil {
			return err
		}
	}
	if !tr.recording {
		tr.skipped++
		return nil
	}
	if tr.bucket.TakeAvailable(1) == 0 {
		log.Print("recording throttled")
		tr.skipped++
		tr.throttled()
		return tr.stop()
	}
	tr.written++
	return tr.recorder.WriteFrame(d)
}

// Throttled returns how many times recording has been refused or cut
// short.
func (tr *ThrottledRecorder) Throttled() int {
	return tr.throttles
}

func (tr *ThrottledRecorder) throttled() {
	tr.throttles++
	tr.listener.WhenThrottled()
}

func (tr *ThrottledRecorder) tryStart() error {
	if tr.bucket.Available() < tr.minFrames {
		return nil
	}
	if err := tr.recorder.StartRecording(tr.first); err != nil {
		return err
	}
	tr.recording = true
	return nil
}

func (tr *ThrottledRecorder) stop() error {
	if !tr.recording {
		return nil
	}
	tr.recording = false
	return tr.recorder.StopRecording()
}

// realClock implements ratelimit.Clock with the time package.
type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now()
}

func (realClock) Sleep(d time.Duration) {
	time.Sleep(d)
}
