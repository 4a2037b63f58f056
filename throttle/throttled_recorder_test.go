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

package throttle

import (
	"testing"
	"time"

	"github.com/juju/ratelimit"
	"github.com/stretchr/testify/assert"

	"github.com/TheCacophonyProject/rgbd-codec/frame"
	"github.com/TheCacophonyProject/rgbd-codec/pose"
	"github.com/TheCacophonyProject/rgbd-codec/recorder"
	"github.com/TheCacophonyProject/rgbd-codec/testframes"
)

type TestCamera struct {
}

func (cam *TestCamera) ResX() int {
	return 32
}
func (cam *TestCamera) ResY() int {
	return 24
}
func (cam *TestCamera) FPS() int {
	return testFPS
}

const (
	testFPS       = 9
	throttleAfter = 30 * time.Second

	minRecordingSecs   = 10
	minRecordingFrames = minRecordingSecs * testFPS

	minRefill = 20 * time.Second
)

var throttleFrames = int(throttleAfter.Seconds() * testFPS)

func newTestConfig() *ThrottlerConfig {
	return &ThrottlerConfig{
		ApplyThrottling: true,
		BucketSize:      throttleAfter,
		MinRefill:       minRefill,
		MinSecs:         minRecordingSecs,
	}
}

func newTestThrottledRecorder() (*writeRecorder, *throttleListener, *ThrottledRecorder, *testClock) {
	clock := new(testClock)
	recorder := new(writeRecorder)
	listener := new(throttleListener)
	return recorder, listener, NewThrottledRecorderWithClock(recorder, newTestConfig(), listener, clock, new(TestCamera)), clock
}

type writeRecorder struct {
	recorder.NoWriteRecorder
	writes int
}

func (rec *writeRecorder) WriteFrame(d *frame.Depth) error {
	rec.writes++
	return nil
}

func (rec *writeRecorder) Reset() {
	rec.writes = 0
}

type throttleListener struct {
	events int
}

func (tc *throttleListener) WhenThrottled() {
	tc.events++
}

func recordFrames(recorder *ThrottledRecorder, frames int) {
	recorder.StartRecording(testframes.SamplePose())
	writeFrames(recorder, frames)
	recorder.StopRecording()
}

func writeFrames(recorder *ThrottledRecorder, frames int) {
	d := testframes.ConstantDepth(32, 24, 5000)
	for i := 0; i < frames; i++ {
		recorder.WriteFrame(d)
	}
}

func TestOnlyWritesUntilBucketIsFull(t *testing.T) {
	recorder, listener, throtRecorder, _ := newTestThrottledRecorder()

	recordFrames(throtRecorder, throttleFrames+2)
	assert.Equal(t, throttleFrames, recorder.writes)
	assert.Equal(t, 1, listener.events)
}

func TestCanRecordTwiceWithoutThrottling(t *testing.T) {
	recorder, _, throtRecorder, _ := newTestThrottledRecorder()

	recordFrames(throtRecorder, 10)
	assert.Equal(t, 10, recorder.writes)

	recordFrames(throtRecorder, 10)
	assert.Equal(t, 20, recorder.writes)
}

func TestWillNotStartRecordingIfLessThanMinFramesToFillBucket(t *testing.T) {
	recorder, _, throtRecorder, _ := newTestThrottledRecorder()

	recordFrames(throtRecorder, throttleFrames-5)

	// only a few frames in the bucket - not enough to start another recording
	recorder.Reset()
	recordFrames(throtRecorder, 10)
	assert.Equal(t, 0, recorder.writes)
}

func TestNotRecordingFillsBucket(t *testing.T) {
	recorder, _, throtRecorder, clock := newTestThrottledRecorder()

	recordFrames(throtRecorder, throttleFrames) // empty bucket
	clock.Sleep(minRefill)                      // allow bucket to fill

	// Observe that it only filled up to the minimum size
	recorder.Reset()
	recordFrames(throtRecorder, throttleFrames)
	assert.Equal(t, minRecordingFrames, recorder.writes)
}

func TestNotifiesWhenThrottling(t *testing.T) {
	_, listener, throtRecorder, _ := newTestThrottledRecorder()

	recordFrames(throtRecorder, throttleFrames-2)
	assert.Equal(t, 0, listener.events)

	recordFrames(throtRecorder, 3)
	assert.Equal(t, 1, listener.events)
}

func TestNotifiesEvenWhenRecordingDoesntStart(t *testing.T) {
	_, listener, throtRecorder, clock := newTestThrottledRecorder()

	recordFrames(throtRecorder, throttleFrames+1)
	assert.Equal(t, 1, listener.events)

	clock.Sleep(minRefill / time.Duration(2))

	recordFrames(throtRecorder, throttleFrames)
	assert.Equal(t, 2, listener.events)
}

func TestIntraRecordingRestart(t *testing.T) {
	recorder, listener, throtRecorder, clock := newTestThrottledRecorder()

	recorder.StartRecording(pose.Pose{})         // start a fresh recording
	writeFrames(throtRecorder, throttleFrames+1) // Trigger throttling.
	assert.Equal(t, 1, listener.events)

	// Wait a while (recording still active) - not long enough for minimum refill.
	recorder.Reset()
	clock.Sleep(minRefill / 2)
	writeFrames(throtRecorder, 10)
	assert.Equal(t, 0, recorder.writes)

	// Wait a while long (recording still active) - should refill bucket enough.
	recorder.Reset()
	clock.Sleep(minRefill / 2)
	writeFrames(throtRecorder, 10)
	assert.Equal(t, 10, recorder.writes)

	// Throttling has only happened once (at the top).
	assert.Equal(t, 1, listener.events)
}

func TestUsingDifferentRefillRate(t *testing.T) {
	clock := new(testClock)

	config := newTestConfig()
	config.MinRefill = 60 * time.Second
	recorder := new(writeRecorder)
	throtRecorder := NewThrottledRecorderWithClock(recorder, config, nil, clock, new(TestCamera))

	recordFrames(throtRecorder, throttleFrames) //empty bucket
	clock.Sleep(config.MinRefill)               // allow to fill

	// Observe that it only filled up to the minimum size
	recorder.Reset()
	recordFrames(throtRecorder, throttleFrames)
	assert.Equal(t, minRecordingFrames, recorder.writes)
}

func TestCountsThrottles(t *testing.T) {
	recorder, listener, throtRecorder, _ := newTestThrottledRecorder()

	recordFrames(throtRecorder, throttleFrames+1)
	assert.Equal(t, 1, throtRecorder.Throttled())

	// The bucket is empty, so this recording never starts.
	recorder.Reset()
	recordFrames(throtRecorder, 10)
	assert.Equal(t, 0, recorder.writes)
	assert.Equal(t, 2, throtRecorder.Throttled())
	assert.Equal(t, listener.events, throtRecorder.Throttled())
}

func TestValidate(t *testing.T) {
	conf := DefaultThrottlerConfig()
	assert.NoError(t, conf.Validate())

	conf.MinSecs = 700
	assert.EqualError(t, conf.Validate(), "min-secs should be no longer than bucket-size")

	conf.ApplyThrottling = false
	assert.NoError(t, conf.Validate())

	conf = DefaultThrottlerConfig()
	conf.MinRefill = 0
	assert.EqualError(t, conf.Validate(), "bucket-size and min-refill must be positive")
}

var _ ratelimit.Clock = new(realClock)
var _ ratelimit.Clock = new(testClock)

// testClock implements a fake ratelimit.Clock for testing.
type testClock struct {
	now time.Time
}

// Now implements Clock.Now by calling time.Now.
func (c *testClock) Now() time.Time {
	return c.now
}

// Now implements Clock.Sleep by calling time.Sleep.
func (c *testClock) Sleep(d time.Duration) {
	c.now = c.now.Add(d)
}
