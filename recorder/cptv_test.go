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

package recorder

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	cptv "github.com/TheCacophonyProject/go-cptv"
	"github.com/TheCacophonyProject/go-cptv/cptvframe"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TheCacophonyProject/rgbd-codec/depth"
	"github.com/TheCacophonyProject/rgbd-codec/frame"
	"github.com/TheCacophonyProject/rgbd-codec/headers"
	"github.com/TheCacophonyProject/rgbd-codec/pose"
	"github.com/TheCacophonyProject/rgbd-codec/testframes"
)

func testStream() *headers.StreamHeader {
	return &headers.StreamHeader{
		Scheme:      depth.Zhou,
		PixelFormat: frame.YUV420P,
		Width:       32,
		Height:      24,
		Fps:         5,
		DepthUnits:  0.0001,
		MinDepth:    0.15,
		MaxDepth:    6,
		ColorRange:  frame.RangeFull,
	}
}

func newTestRecorder(t *testing.T, maxFrames int) (*DepthRecorder, string) {
	dir := t.TempDir()
	conf := DefaultConfig()
	conf.OutputDir = dir
	conf.MaxFrames = maxFrames
	conf.MinDiskSpace = 0
	dr := NewDepthRecorder(&conf, testStream())
	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	dr.nowFunc = func() time.Time {
		now = now.Add(200 * time.Millisecond)
		return now
	}
	return dr, dir
}

func TestRecordingIsRenamedOnStop(t *testing.T) {
	dr, dir := newTestRecorder(t, 0)
	require.NoError(t, dr.CheckCanRecord())

	fm := testframes.NewFrameMaker(32, 24, 5)
	_, _, p := fm.Next()
	require.NoError(t, dr.StartRecording(p))
	temps, _ := filepath.Glob(filepath.Join(dir, "*.cptv.temp"))
	assert.Len(t, temps, 1)

	for i := 0; i < 3; i++ {
		_, d, _ := fm.Next()
		require.NoError(t, dr.WriteFrame(d))
	}
	require.NoError(t, dr.StopRecording())
	assert.Equal(t, 3, dr.Frames())

	files, _ := filepath.Glob(filepath.Join(dir, "*.cptv"))
	require.Len(t, files, 1)
	assert.Equal(t, "20250102.030405.200.cptv", filepath.Base(files[0]))
	temps, _ = filepath.Glob(filepath.Join(dir, "*.cptv.temp"))
	assert.Empty(t, temps)
}

func TestRecordingReadsBack(t *testing.T) {
	dr, dir := newTestRecorder(t, 0)
	d := testframes.PiecewiseConstant(32, 24, 4, 0, 1500, 9000, 60000)
	require.NoError(t, dr.StartRecording(pose.Pose{}))
	require.NoError(t, dr.WriteFrame(d))
	require.NoError(t, dr.StopRecording())

	files, _ := filepath.Glob(filepath.Join(dir, "*.cptv"))
	require.Len(t, files, 1)
	f, err := os.Open(files[0])
	require.NoError(t, err)
	defer f.Close()

	r, err := cptv.NewReader(f)
	require.NoError(t, err)
	got := cptvframe.NewFrame(testStream())
	require.NoError(t, r.ReadFrame(got))
	for y, row := range got.Pix {
		for x, v := range row {
			require.Equal(t, d.At(x, y), v)
		}
	}
}

func TestMaxFrames(t *testing.T) {
	dr, _ := newTestRecorder(t, 2)
	require.NoError(t, dr.StartRecording(pose.Pose{}))
	d := testframes.ConstantDepth(32, 24, 5000)
	for i := 0; i < 5; i++ {
		require.NoError(t, dr.WriteFrame(d))
	}
	assert.Equal(t, 2, dr.Frames())
	require.NoError(t, dr.StopRecording())
}

func TestWriteFrameChecks(t *testing.T) {
	dr, _ := newTestRecorder(t, 0)
	assert.EqualError(t, dr.WriteFrame(frame.NewDepth(32, 24)), "not recording")

	require.NoError(t, dr.StartRecording(pose.Pose{}))
	assert.EqualError(t, dr.StartRecording(pose.Pose{}), "already recording")
	assert.EqualError(t, dr.WriteFrame(frame.NewDepth(16, 24)), "depth image is 16x24, recording is 32x24")
	dr.Abort()
}

func TestAbortAndDeleteTempFiles(t *testing.T) {
	dr, dir := newTestRecorder(t, 0)
	require.NoError(t, dr.StartRecording(pose.Pose{}))
	dr.Abort()
	files, _ := filepath.Glob(filepath.Join(dir, "*"))
	assert.Empty(t, files)
	assert.NoError(t, dr.StopRecording())

	stale := filepath.Join(dir, "20240101.000000.000.cptv.temp")
	require.NoError(t, os.WriteFile(stale, []byte("x"), 0644))
	require.NoError(t, DeleteTempFiles(dir))
	_, err := os.Stat(stale)
	assert.True(t, os.IsNotExist(err))
}

func TestNoWriteRecorder(t *testing.T) {
	var r Recorder = new(NoWriteRecorder)
	assert.NoError(t, r.StartRecording(pose.Pose{}))
	assert.NoError(t, r.WriteFrame(nil))
	assert.NoError(t, r.StopRecording())
}
