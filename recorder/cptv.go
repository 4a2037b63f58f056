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
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"syscall"
	"time"

	cptv "github.com/TheCacophonyProject/go-cptv"
	"github.com/TheCacophonyProject/go-cptv/cptvframe"

	"github.com/TheCacophonyProject/rgbd-codec/frame"
	"github.com/TheCacophonyProject/rgbd-codec/headers"
	"github.com/TheCacophonyProject/rgbd-codec/pose"
)

const cptvTempExt = "cptv.temp"

var _ Recorder = (*DepthRecorder)(nil)

// DepthRecorder writes decoded depth images to CPTV files, one per
// recording. Invalid depth is written as 0.
type DepthRecorder struct {
	outputDir    string
	deviceName   string
	minDiskSpace uint64
	maxFrames    int
	stream       *headers.StreamHeader

	writer  *cptv.FileWriter
	cframe  *cptvframe.Frame
	started time.Time
	frames  int
	nowFunc func() time.Time
}

func NewDepthRecorder(conf *RecorderConfig, stream *headers.StreamHeader) *DepthRecorder {
	return &DepthRecorder{
		outputDir:    conf.OutputDir,
		deviceName:   conf.DeviceName,
		minDiskSpace: conf.MinDiskSpace,
		maxFrames:    conf.MaxFrames,
		stream:       stream,
		nowFunc:      time.Now,
	}
}

func (dr *DepthRecorder) CheckCanRecord() error {
	enoughSpace, err := checkDiskSpace(dr.minDiskSpace, dr.outputDir)
	if err != nil {
		return fmt.Errorf("problem with checking disk space: %v", err)
	} else if !enoughSpace {
		return errors.New("not enough free disk space to start recording")
	}
	return nil
}

// StartRecording opens a new file. The first pose, when defined, gives the
// recording's location.
func (dr *DepthRecorder) StartRecording(first pose.Pose) error {
	if dr.writer != nil {
		return errors.New("already recording")
	}
	now := dr.nowFunc()
	filename := filepath.Join(dr.outputDir, newRecordingTempName(now))
	log.Printf("recording started: %s", filename)

	writer, err := cptv.NewFileWriter(filename, dr.stream)
	if err != nil {
		return err
	}
	header := cptv.Header{
		DeviceName: dr.deviceName,
		FPS:        dr.stream.FPS(),
		Brand:      dr.stream.Brand(),
		Model:      dr.stream.Model(),
	}
	if first.HasPosition {
		header.Latitude = float32(first.Latitude)
		header.Longitude = float32(first.Longitude)
		header.Altitude = first.Altitude
		header.LocTimestamp = first.Time()
	}
	if err = writer.WriteHeader(header); err != nil {
		writer.Close()
		os.Remove(filename)
		return err
	}

	dr.writer = writer
	dr.cframe = cptvframe.NewFrame(dr.stream)
	dr.started = now
	dr.frames = 0
	return nil
}

// WriteFrame appends d. Frames past the configured maximum are dropped.
func (dr *DepthRecorder) WriteFrame(d *frame.Depth) error {
	if dr.writer == nil {
		return errors.New("not recording")
	}
	if d.Width != dr.stream.ResX() || d.Height != dr.stream.ResY() {
		return fmt.Errorf("depth image is %dx%d, recording is %dx%d",
			d.Width, d.Height, dr.stream.ResX(), dr.stream.ResY())
	}
	if dr.maxFrames > 0 && dr.frames >= dr.maxFrames {
		return nil
	}
	for y, row := range dr.cframe.Pix {
		copy(row, d.Pix[y*d.Width:(y+1)*d.Width])
	}
	dr.cframe.Status.TimeOn = dr.nowFunc().Sub(dr.started)
	if err := dr.writer.WriteFrame(dr.cframe); err != nil {
		return err
	}
	dr.frames++
	return nil
}

func (dr *DepthRecorder) Frames() int {
	return dr.frames
}

func (dr *DepthRecorder) StopRecording() error {
	if dr.writer != nil {
		dr.writer.Close()

		finalName, err := renameTempRecording(dr.writer.Name())
		log.Printf("recording stopped: %s (%d frames)", finalName, dr.frames)
		dr.writer = nil

		return err
	}
	return nil
}

// Abort closes and deletes the current recording.
func (dr *DepthRecorder) Abort() {
	if dr.writer != nil {
		dr.writer.Close()
		os.Remove(dr.writer.Name())
		dr.writer = nil
	}
}

func newRecordingTempName(t time.Time) string {
	return t.Format("20060102.150405.000." + cptvTempExt)
}

func renameTempRecording(tempName string) (string, error) {
	finalName := recordingFinalName(tempName)
	err := os.Rename(tempName, finalName)
	if err != nil {
		return "", err
	}
	return finalName, nil
}

var reTempName = regexp.MustCompile(`(.+)\.temp$`)

func recordingFinalName(filename string) string {
	return reTempName.ReplaceAllString(filename, `$1`)
}

// DeleteTempFiles removes recordings left unfinished by a crash.
func DeleteTempFiles(directory string) error {
	matches, _ := filepath.Glob(filepath.Join(directory, "*."+cptvTempExt))
	for _, filename := range matches {
		if err := os.Remove(filename); err != nil {
			return err
		}
	}
	return nil
}

func checkDiskSpace(mb uint64, dir string) (bool, error) {
	var fs syscall.Statfs_t
	if err := syscall.Statfs(dir, &fs); err != nil {
		return false, err
	}
	return fs.Bavail*uint64(fs.Bsize)/1024/1024 >= mb, nil
}
