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

// Package recorder saves decoded depth streams for offline inspection.
package recorder

import (
	"github.com/TheCacophonyProject/rgbd-codec/frame"
	"github.com/TheCacophonyProject/rgbd-codec/pose"
)

type Recorder interface {
	StopRecording() error
	StartRecording(first pose.Pose) error
	WriteFrame(d *frame.Depth) error
	CheckCanRecord() error
}

type NoWriteRecorder struct {
}

func (*NoWriteRecorder) StopRecording() error           { return nil }
func (*NoWriteRecorder) StartRecording(pose.Pose) error { return nil }
func (*NoWriteRecorder) WriteFrame(*frame.Depth) error  { return nil }
func (*NoWriteRecorder) CheckCanRecord() error          { return nil }
