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

package testframes

import (
	"time"

	"github.com/TheCacophonyProject/rgbd-codec/frame"
	"github.com/TheCacophonyProject/rgbd-codec/pose"
)

// FrameMaker produces a stream of captures: a far background with a near
// box moving diagonally across it, a colour bar image and a pose that
// advances with each frame.
type FrameMaker struct {
	width  int
	height int

	BackgroundDepth uint16
	NearDepth       uint16
	BoxSize         int

	// DropPoseEvery makes every nth frame's pose undefined. Zero keeps
	// every pose.
	DropPoseEvery int

	boxPosition  int
	frameCounter int
	interval     time.Duration
	pose         pose.Pose
	colour       *frame.RGB
}

func NewFrameMaker(width, height, fps int) *FrameMaker {
	return &FrameMaker{
		width:           width,
		height:          height,
		BackgroundDepth: 40000,
		NearDepth:       8000,
		BoxSize:         height / 4,
		interval:        time.Second / time.Duration(fps),
		pose:            SamplePose(),
		colour:          ColourBars(width, height),
	}
}

func (fm *FrameMaker) Frames() int {
	return fm.frameCounter
}

// Next returns the next capture. The colour image is shared between calls
// and must not be modified.
func (fm *FrameMaker) Next() (*frame.RGB, *frame.Depth, pose.Pose) {
	d := fm.makeDepth()
	p := fm.pose
	if fm.DropPoseEvery > 0 && fm.frameCounter%fm.DropPoseEvery == fm.DropPoseEvery-1 {
		p.HasOrientation = false
	}

	fm.frameCounter++
	fm.boxPosition += 2
	fm.pose.Epoch += fm.interval.Seconds()
	fm.pose.Latitude += 1e-6
	fm.pose.Yaw += 0.5
	if fm.pose.Yaw >= 360 {
		fm.pose.Yaw -= 360
	}
	return fm.colour, d, p
}

func (fm *FrameMaker) makeDepth() *frame.Depth {
	d := ConstantDepth(fm.width, fm.height, fm.BackgroundDepth)
	if fm.BoxSize <= 0 {
		return d
	}
	span := fm.height - fm.BoxSize
	if w := fm.width - fm.BoxSize; w < span {
		span = w
	}
	if span <= 0 {
		return d
	}
	pos := fm.boxPosition % span
	for y := pos; y < pos+fm.BoxSize; y++ {
		for x := pos; x < pos+fm.BoxSize; x++ {
			d.Set(x, y, fm.NearDepth)
		}
	}
	return d
}
