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

// Package testframes generates synthetic colour, depth and pose input.
package testframes

import (
	"math/rand"

	"github.com/TheCacophonyProject/rgbd-codec/frame"
	"github.com/TheCacophonyProject/rgbd-codec/pose"
)

// SamplePose is a fixed RTK fixed pose near Galway.
func SamplePose() pose.Pose {
	return pose.New(1735460258.7933, 53.2734, -7.7783, 52, 0, 0, 0, pose.QualityRTKFixed)
}

func ConstantDepth(w, h int, code uint16) *frame.Depth {
	d := frame.NewDepth(w, h)
	for i := range d.Pix {
		d.Pix[i] = code
	}
	return d
}

// Gradient ramps linearly from min at the left edge to max at the right.
func Gradient(w, h int, min, max uint16) *frame.Depth {
	d := frame.NewDepth(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			d.Set(x, y, lerp(min, max, x, w-1))
		}
	}
	return d
}

// BlockGradient is Gradient with each 2x2 block held at a single value.
func BlockGradient(w, h int, min, max uint16) *frame.Depth {
	d := frame.NewDepth(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			d.Set(x, y, lerp(min, max, x/2, w/2-1))
		}
	}
	return d
}

// RandomBlocks fills each 2x2 block with a value drawn uniformly from
// [min, max].
func RandomBlocks(w, h int, min, max uint16, rng *rand.Rand) *frame.Depth {
	d := frame.NewDepth(w, h)
	for y := 0; y < h; y += 2 {
		for x := 0; x < w; x += 2 {
			v := min + uint16(rng.Intn(int(max-min)+1))
			d.Set(x, y, v)
			d.Set(x+1, y, v)
			d.Set(x, y+1, v)
			d.Set(x+1, y+1, v)
		}
	}
	return d
}

// PiecewiseConstant tiles the image with size x size squares, cycling
// through levels.
func PiecewiseConstant(w, h, size int, levels ...uint16) *frame.Depth {
	d := frame.NewDepth(w, h)
	tilesAcross := (w + size - 1) / size
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			tile := (y/size)*tilesAcross + x/size
			d.Set(x, y, levels[tile%len(levels)])
		}
	}
	return d
}

func lerp(min, max uint16, i, n int) uint16 {
	if n <= 0 {
		return min
	}
	return uint16(int(min) + (int(max)-int(min))*i/n)
}

var bars = [...][3]uint8{
	{192, 192, 192},
	{192, 192, 0},
	{0, 192, 192},
	{0, 192, 0},
	{192, 0, 192},
	{192, 0, 0},
	{0, 0, 192},
	{16, 16, 16},
}

// ColourBars is a vertical bar test pattern with a bright diagonal.
func ColourBars(w, h int) *frame.RGB {
	im := frame.NewRGB(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := bars[x*len(bars)/w]
			if x == y*w/h {
				c = [3]uint8{255, 255, 255}
			}
			im.Set(x, y, c[0], c[1], c[2])
		}
	}
	return im
}

// Noise is a colour image of uniformly random pixels.
func Noise(w, h int, rng *rand.Rand) *frame.RGB {
	im := frame.NewRGB(w, h)
	rng.Read(im.Pix)
	return im
}
