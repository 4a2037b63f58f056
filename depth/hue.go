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

package depth

import (
	"math"

	"github.com/TheCacophonyProject/rgbd-codec/frame"
)

const (
	// huePositions is the length of the red, yellow, green, cyan, blue,
	// magenta and back to red ramp.
	huePositions = 1529

	// Pixels darker than this carry no depth.
	darkThreshold = 256
)

// Colorizer false colours depth codes for the Hue scheme. Whatever is used
// has to produce the hue ramp HueColorizer does, since that is what the
// decoder inverts.
type Colorizer interface {
	Colorize(code uint16) (r, g, b uint8)
}

// HueColorizer spreads the valid depth range linearly over the hue ramp.
// Positions whose colour would fall under the dark threshold (pure red,
// green and blue) are skipped. Zero and out of range codes are black.
type HueColorizer struct {
	min, max int
	steps    []uint16
}

func NewHueColorizer(minCode, maxCode int) *HueColorizer {
	c := &HueColorizer{min: minCode, max: maxCode}
	for h := 0; h < huePositions; h++ {
		r, g, b := hueColour(h)
		if int(r)+int(g)+int(b) >= darkThreshold {
			c.steps = append(c.steps, uint16(h))
		}
	}
	return c
}

func (c *HueColorizer) Colorize(code uint16) (r, g, b uint8) {
	if code == 0 || int(code) < c.min || int(code) > c.max {
		return 0, 0, 0
	}
	frac := float64(int(code)-c.min) / float64(c.max-c.min)
	i := int(math.Round(frac * float64(len(c.steps)-1)))
	return hueColour(int(c.steps[i]))
}

// hueColour returns the ramp colour at position h in [0, huePositions).
func hueColour(h int) (r, g, b uint8) {
	switch {
	case h <= 255:
		return 255, uint8(h), 0
	case h <= 510:
		return uint8(510 - h), 255, 0
	case h <= 765:
		return 0, 255, uint8(h - 510)
	case h <= 1020:
		return 0, uint8(1020 - h), 255
	case h < 1275:
		return uint8(h - 1020), 0, 255
	default:
		return 255, 0, uint8(huePositions - h)
	}
}

// huePosition recovers the ramp position from a colour by which channel
// dominates. It returns -1 for colours too dark to carry depth.
func huePosition(r, g, b uint8) int {
	ri, gi, bi := int(r), int(g), int(b)
	switch {
	case ri+gi+bi < darkThreshold:
		return -1
	case ri >= gi && ri >= bi:
		if gi >= bi {
			return gi - bi
		}
		return gi - bi + huePositions
	case gi >= ri && gi >= bi:
		return bi - ri + 510
	default:
		return ri - gi + 1020
	}
}

type hue struct {
	conf      Config
	colorizer Colorizer

	// stepOf maps a ramp position to its index among usable positions,
	// or to the nearest usable one for positions the colorizer skips.
	stepOf    [huePositions]int16
	stepCount int
}

func newHue(conf Config) *hue {
	return &hue{conf: conf}
}

func (t *hue) init() error {
	ramp := NewHueColorizer(t.conf.MinCode(), t.conf.MaxCode())
	if t.colorizer == nil {
		t.colorizer = ramp
	}
	t.stepCount = len(ramp.steps)
	next := 0
	for h := range t.stepOf {
		for next < len(ramp.steps)-1 && int(ramp.steps[next]) < h {
			next++
		}
		t.stepOf[h] = int16(next)
	}
	return nil
}

func (t *hue) encode(v *frame.Video, d *frame.Depth) {
	stride := v.Width * 3
	for y := 0; y < d.Height; y++ {
		row := v.Data[y*stride+d.Width*3:]
		for x := 0; x < d.Width; x++ {
			r, g, b := t.colorizer.Colorize(d.Pix[y*d.Width+x])
			row[x*3] = r
			row[x*3+1] = g
			row[x*3+2] = b
		}
	}
}

func (t *hue) decode(d *frame.Depth, v *frame.Video) {
	minCode := float64(t.conf.MinCode())
	span := float64(t.conf.MaxCode()) - minCode
	last := float64(t.stepCount - 1)
	stride := v.Width * 3
	for y := 0; y < d.Height; y++ {
		row := v.Data[y*stride+d.Width*3:]
		for x := 0; x < d.Width; x++ {
			h := huePosition(row[x*3], row[x*3+1], row[x*3+2])
			if h < 0 {
				d.Pix[y*d.Width+x] = 0
				continue
			}
			step := float64(t.stepOf[h])
			d.Pix[y*d.Width+x] = clampCode(minCode + span*step/last)
		}
	}
}

// clampCode rounds f into the 16-bit code range.
func clampCode(f float64) uint16 {
	f = math.Round(f)
	if f <= 0 {
		return 0
	}
	if f >= MaxCode {
		return MaxCode
	}
	return uint16(f)
}
