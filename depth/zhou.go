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
	zhouPeriod = 256
	zhouOffset = 127
)

// zhouPhases returns the three samples, 120 degrees apart, that encode one
// byte.
func zhouPhases(b uint8) (i1, i2, i3 uint8) {
	phi := float64(int(b)-zhouOffset) * 2 * math.Pi / zhouPeriod
	sample := func(offset float64) uint8 {
		return frame.ClampByte(255 * 0.5 * (1 + math.Cos(phi+offset)))
	}
	return sample(-2 * math.Pi / 3), sample(0), sample(2 * math.Pi / 3)
}

// zhouByte recovers a byte from its three phase samples.
func zhouByte(i1, i2, i3 uint8) uint8 {
	a, b, c := float64(i1), float64(i2), float64(i3)
	phase := math.Atan2(math.Sqrt(3)*(a-c), 2*b-a-c)
	v := int(math.Round(phase/(2*math.Pi)*zhouPeriod)) + zhouOffset
	return uint8(((v % zhouPeriod) + zhouPeriod) % zhouPeriod)
}

// reduceBlock picks one of a 2x2 block's samples, given in raster order,
// to stand for the whole block. Zero samples and codes outside
// [minCode, maxCode] carry no depth and are ignored. With two valid samples
// the first is kept. With three or more the one furthest from their mean
// is dropped and the remaining sample nearest the mean of the rest is
// kept. Ties go to the first in raster order.
func reduceBlock(s [4]uint16, minCode, maxCode uint16) uint16 {
	var valid [4]int
	n, sum := 0, 0
	for _, v := range s {
		if v != 0 && v >= minCode && v <= maxCode {
			valid[n] = int(v)
			sum += int(v)
			n++
		}
	}
	if n <= 2 {
		return uint16(valid[0])
	}

	drop := farthest(valid[:n], sum)
	var rest [3]int
	m := 0
	for i := 0; i < n; i++ {
		if i != drop {
			rest[m] = valid[i]
			m++
		}
	}
	return uint16(rest[nearest(rest[:m], sum-valid[drop])])
}

// farthest and nearest compare |n*v - sum| so that distances to the mean
// need no division. Both return the first index on ties.
func farthest(values []int, sum int) int {
	best, worst := 0, -1
	for i, v := range values {
		if d := absDiff(len(values)*v, sum); d > worst {
			best, worst = i, d
		}
	}
	return best
}

func nearest(values []int, sum int) int {
	best, closest := 0, -1
	for i, v := range values {
		if d := absDiff(len(values)*v, sum); closest < 0 || d < closest {
			best, closest = i, d
		}
	}
	return best
}

func absDiff(a, b int) int {
	if a < b {
		return b - a
	}
	return a - b
}

// zhou splits each 2x2 block's depth into two bytes and phase encodes
// each as three samples. The upper byte uses the block's top left luma
// and its two chroma samples, the lower byte the other three luma samples,
// so 4:2:0 subsampling never mixes the two.
type zhou struct {
	minCode uint16
	maxCode uint16
	phases  [256][3]uint8
}

func newZhou(conf Config) *zhou {
	return &zhou{
		minCode: uint16(conf.MinCode()),
		maxCode: uint16(conf.MaxCode()),
	}
}

func (t *zhou) init() error {
	for b := range t.phases {
		i1, i2, i3 := zhouPhases(uint8(b))
		t.phases[b] = [3]uint8{i1, i2, i3}
	}
	return nil
}

func (t *zhou) encode(v *frame.Video, d *frame.Depth) {
	h := depthHalf(v, d)
	for r := 0; r < d.Height; r += 2 {
		for c := 0; c < d.Width; c += 2 {
			i := r*d.Width + c
			z := reduceBlock([4]uint16{d.Pix[i], d.Pix[i+1], d.Pix[i+d.Width], d.Pix[i+d.Width+1]}, t.minCode, t.maxCode)
			upper := t.phases[z>>8]
			lower := t.phases[z&0xff]

			ci := h.chroma(c, r)
			h.y[h.luma(c, r)] = upper[0]
			h.u[ci] = upper[1]
			h.v[ci] = upper[2]

			h.y[h.luma(c+1, r+1)] = lower[0]
			h.y[h.luma(c+1, r)] = lower[1]
			h.y[h.luma(c, r+1)] = lower[2]
		}
	}
}

func (t *zhou) decode(d *frame.Depth, v *frame.Video) {
	h := depthHalf(v, d)
	for r := 0; r < d.Height; r += 2 {
		for c := 0; c < d.Width; c += 2 {
			ci := h.chroma(c, r)
			upper := zhouByte(h.y[h.luma(c, r)], h.u[ci], h.v[ci])
			lower := zhouByte(h.y[h.luma(c+1, r+1)], h.y[h.luma(c+1, r)], h.y[h.luma(c, r+1)])
			z := uint16(upper)<<8 | uint16(lower)

			i := r*d.Width + c
			d.Pix[i] = z
			d.Pix[i+1] = z
			d.Pix[i+d.Width] = z
			d.Pix[i+d.Width+1] = z
		}
	}
}
