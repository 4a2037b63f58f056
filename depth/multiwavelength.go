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

// multiWavelength carries a coarse linear depth in luma and the phase of
// depth within a short period as a sine, cosine pair in chroma. The coarse
// value only has to pick the right period, so the period trades
// resolution, roughly p/(2*pi*127.5) codes, against tolerance to luma
// error, p/2 - 65535/510 codes. Luma spans the whole code range so codes
// beyond the valid range still decode to themselves and get discarded.
type multiWavelength struct {
	period  float64
	forward []uint8
}

func newMultiWavelength(conf Config) *multiWavelength {
	return &multiWavelength{
		period: float64(conf.Period()),
	}
}

func (t *multiWavelength) init() error {
	t.forward = make([]uint8, tableSize*3)
	for code := 0; code < tableSize; code++ {
		z := float64(code)
		angle := 2 * math.Pi * z / t.period
		t.forward[code*3] = frame.ClampByte(255 * z / MaxCode)
		t.forward[code*3+1] = frame.ClampByte(255 * 0.5 * (1 + math.Sin(angle)))
		t.forward[code*3+2] = frame.ClampByte(255 * 0.5 * (1 + math.Cos(angle)))
	}
	return nil
}

func (t *multiWavelength) encode(v *frame.Video, d *frame.Depth) {
	h := depthHalf(v, d)
	for by := 0; by < d.Height; by += 2 {
		for bx := 0; bx < d.Width; bx += 2 {
			var su, sv int
			for dy := 0; dy < 2; dy++ {
				for dx := 0; dx < 2; dx++ {
					x, y := bx+dx, by+dy
					e := t.forward[int(d.Pix[y*d.Width+x])*3:]
					h.y[h.luma(x, y)] = e[0]
					su += int(e[1])
					sv += int(e[2])
				}
			}
			ci := h.chroma(bx, by)
			h.u[ci] = uint8((su + 2) / 4)
			h.v[ci] = uint8((sv + 2) / 4)
		}
	}
}

// unwrap combines the coarse luma with the fine chroma phase.
func (t *multiWavelength) unwrap(y, u, v uint8) uint16 {
	fine := math.Atan2(float64(u)/255-0.5, float64(v)/255-0.5)
	coarse := 2 * math.Pi * float64(y) / 255
	k := (coarse*MaxCode/t.period - fine) / (2 * math.Pi)
	phi := fine + 2*math.Pi*math.Round(k)
	return clampCode(phi * t.period / (2 * math.Pi))
}

func (t *multiWavelength) decode(d *frame.Depth, v *frame.Video) {
	h := depthHalf(v, d)
	for y := 0; y < d.Height; y++ {
		for x := 0; x < d.Width; x++ {
			ci := h.chroma(x, y)
			d.Pix[y*d.Width+x] = t.unwrap(h.y[h.luma(x, y)], h.u[ci], h.v[ci])
		}
	}
}
