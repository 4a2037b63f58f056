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
	"fmt"
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/TheCacophonyProject/rgbd-codec/frame"
	"github.com/TheCacophonyProject/rgbd-codec/lut"
)

const (
	tableSize    = 1 << 16
	inverseSize  = 1 << 24
	triangleLuts = 1

	forwardSection = "forward"
	inverseSection = "inverse"
)

// floorMod is a modulo whose result takes the sign of b.
func floorMod(a, b float64) float64 {
	return a - b*math.Floor(a/b)
}

// TriangleForward maps a depth code to its luma and two triangle wave
// chroma values for period np.
func TriangleForward(code uint16, np int) (y, u, v uint8) {
	p := float64(np) / tableSize
	l := (float64(code) + 0.5) / tableSize

	ha := floorMod(l/(p/2), 2)
	if ha > 1 {
		ha = 2 - ha
	}
	hb := floorMod((l-p/4)/(p/2), 2)
	if hb > 1 {
		hb = 2 - hb
	}
	return frame.ClampByte(l * 255), frame.ClampByte(ha * 255), frame.ClampByte(hb * 255)
}

// TriangleInverse recovers a depth code from a luma, chroma triple. The
// luma picks which of the four rising and falling quarter periods the
// sample lies in, and the chroma wave that is linear there gives the
// offset within it.
func TriangleInverse(y, u, v uint8, np int) uint16 {
	p := float64(np) / tableSize
	l := float64(y) / 255
	ha := float64(u) / 255
	hb := float64(v) / 255

	m := floorMod(math.Floor(4*l/p-0.5), 4)
	l0 := l - floorMod(l-p/8, p) + (p/4)*m - p/8
	var delta float64
	switch m {
	case 0:
		delta = (p / 2) * ha
	case 1:
		delta = (p / 2) * hb
	case 2:
		delta = (p / 2) * (1 - ha)
	default:
		delta = (p / 2) * (1 - hb)
	}
	return clampCode(tableSize * (l0 + delta))
}

func buildTriangleForward(np int) []uint8 {
	table := make([]uint8, tableSize*3)
	for code := 0; code < tableSize; code++ {
		y, u, v := TriangleForward(uint16(code), np)
		table[code*3] = y
		table[code*3+1] = u
		table[code*3+2] = v
	}
	return table
}

// buildTriangleInverse fills the 256^3 table in luma stripes, one worker
// per CPU.
func buildTriangleInverse(np int) ([]uint16, error) {
	table := make([]uint16, inverseSize)
	workers := runtime.NumCPU()
	var g errgroup.Group
	for w := 0; w < workers; w++ {
		first := w
		g.Go(func() error {
			for y := first; y < 256; y += workers {
				base := y << 16
				for u := 0; u < 256; u++ {
					for v := 0; v < 256; v++ {
						table[base|u<<8|v] = TriangleInverse(uint8(y), uint8(u), uint8(v), np)
					}
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return table, nil
}

type triangle struct {
	period  int
	cache   *lut.Cache
	forward []uint8
	inverse []uint16
}

func newTriangle(conf Config, cache *lut.Cache) *triangle {
	return &triangle{
		period: conf.TrianglePeriod,
		cache:  cache,
	}
}

func (t *triangle) key() lut.Key {
	return lut.Key{
		Scheme:  Triangle.String(),
		Version: triangleLuts,
		Params: map[string]float64{
			"period": float64(t.period),
			"w":      tableSize,
		},
	}
}

// TableKey returns the cache key of the tables conf needs. Only the
// triangle scheme keeps tables.
func TableKey(conf Config) (lut.Key, bool) {
	if conf.Scheme != Triangle {
		return lut.Key{}, false
	}
	return newTriangle(conf, nil).key(), true
}

func (t *triangle) build() ([]lut.Section, error) {
	inverse, err := buildTriangleInverse(t.period)
	if err != nil {
		return nil, err
	}
	return []lut.Section{
		{Name: forwardSection, Bytes: buildTriangleForward(t.period)},
		{Name: inverseSection, Words: inverse},
	}, nil
}

func (t *triangle) init() error {
	sections, err := t.cache.LoadOrBuild(t.key(), t.build)
	if err != nil {
		return err
	}
	forward, ok := lut.Find(sections, forwardSection)
	if !ok || forward.Len() != tableSize*3 || forward.Bytes == nil {
		return fmt.Errorf("triangle tables: bad %q section", forwardSection)
	}
	inverse, ok := lut.Find(sections, inverseSection)
	if !ok || inverse.Len() != inverseSize || inverse.Words == nil {
		return fmt.Errorf("triangle tables: bad %q section", inverseSection)
	}
	t.forward = forward.Bytes
	t.inverse = inverse.Words
	return nil
}

// encode writes luma per pixel and the mean chroma of each 2x2 group.
func (t *triangle) encode(v *frame.Video, d *frame.Depth) {
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

func (t *triangle) decode(d *frame.Depth, v *frame.Video) {
	h := depthHalf(v, d)
	for y := 0; y < d.Height; y++ {
		for x := 0; x < d.Width; x++ {
			ci := h.chroma(x, y)
			i := int(h.y[h.luma(x, y)])<<16 | int(h.u[ci])<<8 | int(h.v[ci])
			d.Pix[y*d.Width+x] = t.inverse[i]
		}
	}
}
