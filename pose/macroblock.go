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

package pose

import (
	"errors"
	"fmt"

	"github.com/TheCacophonyProject/rgbd-codec/frame"
)

const (
	// Symbols is the number of two bit symbols, and so macroblocks, a
	// serialised pose needs.
	Symbols = Size * 4

	// MinMacroblockSize keeps each block centre's 2x2 chroma group inside
	// its own block.
	MinMacroblockSize = 4

	DefaultMacroblockSize = 5
)

// Palette lists the macroblock colours by symbol value.
var Palette = [4][3]uint8{
	{255, 0, 0},   // red
	{0, 255, 0},   // green
	{255, 255, 0}, // yellow
	{0, 0, 255},   // blue
}

// Layout is the placement of the pose macroblocks in the top left corner of
// a colour image.
type Layout struct {
	MacroblockSize int
	WidthBlocks    int
	HeightBlocks   int
}

// NewLayout picks the narrowest grid of macroblocks that holds a pose and
// fits within the height of a frameWidth x frameHeight image.
func NewLayout(macroblockSize, frameWidth, frameHeight int) (Layout, error) {
	if macroblockSize < MinMacroblockSize {
		return Layout{}, fmt.Errorf("macroblock size %d is less than %d", macroblockSize, MinMacroblockSize)
	}
	maxRows := frameHeight / macroblockSize
	if maxRows == 0 {
		return Layout{}, fmt.Errorf("frame height %d cannot hold a %d pixel macroblock", frameHeight, macroblockSize)
	}
	minCols := (Symbols + maxRows - 1) / maxRows
	cols := 0
	for c := minCols; c <= Symbols; c++ {
		if Symbols%c == 0 {
			cols = c
			break
		}
	}
	l := Layout{
		MacroblockSize: macroblockSize,
		WidthBlocks:    cols,
		HeightBlocks:   Symbols / cols,
	}
	if l.Width() > frameWidth {
		return Layout{}, fmt.Errorf("a %dx%d pose region does not fit in a %dx%d frame",
			l.Width(), l.Height(), frameWidth, frameHeight)
	}
	return l, nil
}

// Width of the region in pixels.
func (l Layout) Width() int {
	return l.WidthBlocks * l.MacroblockSize
}

// Height of the region in pixels.
func (l Layout) Height() int {
	return l.HeightBlocks * l.MacroblockSize
}

// Contains reports whether pixel (x, y) lies in the pose region.
func (l Layout) Contains(x, y int) bool {
	return x >= 0 && y >= 0 && x < l.Width() && y < l.Height()
}

func (l Layout) String() string {
	return fmt.Sprintf("%dx%d blocks of %dpx", l.WidthBlocks, l.HeightBlocks, l.MacroblockSize)
}

// Pattern is the macroblock image of one serialised pose. A blank pattern
// paints the region black. It implements frame.Overlay.
type Pattern struct {
	layout  Layout
	symbols [Symbols]uint8
	blank   bool
}

// NewPattern splits each byte into four symbols, most significant first,
// laid out row major.
func NewPattern(layout Layout, buf [Size]byte) Pattern {
	p := Pattern{layout: layout}
	for i, b := range buf {
		p.symbols[i*4] = b >> 6
		p.symbols[i*4+1] = b >> 4 & 3
		p.symbols[i*4+2] = b >> 2 & 3
		p.symbols[i*4+3] = b & 3
	}
	return p
}

// BlankPattern covers the region in black.
func BlankPattern(layout Layout) Pattern {
	return Pattern{layout: layout, blank: true}
}

func (p Pattern) At(x, y int) (r, g, b uint8, ok bool) {
	if !p.layout.Contains(x, y) {
		return 0, 0, 0, false
	}
	if p.blank {
		return 0, 0, 0, true
	}
	mb := p.layout.MacroblockSize
	c := Palette[p.symbols[(y/mb)*p.layout.WidthBlocks+x/mb]]
	return c[0], c[1], c[2], true
}

// Draw paints the pattern into im.
func (p Pattern) Draw(im *frame.RGB) {
	for y := 0; y < p.layout.Height(); y++ {
		for x := 0; x < p.layout.Width(); x++ {
			r, g, b, _ := p.At(x, y)
			im.Set(x, y, r, g, b)
		}
	}
}

// nearest returns the palette index closest to the colour by L1 distance.
// Ties go to the lower index.
func nearest(r, g, b uint8) uint8 {
	best, bestDist := 0, 1<<30
	for i, c := range Palette {
		d := abs(int(r)-int(c[0])) + abs(int(g)-int(c[1])) + abs(int(b)-int(c[2]))
		if d < bestDist {
			best, bestDist = i, d
		}
	}
	return uint8(best)
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// Codec writes poses into, and reads them back out of, colour images using
// a fixed Layout.
type Codec struct {
	layout Layout
	logf   func(string)
}

func NewCodec(layout Layout) *Codec {
	return &Codec{
		layout: layout,
		logf:   func(string) {},
	}
}

// SetLogFunc sets the function used to report frames whose pose could not
// be read.
func (c *Codec) SetLogFunc(f func(string)) {
	c.logf = f
}

func (c *Codec) Layout() Layout {
	return c.layout
}

// Encode returns the pattern for p, or a blank pattern if p is not
// defined.
func (c *Codec) Encode(p Pose) Pattern {
	buf, err := p.ToBytes()
	if err != nil {
		return BlankPattern(c.layout)
	}
	return NewPattern(c.layout, buf)
}

// Write draws p into the pose region of im. The region is blacked out if p
// is not defined.
func (c *Codec) Write(im *frame.RGB, p Pose) {
	c.checkFits(im)
	c.Encode(p).Draw(im)
}

// ReadBytes classifies the centre pixel of each macroblock.
func (c *Codec) ReadBytes(im *frame.RGB) [Size]byte {
	c.checkFits(im)
	var buf [Size]byte
	mb := c.layout.MacroblockSize
	for i := 0; i < Symbols; i++ {
		row, col := i/c.layout.WidthBlocks, i%c.layout.WidthBlocks
		r, g, b := im.At(col*mb+mb/2, row*mb+mb/2)
		buf[i/4] = buf[i/4]<<2 | nearest(r, g, b)
	}
	return buf
}

// Decode reads the pose from im and then clears the region. A false
// result means no intact pose was present in this frame.
func (c *Codec) Decode(im *frame.RGB) (Pose, bool) {
	buf := c.ReadBytes(im)
	c.Clear(im)
	p, err := FromBytes(buf)
	if err != nil {
		var mismatch *ChecksumMismatchError
		if errors.As(err, &mismatch) {
			c.logf(mismatch.Error())
		}
		return Pose{}, false
	}
	return p, true
}

// Clear blacks out the pose region of im.
func (c *Codec) Clear(im *frame.RGB) {
	c.checkFits(im)
	im.Fill(c.layout.Width(), c.layout.Height(), 0, 0, 0)
}

func (c *Codec) checkFits(im *frame.RGB) {
	if im.Width < c.layout.Width() || im.Height < c.layout.Height() {
		panic(fmt.Sprintf("pose: %dx%d image is smaller than the %v region", im.Width, im.Height, c.layout))
	}
}
