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
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TheCacophonyProject/rgbd-codec/frame"
)

func TestNewLayout(t *testing.T) {
	l, err := NewLayout(5, 848, 480)
	require.NoError(t, err)
	assert.Equal(t, Layout{MacroblockSize: 5, WidthBlocks: 2, HeightBlocks: 88}, l)
	assert.Equal(t, 10, l.Width())
	assert.Equal(t, 440, l.Height())

	l, err = NewLayout(4, 64, 64)
	require.NoError(t, err)
	assert.Equal(t, Layout{MacroblockSize: 4, WidthBlocks: 11, HeightBlocks: 16}, l)

	l, err = NewLayout(8, 1280, 720)
	require.NoError(t, err)
	assert.Equal(t, Layout{MacroblockSize: 8, WidthBlocks: 2, HeightBlocks: 88}, l)

	_, err = NewLayout(3, 848, 480)
	assert.Error(t, err)
	_, err = NewLayout(5, 848, 4)
	assert.Error(t, err)
	_, err = NewLayout(8, 40, 16)
	assert.Error(t, err)
}

func newImage(t *testing.T, w, h int) *frame.RGB {
	im := frame.NewRGB(w, h)
	rng := rand.New(rand.NewSource(3))
	rng.Read(im.Pix)
	return im
}

func TestWriteThenDecode(t *testing.T) {
	l, err := NewLayout(4, 64, 64)
	require.NoError(t, err)
	c := NewCodec(l)
	im := newImage(t, 64, 64)

	c.Write(im, samplePose())
	got, ok := c.Decode(im)
	require.True(t, ok)
	assert.True(t, samplePose().Equal(got))

	for y := 0; y < l.Height(); y++ {
		for x := 0; x < l.Width(); x++ {
			r, g, b := im.At(x, y)
			require.Equal(t, []uint8{0, 0, 0}, []uint8{r, g, b})
		}
	}
}

func TestSymbolOrder(t *testing.T) {
	l, err := NewLayout(4, 64, 64)
	require.NoError(t, err)
	var buf [Size]byte
	buf[0] = 0x1b // 00 01 10 11
	p := NewPattern(l, buf)
	for i, want := range Palette {
		r, g, b, ok := p.At(i*4+1, 1)
		require.True(t, ok)
		assert.Equal(t, want, [3]uint8{r, g, b})
	}
	_, _, _, ok := p.At(l.Width(), 0)
	assert.False(t, ok)
}

// Symbols 0 to 3 are red, green, yellow and blue, in that order.
var senderColours = [4][3]uint8{{255, 0, 0}, {0, 255, 0}, {255, 255, 0}, {0, 0, 255}}

func TestPaletteOrder(t *testing.T) {
	assert.Equal(t, senderColours, Palette)

	// The sample pose starts 0x41 0xd9: symbols 1 0 0 1, 3 1 2 1.
	l, err := NewLayout(5, 848, 480)
	require.NoError(t, err)
	buf, err := samplePose().ToBytes()
	require.NoError(t, err)
	require.Equal(t, []byte{0x41, 0xd9}, buf[:2])
	p := NewPattern(l, buf)

	want := [][3]uint8{
		{0, 255, 0}, {255, 0, 0},
		{255, 0, 0}, {0, 255, 0},
		{0, 0, 255}, {0, 255, 0},
		{255, 255, 0}, {0, 255, 0},
	}
	for i, c := range want {
		r, g, b, ok := p.At((i%2)*5+2, (i/2)*5+2)
		require.True(t, ok)
		assert.Equal(t, c, [3]uint8{r, g, b}, "symbol %d", i)
	}
}

func TestDecodesHandDrawnMacroblocks(t *testing.T) {
	l, err := NewLayout(5, 848, 480)
	require.NoError(t, err)
	buf, err := samplePose().ToBytes()
	require.NoError(t, err)

	im := frame.NewRGB(848, 480)
	for i, b := range buf {
		for j := 0; j < 4; j++ {
			symbol := b >> (6 - 2*j) & 3
			n := i*4 + j
			bx, by := (n%l.WidthBlocks)*5, (n/l.WidthBlocks)*5
			c := senderColours[symbol]
			for y := by; y < by+5; y++ {
				for x := bx; x < bx+5; x++ {
					im.Set(x, y, c[0], c[1], c[2])
				}
			}
		}
	}

	got, ok := NewCodec(l).Decode(im)
	require.True(t, ok)
	assert.True(t, samplePose().Equal(got))
}

func TestSurvivesYUVRoundTrip(t *testing.T) {
	for _, mb := range []int{4, 5, 6} {
		l, err := NewLayout(mb, 128, 128)
		require.NoError(t, err)
		c := NewCodec(l)
		src := newImage(t, 128, 128)

		v := frame.NewVideo(frame.YUV420P, 256, 128)
		frame.WriteColor(v, src, c.Encode(samplePose()))
		got := new(frame.RGB)
		frame.ReadColor(got, v)

		p, ok := c.Decode(got)
		require.True(t, ok, "macroblock size %d", mb)
		assert.True(t, samplePose().Equal(p))
	}
}

func TestBoundedNoiseStillDecodes(t *testing.T) {
	l, err := NewLayout(5, 848, 480)
	require.NoError(t, err)
	c := NewCodec(l)
	im := frame.NewRGB(848, 480)
	c.Write(im, samplePose())

	rng := rand.New(rand.NewSource(9))
	for i, v := range im.Pix {
		n := int(v) + rng.Intn(81) - 40
		if n < 0 {
			n = 0
		} else if n > 255 {
			n = 255
		}
		im.Pix[i] = uint8(n)
	}

	want, err := samplePose().ToBytes()
	require.NoError(t, err)
	assert.Equal(t, want, c.ReadBytes(im))
}

func TestBlankRegionIsNotAPose(t *testing.T) {
	l, err := NewLayout(5, 848, 480)
	require.NoError(t, err)
	c := NewCodec(l)
	var logged []string
	c.SetLogFunc(func(s string) { logged = append(logged, s) })

	im := frame.NewRGB(848, 480)
	undefined := samplePose()
	undefined.HasOrientation = false
	c.Write(im, undefined)

	_, ok := c.Decode(im)
	assert.False(t, ok)
	assert.Len(t, logged, 1)
}

func TestNearestPrefersLowerIndexOnTie(t *testing.T) {
	// Equidistant from red and green.
	assert.Equal(t, uint8(0), nearest(100, 100, 0))
	// Equidistant from green and blue.
	assert.Equal(t, uint8(1), nearest(0, 128, 128))
	assert.Equal(t, uint8(2), nearest(130, 255, 0))
	assert.Equal(t, uint8(0), nearest(250, 10, 5))
	assert.Equal(t, uint8(3), nearest(5, 10, 250))
	// Black is equidistant from red, green and blue.
	assert.Equal(t, uint8(0), nearest(0, 0, 0))
}

func TestSmallImagePanics(t *testing.T) {
	l, err := NewLayout(5, 848, 480)
	require.NoError(t, err)
	c := NewCodec(l)
	assert.Panics(t, func() { c.Clear(frame.NewRGB(8, 8)) })
}
