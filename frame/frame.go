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

// Package frame holds the pixel buffers passed between capture, the
// codec and the video pipeline.
package frame

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnsupportedFormat is returned when a pixel format name is not one
// the codec can produce or consume.
var ErrUnsupportedFormat = errors.New("unsupported pixel format")

type PixelFormat uint8

const (
	RGB24 PixelFormat = iota + 1
	YUV420P
)

func (f PixelFormat) String() string {
	switch f {
	case RGB24:
		return "rgb24"
	case YUV420P:
		return "yuv420p"
	}
	return fmt.Sprintf("PixelFormat(%d)", uint8(f))
}

// ParsePixelFormat maps an ffmpeg style pixel format name to a PixelFormat.
func ParsePixelFormat(s string) (PixelFormat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "rgb24":
		return RGB24, nil
	case "yuv420p":
		return YUV420P, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
}

// ColorRange says whether 8-bit samples span [0, 255] or the studio band.
type ColorRange uint8

const (
	RangeFull ColorRange = iota + 1
	RangeLimited
)

func (r ColorRange) String() string {
	switch r {
	case RangeFull:
		return "full"
	case RangeLimited:
		return "limited"
	}
	return "unspecified"
}

type Colorspace uint8

const (
	ColorspaceBT601 Colorspace = iota + 1
	ColorspaceBT709
)

func (c Colorspace) String() string {
	switch c {
	case ColorspaceBT601:
		return "bt601"
	case ColorspaceBT709:
		return "bt709"
	}
	return "unspecified"
}

// RGB is a packed 8-bit RGB image.
type RGB struct {
	Width  int
	Height int
	Pix    []uint8
}

func NewRGB(width, height int) *RGB {
	im := new(RGB)
	im.Resize(width, height)
	return im
}

// Resize sets the image dimensions, reusing the pixel buffer when it is
// large enough. Pixel contents are not preserved.
func (im *RGB) Resize(width, height int) {
	n := width * height * 3
	if cap(im.Pix) < n {
		im.Pix = make([]uint8, n)
	}
	im.Pix = im.Pix[:n]
	im.Width = width
	im.Height = height
}

func (im *RGB) At(x, y int) (r, g, b uint8) {
	i := (y*im.Width + x) * 3
	return im.Pix[i], im.Pix[i+1], im.Pix[i+2]
}

func (im *RGB) Set(x, y int, r, g, b uint8) {
	i := (y*im.Width + x) * 3
	im.Pix[i] = r
	im.Pix[i+1] = g
	im.Pix[i+2] = b
}

// Fill sets the w by h rectangle anchored at the origin to a single colour.
func (im *RGB) Fill(w, h int, r, g, b uint8) {
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			im.Set(x, y, r, g, b)
		}
	}
}

// Depth is a frame of 16-bit depth codes. Code 0 means no valid depth.
type Depth struct {
	Width  int
	Height int
	Pix    []uint16
}

func NewDepth(width, height int) *Depth {
	d := new(Depth)
	d.Resize(width, height)
	return d
}

// Resize sets the frame dimensions, reusing the buffer when possible.
func (d *Depth) Resize(width, height int) {
	n := width * height
	if cap(d.Pix) < n {
		d.Pix = make([]uint16, n)
	}
	d.Pix = d.Pix[:n]
	d.Width = width
	d.Height = height
}

func (d *Depth) At(x, y int) uint16 {
	return d.Pix[y*d.Width+x]
}

func (d *Depth) Set(x, y int, v uint16) {
	d.Pix[y*d.Width+x] = v
}

// Video is a single transport frame as handed to, or received from, the
// video compression stage.
type Video struct {
	Format     PixelFormat
	Width      int
	Height     int
	Range      ColorRange
	Colorspace Colorspace

	// Data holds packed RGB for RGB24, or the Y, U and V planes one after
	// another for YUV420P.
	Data []byte
}

// Size returns the number of bytes a frame of the given format and
// dimensions occupies.
func Size(format PixelFormat, width, height int) int {
	switch format {
	case RGB24:
		return width * height * 3
	case YUV420P:
		return width*height + 2*(width/2)*(height/2)
	}
	panic(fmt.Sprintf("frame: no size for %v", format))
}

func NewVideo(format PixelFormat, width, height int) *Video {
	v := new(Video)
	v.Resize(format, width, height)
	return v
}

// Resize readies the frame for the format and dimensions given, reusing
// the data buffer when it is large enough. The frame is tagged as full
// range BT.601.
func (v *Video) Resize(format PixelFormat, width, height int) {
	n := Size(format, width, height)
	if cap(v.Data) < n {
		v.Data = make([]byte, n)
	}
	v.Data = v.Data[:n]
	v.Format = format
	v.Width = width
	v.Height = height
	v.ForceFullRange()
}

// ForceFullRange tags the frame as full range BT.601. Applied on both the
// sending and receiving side regardless of what the pipeline reports.
func (v *Video) ForceFullRange() {
	v.Range = RangeFull
	v.Colorspace = ColorspaceBT601
}

// ChromaWidth is the width of the U and V planes.
func (v *Video) ChromaWidth() int {
	return v.Width / 2
}

func (v *Video) Y() []byte {
	v.mustBe(YUV420P)
	return v.Data[:v.Width*v.Height]
}

func (v *Video) U() []byte {
	v.mustBe(YUV420P)
	luma := v.Width * v.Height
	chroma := (v.Width / 2) * (v.Height / 2)
	return v.Data[luma : luma+chroma]
}

func (v *Video) V() []byte {
	v.mustBe(YUV420P)
	luma := v.Width * v.Height
	chroma := (v.Width / 2) * (v.Height / 2)
	return v.Data[luma+chroma : luma+2*chroma]
}

func (v *Video) mustBe(format PixelFormat) {
	if v.Format != format {
		panic(fmt.Sprintf("frame: %v frame used as %v", v.Format, format))
	}
}

// CheckSideBySide panics unless v is a frame of the given format that can
// carry a width by height colour image next to a depth image of the same
// size.
func (v *Video) CheckSideBySide(format PixelFormat, width, height int) {
	v.mustBe(format)
	if v.Width != 2*width || v.Height != height {
		panic(fmt.Sprintf("frame: %dx%d frame cannot carry %dx%d images side by side",
			v.Width, v.Height, width, height))
	}
	if len(v.Data) != Size(format, v.Width, v.Height) {
		panic(fmt.Sprintf("frame: %v frame has %d bytes, want %d",
			format, len(v.Data), Size(format, v.Width, v.Height)))
	}
}

// CheckPair panics if the colour and depth images differ in shape, or if
// their dimensions cannot be split into 2x2 chroma groups.
func CheckPair(rgb *RGB, d *Depth) {
	if rgb.Width != d.Width || rgb.Height != d.Height {
		panic(fmt.Sprintf("frame: colour image is %dx%d but depth is %dx%d",
			rgb.Width, rgb.Height, d.Width, d.Height))
	}
	if rgb.Width%2 != 0 || rgb.Height%2 != 0 {
		panic(fmt.Sprintf("frame: %dx%d is not a multiple of the 2x2 chroma group",
			rgb.Width, rgb.Height))
	}
}
