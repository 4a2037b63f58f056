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

package frame

import (
	"fmt"
	"math"
)

// RGBToYCbCr converts a colour to unrounded full range BT.601 YCbCr.
func RGBToYCbCr(r, g, b float64) (y, cb, cr float64) {
	y = 0.299*r + 0.587*g + 0.114*b
	cb = 128 - 0.168736*r - 0.331264*g + 0.5*b
	cr = 128 + 0.5*r - 0.418688*g - 0.081312*b
	return
}

// YCbCrToRGB is the inverse of RGBToYCbCr, rounded and clamped to bytes.
func YCbCrToRGB(y, cb, cr uint8) (r, g, b uint8) {
	fy := float64(y)
	fcb := float64(cb) - 128
	fcr := float64(cr) - 128
	r = ClampByte(fy + 1.402*fcr)
	g = ClampByte(fy - 0.344136*fcb - 0.714136*fcr)
	b = ClampByte(fy + 1.772*fcb)
	return
}

// ClampByte rounds f to the nearest integer and clamps it into [0, 255].
func ClampByte(f float64) uint8 {
	f = math.Round(f)
	if f <= 0 {
		return 0
	}
	if f >= 255 {
		return 255
	}
	return uint8(f)
}

func clampFloat(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 255 {
		return 255
	}
	return f
}

// Overlay supplies pixels that replace the colour image where ok is true.
// The pose pattern is drawn into transport frames this way so the caller's
// colour image is left untouched.
type Overlay interface {
	At(x, y int) (r, g, b uint8, ok bool)
}

func colourAt(src *RGB, overlay Overlay, x, y int) (uint8, uint8, uint8) {
	if overlay != nil {
		if r, g, b, ok := overlay.At(x, y); ok {
			return r, g, b
		}
	}
	return src.At(x, y)
}

// WriteColor writes src into the left half of dst. For YUV420P frames the
// chroma of each 2x2 group is the mean of the four unrounded pixel values,
// so the video stage's own subsampling has nothing left to average.
func WriteColor(dst *Video, src *RGB, overlay Overlay) {
	dst.CheckSideBySide(dst.Format, src.Width, src.Height)
	switch dst.Format {
	case RGB24:
		stride := dst.Width * 3
		for y := 0; y < src.Height; y++ {
			row := dst.Data[y*stride:]
			for x := 0; x < src.Width; x++ {
				r, g, b := colourAt(src, overlay, x, y)
				row[x*3] = r
				row[x*3+1] = g
				row[x*3+2] = b
			}
		}
	case YUV420P:
		writeColorYUV(dst, src, overlay)
	default:
		panic(fmt.Sprintf("frame: cannot write colour into %v", dst.Format))
	}
}

func writeColorYUV(dst *Video, src *RGB, overlay Overlay) {
	lumaStride := dst.Width
	chromaStride := dst.ChromaWidth()
	yp, up, vp := dst.Y(), dst.U(), dst.V()
	for by := 0; by < src.Height; by += 2 {
		for bx := 0; bx < src.Width; bx += 2 {
			var sumCb, sumCr float64
			for dy := 0; dy < 2; dy++ {
				for dx := 0; dx < 2; dx++ {
					x, y := bx+dx, by+dy
					r, g, b := colourAt(src, overlay, x, y)
					fy, fcb, fcr := RGBToYCbCr(float64(r), float64(g), float64(b))
					yp[y*lumaStride+x] = ClampByte(fy)
					sumCb += clampFloat(fcb)
					sumCr += clampFloat(fcr)
				}
			}
			ci := (by/2)*chromaStride + bx/2
			up[ci] = ClampByte(sumCb / 4)
			vp[ci] = ClampByte(sumCr / 4)
		}
	}
}

// ReadColor recovers the colour image from the left half of src into dst,
// resizing dst as needed.
func ReadColor(dst *RGB, src *Video) {
	width := src.Width / 2
	height := src.Height
	dst.Resize(width, height)
	src.CheckSideBySide(src.Format, width, height)
	switch src.Format {
	case RGB24:
		stride := src.Width * 3
		for y := 0; y < height; y++ {
			copy(dst.Pix[y*width*3:(y+1)*width*3], src.Data[y*stride:y*stride+width*3])
		}
	case YUV420P:
		lumaStride := src.Width
		chromaStride := src.ChromaWidth()
		yp, up, vp := src.Y(), src.U(), src.V()
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				ci := (y/2)*chromaStride + x/2
				r, g, b := YCbCrToRGB(yp[y*lumaStride+x], up[ci], vp[ci])
				dst.Set(x, y, r, g, b)
			}
		}
	default:
		panic(fmt.Sprintf("frame: cannot read colour from %v", src.Format))
	}
}
