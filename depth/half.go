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

import "github.com/TheCacophonyProject/rgbd-codec/frame"

// yuvHalf addresses the depth carrying right half of a YUV420P frame in
// depth image coordinates.
type yuvHalf struct {
	width   int
	y, u, v []byte
}

func depthHalf(v *frame.Video, d *frame.Depth) yuvHalf {
	return yuvHalf{
		width: d.Width,
		y:     v.Y(),
		u:     v.U(),
		v:     v.V(),
	}
}

// luma returns the Y plane index of depth pixel (x, y). Luma rows are
// twice the depth width.
func (h yuvHalf) luma(x, y int) int {
	return y*2*h.width + h.width + x
}

// chroma returns the U and V plane index of the 2x2 group holding depth
// pixel (x, y). Chroma rows are as wide as the depth image.
func (h yuvHalf) chroma(x, y int) int {
	return (y/2)*h.width + h.width/2 + x/2
}
