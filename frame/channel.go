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

import "math/rand"

// The functions below stand in for the lossy parts of a video pipeline.

// SqueezeToLimited maps full range samples into the studio band, as a stage
// that ignores the full range tag would. Luma (and RGB) samples land in
// [16, 235] and chroma samples in [16, 240]. The frame is tagged limited.
func SqueezeToLimited(v *Video) {
	switch v.Format {
	case RGB24:
		squeeze(v.Data, 219)
	case YUV420P:
		squeeze(v.Y(), 219)
		squeeze(v.U(), 224)
		squeeze(v.V(), 224)
	}
	v.Range = RangeLimited
}

func squeeze(p []byte, span float64) {
	for i, c := range p {
		p[i] = ClampByte(16 + span*float64(c)/255)
	}
}

// AddNoise perturbs every sample by a uniformly distributed integer in
// [-amplitude, amplitude], clamping at the ends of the byte range.
func AddNoise(v *Video, amplitude int, rng *rand.Rand) {
	if amplitude <= 0 {
		return
	}
	for i, c := range v.Data {
		n := int(c) + rng.Intn(2*amplitude+1) - amplitude
		if n < 0 {
			n = 0
		} else if n > 255 {
			n = 255
		}
		v.Data[i] = uint8(n)
	}
}

// Clone returns a deep copy of v.
func (v *Video) Clone() *Video {
	c := *v
	c.Data = append([]byte(nil), v.Data...)
	return &c
}

// CopyFrom makes v an exact copy of src, reusing v's buffer.
func (v *Video) CopyFrom(src *Video) {
	data := v.Data
	*v = *src
	if cap(data) < len(src.Data) {
		data = make([]byte, len(src.Data))
	}
	v.Data = data[:len(src.Data)]
	copy(v.Data, src.Data)
}
