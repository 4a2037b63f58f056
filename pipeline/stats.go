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

package pipeline

import (
	"fmt"
	"math"

	"github.com/TheCacophonyProject/rgbd-codec/frame"
)

// Stats summarises a run. Depth errors only count pixels whose true depth
// is in the valid range.
type Stats struct {
	Frames         int
	Dropped        int
	PosesSent      int
	PosesRecovered int
	ValidPixels    int64
	// Leaked counts pixels with invalid true depth that decoded non-zero.
	Leaked   int64
	MaxError int

	sumSq float64
}

func (s *Stats) RMS() float64 {
	if s.ValidPixels == 0 {
		return 0
	}
	return math.Sqrt(s.sumSq / float64(s.ValidPixels))
}

func (s *Stats) addDepth(want, got *frame.Depth, minCode, maxCode uint16) {
	for i, w := range want.Pix {
		g := got.Pix[i]
		if w < minCode || w > maxCode {
			if g != 0 {
				s.Leaked++
			}
			continue
		}
		d := int(g) - int(w)
		if d < 0 {
			d = -d
		}
		if d > s.MaxError {
			s.MaxError = d
		}
		s.sumSq += float64(d) * float64(d)
		s.ValidPixels++
	}
}

func (s Stats) String() string {
	return fmt.Sprintf("frames %d (dropped %d), poses %d/%d, depth rms %.2f max %d, leaked %d",
		s.Frames, s.Dropped, s.PosesRecovered, s.PosesSent, s.RMS(), s.MaxError, s.Leaked)
}
