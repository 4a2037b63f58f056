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
	"math/rand"

	"github.com/TheCacophonyProject/rgbd-codec/frame"
)

// Channel stands in for whatever sits between the encoder and decoder.
// It may modify the frame in place.
type Channel func(v *frame.Video)

// Lossless passes frames through untouched.
func Lossless(*frame.Video) {}

// Noise adds uniform noise of up to amplitude to every sample.
func Noise(amplitude int, seed int64) Channel {
	rng := rand.New(rand.NewSource(seed))
	return func(v *frame.Video) {
		frame.AddNoise(v, amplitude, rng)
	}
}

// LimitedRange squeezes frames into studio range, as a misconfigured
// transcoder would.
func LimitedRange(v *frame.Video) {
	frame.SqueezeToLimited(v)
}

// Chain applies channels in order.
func Chain(channels ...Channel) Channel {
	return func(v *frame.Video) {
		for _, c := range channels {
			c(v)
		}
	}
}
