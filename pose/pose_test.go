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
	"hash/crc32"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func samplePose() Pose {
	return New(1735460258.7933, 53.2734, -7.7783, 52, 0, 0, 0, QualityRTKFixed)
}

func TestRoundTrip(t *testing.T) {
	poses := []Pose{
		samplePose(),
		New(0, 0, 0, 0, 0, 0, 0, QualitySingle),
		New(-1, -90, 180, -400.25, 89.9, -179.5, 359.99, QualityRTKFloat),
		New(math.MaxFloat64, math.SmallestNonzeroFloat64, math.Inf(-1), math.MaxFloat32, -0.0, 1e-30, 12.5, QualityManual),
	}
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 100; i++ {
		poses = append(poses, New(rng.Float64()*2e9, rng.Float64()*180-90, rng.Float64()*360-180,
			rng.Float32()*1000, rng.Float32()*180-90, rng.Float32()*360-180, rng.Float32()*360, QualityDifferential))
	}

	for _, p := range poses {
		buf, err := p.ToBytes()
		require.NoError(t, err)
		got, err := FromBytes(buf)
		require.NoError(t, err)
		assert.True(t, p.Equal(got), "%v != %v", p, got)
	}
}

func TestRoundTripPreservesNaNBits(t *testing.T) {
	p := samplePose()
	p.Longitude = math.Float64frombits(0x7ff8000000000123)
	buf, err := p.ToBytes()
	require.NoError(t, err)
	got, err := FromBytes(buf)
	require.NoError(t, err)
	assert.True(t, p.Equal(got))
}

func TestLayoutOfBytes(t *testing.T) {
	p := New(1, 2, 3, 4, 5, 6, 7, QualitySingle)
	buf, err := p.ToBytes()
	require.NoError(t, err)

	assert.Equal(t, []byte{0x3f, 0xf0, 0, 0, 0, 0, 0, 0}, buf[0:8])
	assert.Equal(t, []byte{0x40, 0x80, 0, 0}, buf[24:28])
	assert.Equal(t, []byte{0x40, 0xe0, 0, 0}, buf[36:40])
	sum := crc32.ChecksumIEEE(buf[:40])
	assert.Equal(t, []byte{byte(sum >> 24), byte(sum >> 16), byte(sum >> 8), byte(sum)}, buf[40:])
}

func TestUndefinedPoseCannotBeSerialised(t *testing.T) {
	p := samplePose()
	p.HasOrientation = false
	_, err := p.ToBytes()
	assert.Equal(t, ErrUndefined, err)

	p = samplePose()
	p.HasPosition = false
	assert.False(t, p.Defined())
	_, err = p.ToBytes()
	assert.Equal(t, ErrUndefined, err)
}

func TestEverySingleBitFlipIsDetected(t *testing.T) {
	buf, err := samplePose().ToBytes()
	require.NoError(t, err)

	for bit := 0; bit < Size*8; bit++ {
		corrupt := buf
		corrupt[bit/8] ^= 1 << uint(bit%8)
		_, err := FromBytes(corrupt)
		var mismatch *ChecksumMismatchError
		require.True(t, errors.As(err, &mismatch), "bit %d", bit)
		assert.Equal(t, corrupt[:40], mismatch.Payload[:])
	}
}

func TestEqualIgnoresQuality(t *testing.T) {
	a := samplePose()
	b := a
	b.Quality = QualityInvalid
	assert.True(t, a.Equal(b))
	b.Yaw = 0.5
	assert.False(t, a.Equal(b))
}

func TestUsable(t *testing.T) {
	p := samplePose()
	assert.True(t, p.Usable())
	assert.True(t, p.Usable(QualityRTKFixed, QualityRTKFloat))
	assert.False(t, p.Usable(QualitySingle))

	p.Quality = QualityInvalid
	assert.False(t, p.Usable())

	p = samplePose()
	p.HasPosition = false
	assert.False(t, p.Usable())
}

func TestQualityString(t *testing.T) {
	assert.Equal(t, "rtk-fixed", QualityRTKFixed.String())
	assert.Equal(t, "simulator", QualitySimulator.String())
	assert.Equal(t, "Quality(12)", Quality(12).String())
}

func TestTime(t *testing.T) {
	p := samplePose()
	assert.Equal(t, int64(1735460258), p.Time().Unix())
	assert.InDelta(t, 793300000, p.Time().Nanosecond(), 1000)
}
