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

// Package pose serialises GPS position and orientation samples and hides
// them in a corner of a video frame as a pattern of coloured macroblocks.
package pose

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"math"
	"time"
)

const (
	// Size is the serialised length of a pose, including the checksum.
	Size        = 44
	payloadSize = Size - 4
)

// ErrUndefined is returned when serialising a pose that lacks a position
// or an orientation.
var ErrUndefined = errors.New("pose is not defined")

// ChecksumMismatchError is returned by FromBytes when the trailer does not
// match the payload.
type ChecksumMismatchError struct {
	Payload [payloadSize]byte
	Trailer uint32
}

func (e *ChecksumMismatchError) Error() string {
	return fmt.Sprintf("pose checksum mismatch: trailer %08x, payload crc %08x",
		e.Trailer, crc32.ChecksumIEEE(e.Payload[:]))
}

// Quality is the GPS fix quality as reported in NMEA GGA sentences.
type Quality uint8

const (
	QualityInvalid Quality = iota
	QualitySingle
	QualityDifferential
	QualityPPS
	QualityRTKFixed
	QualityRTKFloat
	QualityDeadReckoning
	QualityManual
	QualitySimulator
)

var qualityNames = [...]string{
	"invalid",
	"single",
	"differential",
	"pps",
	"rtk-fixed",
	"rtk-float",
	"dead-reckoning",
	"manual",
	"simulator",
}

func (q Quality) String() string {
	if int(q) < len(qualityNames) {
		return qualityNames[q]
	}
	return fmt.Sprintf("Quality(%d)", uint8(q))
}

// Pose is a single position and orientation sample. Angles are in degrees
// and altitude in metres. Quality is carried alongside the sample but is
// not part of the serialised form.
type Pose struct {
	Epoch     float64
	Latitude  float64
	Longitude float64
	Altitude  float32
	Pitch     float32
	Roll      float32
	Yaw       float32
	Quality   Quality

	HasPosition    bool
	HasOrientation bool
}

// New returns a defined pose.
func New(epoch, lat, lon float64, alt, pitch, roll, yaw float32, quality Quality) Pose {
	return Pose{
		Epoch:          epoch,
		Latitude:       lat,
		Longitude:      lon,
		Altitude:       alt,
		Pitch:          pitch,
		Roll:           roll,
		Yaw:            yaw,
		Quality:        quality,
		HasPosition:    true,
		HasOrientation: true,
	}
}

// Defined reports whether both position and orientation are known. Only
// defined poses can be serialised.
func (p Pose) Defined() bool {
	return p.HasPosition && p.HasOrientation
}

// Usable reports whether the pose is defined and its fix quality is one of
// those accepted. With no accepted qualities given any valid fix is usable.
func (p Pose) Usable(accept ...Quality) bool {
	if !p.Defined() {
		return false
	}
	if len(accept) == 0 {
		return p.Quality != QualityInvalid
	}
	for _, q := range accept {
		if p.Quality == q {
			return true
		}
	}
	return false
}

// Time returns the sample time.
func (p Pose) Time() time.Time {
	sec, frac := math.Modf(p.Epoch)
	return time.Unix(int64(sec), int64(frac*1e9))
}

// Equal reports whether the serialised fields of p and o are bit for bit
// identical.
func (p Pose) Equal(o Pose) bool {
	return p.Defined() == o.Defined() &&
		math.Float64bits(p.Epoch) == math.Float64bits(o.Epoch) &&
		math.Float64bits(p.Latitude) == math.Float64bits(o.Latitude) &&
		math.Float64bits(p.Longitude) == math.Float64bits(o.Longitude) &&
		math.Float32bits(p.Altitude) == math.Float32bits(o.Altitude) &&
		math.Float32bits(p.Pitch) == math.Float32bits(o.Pitch) &&
		math.Float32bits(p.Roll) == math.Float32bits(o.Roll) &&
		math.Float32bits(p.Yaw) == math.Float32bits(o.Yaw)
}

func (p Pose) String() string {
	if !p.Defined() {
		return "pose(undefined)"
	}
	return fmt.Sprintf("pose(t=%.4f lat=%.7f lon=%.7f alt=%.2f pitch=%.2f roll=%.2f yaw=%.2f %v)",
		p.Epoch, p.Latitude, p.Longitude, p.Altitude, p.Pitch, p.Roll, p.Yaw, p.Quality)
}

// ToBytes serialises the pose as big endian epoch, latitude, longitude
// (float64), altitude, pitch, roll, yaw (float32) followed by the CRC32 of
// those 40 bytes.
func (p Pose) ToBytes() ([Size]byte, error) {
	var buf [Size]byte
	if !p.Defined() {
		return buf, ErrUndefined
	}
	be := binary.BigEndian
	be.PutUint64(buf[0:], math.Float64bits(p.Epoch))
	be.PutUint64(buf[8:], math.Float64bits(p.Latitude))
	be.PutUint64(buf[16:], math.Float64bits(p.Longitude))
	be.PutUint32(buf[24:], math.Float32bits(p.Altitude))
	be.PutUint32(buf[28:], math.Float32bits(p.Pitch))
	be.PutUint32(buf[32:], math.Float32bits(p.Roll))
	be.PutUint32(buf[36:], math.Float32bits(p.Yaw))
	be.PutUint32(buf[payloadSize:], crc32.ChecksumIEEE(buf[:payloadSize]))
	return buf, nil
}

// FromBytes parses a serialised pose. A *ChecksumMismatchError is returned
// when the trailer does not match.
func FromBytes(buf [Size]byte) (Pose, error) {
	be := binary.BigEndian
	trailer := be.Uint32(buf[payloadSize:])
	if crc32.ChecksumIEEE(buf[:payloadSize]) != trailer {
		e := &ChecksumMismatchError{Trailer: trailer}
		copy(e.Payload[:], buf[:payloadSize])
		return Pose{}, e
	}
	return Pose{
		Epoch:          math.Float64frombits(be.Uint64(buf[0:])),
		Latitude:       math.Float64frombits(be.Uint64(buf[8:])),
		Longitude:      math.Float64frombits(be.Uint64(buf[16:])),
		Altitude:       math.Float32frombits(be.Uint32(buf[24:])),
		Pitch:          math.Float32frombits(be.Uint32(buf[28:])),
		Roll:           math.Float32frombits(be.Uint32(buf[32:])),
		Yaw:            math.Float32frombits(be.Uint32(buf[36:])),
		HasPosition:    true,
		HasOrientation: true,
	}, nil
}
