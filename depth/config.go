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

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/TheCacophonyProject/rgbd-codec/frame"
	"github.com/TheCacophonyProject/rgbd-codec/pose"
)

// ErrUnknownScheme is returned for scheme names that are not recognised.
var ErrUnknownScheme = errors.New("unknown depth encoding scheme")

// Scheme selects how depth is packed into a video frame. It is agreed
// per deployment and never changes during a stream.
type Scheme uint8

const (
	Hue Scheme = iota + 1
	Triangle
	MultiWavelength
	Zhou
)

var schemeNames = map[Scheme]string{
	Hue:             "hue",
	Triangle:        "triangle",
	MultiWavelength: "multi-wavelength",
	Zhou:            "zhou",
}

func (s Scheme) String() string {
	if name, ok := schemeNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Scheme(%d)", uint8(s))
}

func ParseScheme(name string) (Scheme, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for s, n := range schemeNames {
		if n == name {
			return s, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownScheme, name)
}

// PixelFormat is the transport pixel format the scheme produces.
func (s Scheme) PixelFormat() frame.PixelFormat {
	if s == Hue {
		return frame.RGB24
	}
	return frame.YUV420P
}

func (s Scheme) MarshalYAML() (interface{}, error) {
	return s.String(), nil
}

func (s *Scheme) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var name string
	if err := unmarshal(&name); err != nil {
		return err
	}
	parsed, err := ParseScheme(name)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

const (
	// MaxCode is the largest 16-bit depth code.
	MaxCode = math.MaxUint16

	DefaultTrianglePeriod   = 2048
	DefaultWavelengthPeriod = tableSize / 128
	minTrianglePeriod       = 1028
	maxTrianglePeriod       = tableSize / 2
)

// Config is the codec's operating envelope. Depths are in metres and
// DepthUnits is metres per depth code.
type Config struct {
	Scheme     Scheme  `yaml:"scheme"`
	DepthUnits float64 `yaml:"depth-units"`
	MinDepth   float64 `yaml:"min-depth"`
	MaxDepth   float64 `yaml:"max-depth"`

	// TrianglePeriod is the triangle wave period in depth codes. Longer
	// periods tolerate more chroma noise at the cost of resolution.
	TrianglePeriod int `yaml:"triangle-period"`

	// WavelengthPeriod is the multi-wavelength phase period in depth
	// codes. Zero selects DefaultWavelengthPeriod.
	WavelengthPeriod int `yaml:"wavelength-period"`

	MacroblockSize int    `yaml:"macroblock-size"`
	CacheDir       string `yaml:"cache-dir"`
}

func DefaultConfig() Config {
	return Config{
		Scheme:           Zhou,
		DepthUnits:       0.0001,
		MinDepth:         0.15,
		MaxDepth:         6.0,
		TrianglePeriod:   DefaultTrianglePeriod,
		WavelengthPeriod: 0,
		MacroblockSize:   pose.DefaultMacroblockSize,
		CacheDir:         "/var/cache/rgbd-codec",
	}
}

// MinCode is the smallest depth code considered valid.
func (conf *Config) MinCode() int {
	return int(math.Round(conf.MinDepth / conf.DepthUnits))
}

// MaxCode is the largest depth code considered valid.
func (conf *Config) MaxCode() int {
	return int(math.Round(conf.MaxDepth / conf.DepthUnits))
}

// Period returns the multi-wavelength period in use.
func (conf *Config) Period() int {
	if conf.WavelengthPeriod > 0 {
		return conf.WavelengthPeriod
	}
	return DefaultWavelengthPeriod
}

func (conf *Config) Validate() error {
	if _, ok := schemeNames[conf.Scheme]; !ok {
		return fmt.Errorf("%w: %v", ErrUnknownScheme, conf.Scheme)
	}
	if conf.DepthUnits <= 0 {
		return errors.New("depth-units must be positive")
	}
	if conf.MinDepth < 0 {
		return errors.New("min-depth can't be negative")
	}
	if conf.MaxDepth <= conf.MinDepth {
		return errors.New("max-depth should be larger than min-depth")
	}
	if conf.MaxCode() > MaxCode {
		return fmt.Errorf("max-depth %.3f does not fit in 16 bits at depth-units %g", conf.MaxDepth, conf.DepthUnits)
	}
	if conf.TrianglePeriod <= minTrianglePeriod || conf.TrianglePeriod > maxTrianglePeriod {
		return fmt.Errorf("triangle-period must be greater than %d and at most %d", minTrianglePeriod, maxTrianglePeriod)
	}
	if conf.WavelengthPeriod < 0 {
		return errors.New("wavelength-period can't be negative")
	}
	// One luma step has to be less than half a period.
	if p := conf.Period(); 255*p <= MaxCode {
		return fmt.Errorf("wavelength-period must be greater than %d", MaxCode/255)
	}
	if conf.MacroblockSize < pose.MinMacroblockSize {
		return fmt.Errorf("macroblock-size must be at least %d", pose.MinMacroblockSize)
	}
	return nil
}
