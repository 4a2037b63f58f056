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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	yaml "gopkg.in/yaml.v2"

	"github.com/TheCacophonyProject/rgbd-codec/frame"
)

func TestDefaultConfigIsValid(t *testing.T) {
	conf := DefaultConfig()
	require.NoError(t, conf.Validate())
	assert.Equal(t, 1500, conf.MinCode())
	assert.Equal(t, 60000, conf.MaxCode())
	assert.Equal(t, DefaultWavelengthPeriod, conf.Period())
	assert.Equal(t, 512, conf.Period())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		change func(*Config)
		err    string
	}{
		{func(c *Config) { c.DepthUnits = 0 }, "depth-units must be positive"},
		{func(c *Config) { c.MinDepth = -1 }, "min-depth can't be negative"},
		{func(c *Config) { c.MaxDepth = c.MinDepth }, "max-depth should be larger than min-depth"},
		{func(c *Config) { c.MaxDepth = 7 }, "max-depth 7.000 does not fit in 16 bits at depth-units 0.0001"},
		{func(c *Config) { c.TrianglePeriod = 1028 }, "triangle-period must be greater than 1028 and at most 32768"},
		{func(c *Config) { c.TrianglePeriod = 32769 }, "triangle-period must be greater than 1028 and at most 32768"},
		{func(c *Config) { c.WavelengthPeriod = -5 }, "wavelength-period can't be negative"},
		{func(c *Config) { c.WavelengthPeriod = 257 }, "wavelength-period must be greater than 257"},
		{func(c *Config) { c.MacroblockSize = 3 }, "macroblock-size must be at least 4"},
	}
	for _, test := range tests {
		conf := DefaultConfig()
		test.change(&conf)
		assert.EqualError(t, conf.Validate(), test.err)
	}

	conf := DefaultConfig()
	conf.TrianglePeriod = 32768
	conf.WavelengthPeriod = 258
	assert.NoError(t, conf.Validate())

	conf.Scheme = 0
	assert.True(t, errors.Is(conf.Validate(), ErrUnknownScheme))
}

func TestParseScheme(t *testing.T) {
	for s, name := range schemeNames {
		got, err := ParseScheme(name)
		require.NoError(t, err)
		assert.Equal(t, s, got)
	}
	s, err := ParseScheme(" Multi-Wavelength ")
	require.NoError(t, err)
	assert.Equal(t, MultiWavelength, s)

	_, err = ParseScheme("sawtooth")
	assert.True(t, errors.Is(err, ErrUnknownScheme))
	assert.Equal(t, "Scheme(9)", Scheme(9).String())
}

func TestSchemePixelFormat(t *testing.T) {
	assert.Equal(t, frame.RGB24, Hue.PixelFormat())
	assert.Equal(t, frame.YUV420P, Triangle.PixelFormat())
	assert.Equal(t, frame.YUV420P, MultiWavelength.PixelFormat())
	assert.Equal(t, frame.YUV420P, Zhou.PixelFormat())
}

func TestConfigYAML(t *testing.T) {
	conf := DefaultConfig()
	raw := []byte(`
scheme: triangle
min-depth: 0.2
triangle-period: 4096
cache-dir: /tmp/luts
`)
	require.NoError(t, yaml.Unmarshal(raw, &conf))
	require.NoError(t, conf.Validate())
	assert.Equal(t, Triangle, conf.Scheme)
	assert.Equal(t, 0.2, conf.MinDepth)
	assert.Equal(t, 6.0, conf.MaxDepth)
	assert.Equal(t, 4096, conf.TrianglePeriod)
	assert.Equal(t, "/tmp/luts", conf.CacheDir)

	out, err := yaml.Marshal(conf)
	require.NoError(t, err)
	assert.Contains(t, string(out), "scheme: triangle\n")

	var back Config
	require.NoError(t, yaml.Unmarshal(out, &back))
	assert.Equal(t, conf, back)

	err = yaml.Unmarshal([]byte("scheme: sawtooth\n"), &conf)
	assert.True(t, errors.Is(err, ErrUnknownScheme))
}
