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

package main

import (
	"io/ioutil"

	yaml "gopkg.in/yaml.v2"

	"github.com/TheCacophonyProject/rgbd-codec/depth"
	"github.com/TheCacophonyProject/rgbd-codec/headers"
)

// Config is the part of the shared configuration file that decides which
// tables a stream needs.
type Config struct {
	Stream headers.StreamConfig `yaml:"stream"`
	Depth  depth.Config         `yaml:"depth"`
}

func (conf *Config) Validate() error {
	if err := conf.Stream.Validate(); err != nil {
		return err
	}
	return conf.Depth.Validate()
}

func ParseConfigFiles(filename string) (*Config, error) {
	buf, err := ioutil.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	return ParseConfig(buf)
}

func ParseConfig(buf []byte) (*Config, error) {
	conf := Config{
		Stream: headers.DefaultStreamConfig(),
		Depth:  depth.DefaultConfig(),
	}
	if err := yaml.Unmarshal(buf, &conf); err != nil {
		return nil, err
	}
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return &conf, nil
}
