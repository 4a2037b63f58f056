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
	"errors"
	"io/ioutil"

	yaml "gopkg.in/yaml.v2"

	"github.com/TheCacophonyProject/rgbd-codec/depth"
	"github.com/TheCacophonyProject/rgbd-codec/headers"
	"github.com/TheCacophonyProject/rgbd-codec/recorder"
	"github.com/TheCacophonyProject/rgbd-codec/throttle"
)

type Config struct {
	Stream    headers.StreamConfig     `yaml:"stream"`
	Depth     depth.Config             `yaml:"depth"`
	Recorder  recorder.RecorderConfig  `yaml:"recorder"`
	Throttler throttle.ThrottlerConfig `yaml:"throttler"`
	Replay    ReplayConfig             `yaml:"replay"`
}

type ReplayConfig struct {
	Frames         int  `yaml:"frames"`
	NoiseAmplitude int  `yaml:"noise-amplitude"`
	LimitedRange   bool `yaml:"limited-range"`
	DropPoseEvery  int  `yaml:"drop-pose-every"`
	Record         bool `yaml:"record"`
}

func (conf *Config) Validate() error {
	if err := conf.Stream.Validate(); err != nil {
		return err
	}
	if err := conf.Depth.Validate(); err != nil {
		return err
	}
	if conf.Replay.Record {
		if err := conf.Recorder.Validate(); err != nil {
			return err
		}
		if err := conf.Throttler.Validate(); err != nil {
			return err
		}
	}
	if conf.Replay.Frames <= 0 {
		return errors.New("frames must be positive")
	}
	if conf.Replay.NoiseAmplitude < 0 {
		return errors.New("noise-amplitude can't be negative")
	}
	if conf.Replay.DropPoseEvery < 0 {
		return errors.New("drop-pose-every can't be negative")
	}
	return nil
}

var defaultConfig = Config{
	Stream:    headers.DefaultStreamConfig(),
	Depth:     depth.DefaultConfig(),
	Recorder:  recorder.DefaultConfig(),
	Throttler: throttle.DefaultThrottlerConfig(),
	Replay: ReplayConfig{
		Frames: 100,
	},
}

func ParseConfigFiles(filename string) (*Config, error) {
	buf, err := ioutil.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	return ParseConfig(buf)
}

func ParseConfig(buf []byte) (*Config, error) {
	conf := defaultConfig
	if err := yaml.Unmarshal(buf, &conf); err != nil {
		return nil, err
	}
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return &conf, nil
}
