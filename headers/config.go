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

package headers

import "errors"

// StreamConfig is the yaml section giving the capture size and rate.
type StreamConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
	Fps    int `yaml:"fps"`
}

func DefaultStreamConfig() StreamConfig {
	return StreamConfig{
		Width:  848,
		Height: 480,
		Fps:    5,
	}
}

func (conf *StreamConfig) Validate() error {
	if conf.Width <= 0 || conf.Height <= 0 {
		return errors.New("stream width and height must be positive")
	}
	if conf.Width%2 != 0 || conf.Height%2 != 0 {
		return errors.New("stream width and height must be even")
	}
	if conf.Fps <= 0 {
		return errors.New("stream fps must be positive")
	}
	return nil
}
