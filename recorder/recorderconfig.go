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

package recorder

import "errors"

type RecorderConfig struct {
	OutputDir    string `yaml:"output-dir"`
	DeviceName   string `yaml:"device-name"`
	MinDiskSpace uint64 `yaml:"min-disk-space-mb"`
	MaxFrames    int    `yaml:"max-frames"`
}

func DefaultConfig() RecorderConfig {
	return RecorderConfig{
		OutputDir:    "/var/spool/rgbd",
		DeviceName:   "rgbd",
		MinDiskSpace: 200,
		MaxFrames:    0,
	}
}

func (conf *RecorderConfig) Validate() error {
	if conf.OutputDir == "" {
		return errors.New("output-dir must be set")
	}
	if conf.MaxFrames < 0 {
		return errors.New("max-frames can't be negative")
	}
	return nil
}
