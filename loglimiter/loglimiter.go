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

package loglimiter

import (
	"fmt"
	"log"
	"time"
)

// New returns a new LogLimiter with the configured minimum log interval.
func New(interval time.Duration) *LogLimiter {
	return &LogLimiter{
		interval: interval,
		nowFunc:  time.Now,
		output:   log.Print,
	}
}

// LogLimiter will suppress log messages if the same log message is
// seen within some time interval. Debug messages are dropped unless the
// limiter is verbose.
type LogLimiter struct {
	interval      time.Duration
	verbose       bool
	nowFunc       func() time.Time
	output        func(...interface{})
	previousEntry string
	previousTime  time.Time
}

func (limiter *LogLimiter) SetVerbose(verbose bool) {
	limiter.verbose = verbose
}

func (limiter *LogLimiter) Printf(format string, v ...interface{}) {
	limiter.Print(fmt.Sprintf(format, v...))
}

// Print logs s unless it repeats the previous message within the interval.
// It can be used directly as a codec log function.
func (limiter *LogLimiter) Print(s string) {
	now := limiter.nowFunc()
	if now.Sub(limiter.previousTime) < limiter.interval && s == limiter.previousEntry {
		return
	}

	limiter.output(s)
	limiter.previousTime = now
	limiter.previousEntry = s
}

func (limiter *LogLimiter) Debugf(format string, v ...interface{}) {
	if limiter.verbose {
		limiter.Printf(format, v...)
	}
}

// Debug is Print for verbose mode only.
func (limiter *LogLimiter) Debug(s string) {
	if limiter.verbose {
		limiter.Print(s)
	}
}
