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

// Package pipeline moves captures through the codec and a simulated
// transport at the stream frame rate.
package pipeline

import (
	"sync"

	"github.com/TheCacophonyProject/rgbd-codec/frame"
	"github.com/TheCacophonyProject/rgbd-codec/pose"
)

// Capture is one colour, depth and pose triple.
type Capture struct {
	Seq   int
	RGB   *frame.RGB
	Depth *frame.Depth
	Pose  pose.Pose
}

// Slot hands captures from one producer to one consumer. It holds at most
// one capture: a Put while the previous capture is still waiting replaces
// it, so a slow consumer always gets the newest frame.
type Slot struct {
	mu     sync.Mutex
	ready  *sync.Cond
	item   *Capture
	closed bool
	drops  int
}

func NewSlot() *Slot {
	s := new(Slot)
	s.ready = sync.NewCond(&s.mu)
	return s
}

// Put stores c, reporting whether an untaken capture was dropped to make
// room. Puts after Close are ignored.
func (s *Slot) Put(c *Capture) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	dropped := s.item != nil
	if dropped {
		s.drops++
	}
	s.item = c
	s.ready.Signal()
	return dropped
}

// Take waits for a capture. It returns false once the slot is closed and
// empty.
func (s *Slot) Take() (*Capture, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for s.item == nil && !s.closed {
		s.ready.Wait()
	}
	if s.item == nil {
		return nil, false
	}
	c := s.item
	s.item = nil
	return c, true
}

// Close wakes any waiting Take. A capture already in the slot can still
// be taken.
func (s *Slot) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.ready.Broadcast()
}

func (s *Slot) Drops() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.drops
}
