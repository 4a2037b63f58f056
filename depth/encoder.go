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

// Package depth packs a colour image, a 16-bit depth image and a pose into
// a single 8-bit video frame and back again.
//
// The colour image takes the left half of the frame and the depth payload
// the right half. The pose is drawn as macroblocks into the top left
// corner of the colour image.
package depth

import (
	"fmt"
	"sync"
	"time"

	"github.com/TheCacophonyProject/rgbd-codec/frame"
	"github.com/TheCacophonyProject/rgbd-codec/lut"
	"github.com/TheCacophonyProject/rgbd-codec/pose"
)

// transform moves depth codes in and out of the right half of a frame.
type transform interface {
	init() error
	encode(v *frame.Video, d *frame.Depth)
	decode(d *frame.Depth, v *frame.Video)
}

// Encoder converts between (colour, depth, pose) and transport frames for
// one stream. Tables are built once by Init, or on first use, and are only
// read afterwards, so a single Encoder may encode and decode from several
// goroutines once initialised.
type Encoder struct {
	conf    Config
	width   int
	height  int
	minCode uint16
	maxCode uint16

	poses *pose.Codec
	cache *lut.Cache
	t     transform
	hue   *hue

	initOnce sync.Once
	initErr  error
	logf     func(string)
}

// New returns an encoder for width x height colour and depth images.
func New(conf Config, width, height int) (*Encoder, error) {
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	if width <= 0 || height <= 0 || width%2 != 0 || height%2 != 0 {
		return nil, fmt.Errorf("frame size %dx%d must be positive and even", width, height)
	}
	layout, err := pose.NewLayout(conf.MacroblockSize, width, height)
	if err != nil {
		return nil, err
	}

	e := &Encoder{
		conf:    conf,
		width:   width,
		height:  height,
		minCode: uint16(conf.MinCode()),
		maxCode: uint16(conf.MaxCode()),
		poses:   pose.NewCodec(layout),
		cache:   lut.New(conf.CacheDir),
		logf:    func(string) {},
	}
	switch conf.Scheme {
	case Hue:
		e.hue = newHue(conf)
		e.t = e.hue
	case Triangle:
		e.t = newTriangle(conf, e.cache)
	case MultiWavelength:
		e.t = newMultiWavelength(conf)
	case Zhou:
		e.t = newZhou(conf)
	}
	return e, nil
}

// SetLogFunc sets where diagnostics from the encoder, its table cache and
// its pose codec go.
func (e *Encoder) SetLogFunc(f func(string)) {
	e.logf = f
	e.poses.SetLogFunc(f)
	e.cache.SetLogFunc(f)
}

// SetColorizer replaces the Hue scheme's colorizer. It has no effect on
// other schemes and must be called before Init.
func (e *Encoder) SetColorizer(c Colorizer) {
	if e.hue != nil {
		e.hue.colorizer = c
	}
}

// Init builds or loads the scheme's tables. It only does work the first
// time it is called.
func (e *Encoder) Init() error {
	e.initOnce.Do(func() {
		start := time.Now()
		e.initErr = e.t.init()
		if e.initErr == nil {
			e.logf(fmt.Sprintf("%v tables ready in %v", e.conf.Scheme, time.Since(start).Round(time.Millisecond)))
		}
	})
	return e.initErr
}

func (e *Encoder) mustInit() {
	if err := e.Init(); err != nil {
		panic(fmt.Sprintf("depth: %v encoder failed to initialise: %v", e.conf.Scheme, err))
	}
}

func (e *Encoder) Config() Config {
	return e.conf
}

func (e *Encoder) Scheme() Scheme {
	return e.conf.Scheme
}

// PixelFormat is the transport pixel format.
func (e *Encoder) PixelFormat() frame.PixelFormat {
	return e.conf.Scheme.PixelFormat()
}

// FrameSize returns the transport frame dimensions.
func (e *Encoder) FrameSize() (width, height int) {
	return 2 * e.width, e.height
}

// PoseLayout is where poses are drawn in the colour image.
func (e *Encoder) PoseLayout() pose.Layout {
	return e.poses.Layout()
}

// CheckDimensions panics unless rgb and d are the images this encoder was
// built for.
func (e *Encoder) CheckDimensions(rgb *frame.RGB, d *frame.Depth) {
	frame.CheckPair(rgb, d)
	if rgb.Width != e.width || rgb.Height != e.height {
		panic(fmt.Sprintf("depth: encoder is for %dx%d images, got %dx%d",
			e.width, e.height, rgb.Width, rgb.Height))
	}
}

// Encode returns a new transport frame holding rgb, d and p. An undefined
// pose blacks out the pose region. rgb is not modified.
func (e *Encoder) Encode(rgb *frame.RGB, d *frame.Depth, p pose.Pose) *frame.Video {
	v := new(frame.Video)
	e.EncodeInto(v, rgb, d, p)
	return v
}

// EncodeInto is Encode writing into dst, reusing its buffer.
func (e *Encoder) EncodeInto(dst *frame.Video, rgb *frame.RGB, d *frame.Depth, p pose.Pose) {
	e.mustInit()
	e.CheckDimensions(rgb, d)
	w, h := e.FrameSize()
	dst.Resize(e.PixelFormat(), w, h)
	frame.WriteColor(dst, rgb, e.poses.Encode(p))
	e.t.encode(dst, d)
}

// Decode splits a transport frame into new colour and depth images and
// the pose, if one could be read.
func (e *Encoder) Decode(v *frame.Video) (*frame.RGB, *frame.Depth, pose.Pose, bool) {
	rgb := new(frame.RGB)
	d := new(frame.Depth)
	p, ok := e.DecodeInto(rgb, d, v)
	return rgb, d, p, ok
}

// DecodeInto is Decode writing into rgb and d, resizing them as needed.
// The frame's colour range and colour space tags are forced to full range
// BT.601 first. Depth codes outside the valid range become 0 and the pose
// region of rgb is blacked out.
func (e *Encoder) DecodeInto(rgb *frame.RGB, d *frame.Depth, v *frame.Video) (pose.Pose, bool) {
	e.mustInit()
	v.ForceFullRange()
	if v.Format != e.PixelFormat() {
		panic(fmt.Sprintf("depth: %v decoder given a %v frame", e.conf.Scheme, v.Format))
	}
	v.CheckSideBySide(v.Format, e.width, e.height)

	frame.ReadColor(rgb, v)
	d.Resize(e.width, e.height)
	e.t.decode(d, v)
	e.threshold(d)
	return e.poses.Decode(rgb)
}

func (e *Encoder) threshold(d *frame.Depth) {
	for i, c := range d.Pix {
		if c < e.minCode || c > e.maxCode {
			d.Pix[i] = 0
		}
	}
}
