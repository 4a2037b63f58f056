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

// Package headers holds the per deployment contract between the encoding
// and decoding ends of a stream.
package headers

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v1"
	yamlv2 "gopkg.in/yaml.v2"

	"github.com/TheCacophonyProject/rgbd-codec/depth"
	"github.com/TheCacophonyProject/rgbd-codec/frame"
)

// Header keys.
const (
	Scheme      = "scheme"
	PixelFormat = "pixel-format"
	XResolution = "res-x"
	YResolution = "res-y"
	FPS         = "fps"
	DepthUnits  = "depth-units"
	MinDepth    = "min-depth"
	MaxDepth    = "max-depth"
	ColorRange  = "color-range"
)

// StreamHeader describes a stream of transport frames. Both ends have to
// agree on all of it before the first frame. Width and Height are the
// colour and depth image size, not the transport frame size.
type StreamHeader struct {
	Scheme      depth.Scheme
	PixelFormat frame.PixelFormat
	Width       int
	Height      int
	Fps         int
	DepthUnits  float64
	MinDepth    float64
	MaxDepth    float64
	ColorRange  frame.ColorRange
}

// New returns the header for frames produced by e at fps.
func New(e *depth.Encoder, fps int) *StreamHeader {
	conf := e.Config()
	w, h := e.FrameSize()
	return &StreamHeader{
		Scheme:      conf.Scheme,
		PixelFormat: e.PixelFormat(),
		Width:       w / 2,
		Height:      h,
		Fps:         fps,
		DepthUnits:  conf.DepthUnits,
		MinDepth:    conf.MinDepth,
		MaxDepth:    conf.MaxDepth,
		ColorRange:  frame.RangeFull,
	}
}

// ResX implements cptvframe.CameraSpec.
func (h *StreamHeader) ResX() int {
	return h.Width
}

// ResY implements cptvframe.CameraSpec.
func (h *StreamHeader) ResY() int {
	return h.Height
}

// FPS implements cptvframe.CameraSpec.
func (h *StreamHeader) FPS() int {
	return h.Fps
}

// Brand and Model describe the stream in CPTV recordings.
func (h *StreamHeader) Brand() string {
	return "rgbd-codec"
}

func (h *StreamHeader) Model() string {
	return fmt.Sprintf("%v/%v", h.Scheme, h.PixelFormat)
}

// Check returns an error describing the first way in which the stream
// differs from what e expects.
func (h *StreamHeader) Check(e *depth.Encoder) error {
	want := New(e, h.Fps)
	switch {
	case h.Scheme != want.Scheme:
		return fmt.Errorf("stream uses the %v scheme, decoder expects %v", h.Scheme, want.Scheme)
	case h.PixelFormat != want.PixelFormat:
		return fmt.Errorf("stream pixel format is %v, decoder expects %v", h.PixelFormat, want.PixelFormat)
	case h.Width != want.Width || h.Height != want.Height:
		return fmt.Errorf("stream images are %dx%d, decoder expects %dx%d", h.Width, h.Height, want.Width, want.Height)
	case h.DepthUnits != want.DepthUnits || h.MinDepth != want.MinDepth || h.MaxDepth != want.MaxDepth:
		return errors.New("stream depth envelope differs from the decoder's")
	case h.ColorRange != frame.RangeFull:
		return fmt.Errorf("stream color range must be full, not %v", h.ColorRange)
	}
	return nil
}

type headerLines struct {
	Scheme      string  `yaml:"scheme"`
	PixelFormat string  `yaml:"pixel-format"`
	ResX        int     `yaml:"res-x"`
	ResY        int     `yaml:"res-y"`
	FPS         int     `yaml:"fps"`
	DepthUnits  float64 `yaml:"depth-units"`
	MinDepth    float64 `yaml:"min-depth"`
	MaxDepth    float64 `yaml:"max-depth"`
	ColorRange  string  `yaml:"color-range"`
}

// Write sends the header as YAML lines followed by an empty line.
func (h *StreamHeader) Write(w io.Writer) error {
	out, err := yamlv2.Marshal(headerLines{
		Scheme:      h.Scheme.String(),
		PixelFormat: h.PixelFormat.String(),
		ResX:        h.Width,
		ResY:        h.Height,
		FPS:         h.Fps,
		DepthUnits:  h.DepthUnits,
		MinDepth:    h.MinDepth,
		MaxDepth:    h.MaxDepth,
		ColorRange:  h.ColorRange.String(),
	})
	if err != nil {
		return err
	}
	out = append(out, '\n')
	_, err = w.Write(out)
	return err
}

func Read(reader *bufio.Reader) (*StreamHeader, error) {
	var buf bytes.Buffer
	for {
		line, err := reader.ReadString(byte('\n'))
		if err != nil {
			return nil, err
		}
		if strings.Trim(line, " ") == "\n" {
			break
		}
		buf.WriteString(line)
	}
	h := make(map[string]interface{})
	err := yaml.Unmarshal(buf.Bytes(), &h)
	if err != nil {
		return nil, err
	}

	scheme, err := depth.ParseScheme(toStr(h[Scheme]))
	if err != nil {
		return nil, err
	}
	format, err := frame.ParsePixelFormat(toStr(h[PixelFormat]))
	if err != nil {
		return nil, err
	}
	var colorRange frame.ColorRange
	switch toStr(h[ColorRange]) {
	case frame.RangeFull.String():
		colorRange = frame.RangeFull
	case frame.RangeLimited.String():
		colorRange = frame.RangeLimited
	}
	return &StreamHeader{
		Scheme:      scheme,
		PixelFormat: format,
		Width:       toInt(h[XResolution]),
		Height:      toInt(h[YResolution]),
		Fps:         toInt(h[FPS]),
		DepthUnits:  toFloat(h[DepthUnits]),
		MinDepth:    toFloat(h[MinDepth]),
		MaxDepth:    toFloat(h[MaxDepth]),
		ColorRange:  colorRange,
	}, nil
}

func toInt(v interface{}) int {
	out, ok := v.(int)
	if !ok {
		return 0
	}
	return out
}

func toFloat(v interface{}) float64 {
	switch out := v.(type) {
	case float64:
		return out
	case int:
		return float64(out)
	}
	return 0
}

func toStr(v interface{}) string {
	out, ok := v.(string)
	if !ok {
		return ""
	}
	return out
}
