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
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	arg "github.com/alexflint/go-arg"

	"github.com/TheCacophonyProject/rgbd-codec/depth"
	"github.com/TheCacophonyProject/rgbd-codec/frame"
	"github.com/TheCacophonyProject/rgbd-codec/headers"
	"github.com/TheCacophonyProject/rgbd-codec/loglimiter"
	"github.com/TheCacophonyProject/rgbd-codec/pipeline"
	"github.com/TheCacophonyProject/rgbd-codec/pose"
	"github.com/TheCacophonyProject/rgbd-codec/recorder"
	"github.com/TheCacophonyProject/rgbd-codec/testframes"
	"github.com/TheCacophonyProject/rgbd-codec/throttle"
)

const debugLogInterval = 10 * time.Second

var version = "<not set>"

type Args struct {
	ConfigFile  string `arg:"-c,--config" help:"path to configuration file"`
	Scheme      string `arg:"-s,--scheme" help:"override the configured depth scheme"`
	Frames      int    `arg:"-n,--frames" help:"override the number of frames to replay"`
	PrintHeader bool   `arg:"--print-header" help:"print the stream header and exit"`
	Timestamps  bool   `arg:"-t,--timestamps" help:"include timestamps in log output"`
	Verbose     bool   `arg:"-v,--verbose" help:"make logging more verbose"`
}

func (Args) Version() string {
	return version
}

func procArgs() Args {
	var args Args
	args.ConfigFile = "/etc/rgbd-codec.yaml"
	arg.MustParse(&args)
	return args
}

func main() {
	err := runMain()
	if err != nil {
		log.Fatal(err)
	}
}

func runMain() error {
	args := procArgs()

	if !args.Timestamps {
		log.SetFlags(0) // Removes default timestamp flag
	}

	log.Printf("running version: %s", version)
	conf, err := ParseConfigFiles(args.ConfigFile)
	if err != nil {
		return err
	}
	if err := applyArgs(conf, args); err != nil {
		return err
	}
	logConfig(conf)

	enc, err := depth.New(conf.Depth, conf.Stream.Width, conf.Stream.Height)
	if err != nil {
		return err
	}
	stream := headers.New(enc, conf.Stream.Fps)
	if args.PrintHeader {
		return stream.Write(os.Stdout)
	}

	limiter := loglimiter.New(debugLogInterval)
	limiter.SetVerbose(args.Verbose)
	enc.SetLogFunc(limiter.Debug)
	if err := enc.Init(); err != nil {
		return err
	}

	source := testframes.NewFrameMaker(conf.Stream.Width, conf.Stream.Height, conf.Stream.Fps)
	source.DropPoseEvery = conf.Replay.DropPoseEvery
	loop := pipeline.NewLoop(enc, source, conf.Stream.Fps)
	loop.SetLogFunc(limiter.Debug)
	loop.SetChannel(makeChannel(&conf.Replay))

	throttled := new(throttleCounter)
	if conf.Replay.Record {
		rec, err := newRecorder(conf, stream, throttled)
		if err != nil {
			return err
		}
		defer rec.StopRecording()
		loop.SetSink(recordingSink(rec))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Printf("replaying %d frames through %v", conf.Replay.Frames, enc.Scheme())
	start := time.Now()
	stats, err := loop.Run(ctx, conf.Replay.Frames)
	log.Printf("%v in %v", stats, time.Since(start).Round(time.Millisecond))
	if throttled.count > 0 {
		log.Printf("recording throttled %d times", throttled.count)
	}
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func applyArgs(conf *Config, args Args) error {
	if args.Scheme != "" {
		scheme, err := depth.ParseScheme(args.Scheme)
		if err != nil {
			return err
		}
		conf.Depth.Scheme = scheme
	}
	if args.Frames > 0 {
		conf.Replay.Frames = args.Frames
	}
	return conf.Validate()
}

func makeChannel(conf *ReplayConfig) pipeline.Channel {
	channels := []pipeline.Channel{pipeline.Lossless}
	if conf.NoiseAmplitude > 0 {
		channels = append(channels, pipeline.Noise(conf.NoiseAmplitude, time.Now().UnixNano()))
	}
	if conf.LimitedRange {
		channels = append(channels, pipeline.LimitedRange)
	}
	return pipeline.Chain(channels...)
}

// throttleCounter counts how often the recorder was throttled.
type throttleCounter struct {
	count int
}

func (tc *throttleCounter) WhenThrottled() {
	tc.count++
}

func newRecorder(conf *Config, stream *headers.StreamHeader, throttled *throttleCounter) (recorder.Recorder, error) {
	log.Println("deleting temp files")
	if err := recorder.DeleteTempFiles(conf.Recorder.OutputDir); err != nil {
		return nil, err
	}
	var rec recorder.Recorder = recorder.NewDepthRecorder(&conf.Recorder, stream)
	if err := rec.CheckCanRecord(); err != nil {
		return nil, err
	}
	if conf.Throttler.ApplyThrottling {
		rec = throttle.NewThrottledRecorder(rec, &conf.Throttler, throttled, stream)
	}
	return rec, nil
}

// recordingSink starts the recording on the first decoded frame so that
// its pose gives the recording's location.
func recordingSink(rec recorder.Recorder) pipeline.Sink {
	started := false
	return func(rgb *frame.RGB, d *frame.Depth, p pose.Pose, ok bool) error {
		if !started {
			if !ok {
				p = pose.Pose{}
			}
			if err := rec.StartRecording(p); err != nil {
				return err
			}
			started = true
		}
		return rec.WriteFrame(d)
	}
}

func logConfig(conf *Config) {
	log.Printf("stream: %dx%d at %d fps", conf.Stream.Width, conf.Stream.Height, conf.Stream.Fps)
	log.Printf("depth: %+v", conf.Depth)
	log.Printf("replay: %+v", conf.Replay)
	if conf.Replay.Record {
		log.Printf("output dir: %s", conf.Recorder.OutputDir)
		log.Printf("throttler: %+v", conf.Throttler)
	}
}
