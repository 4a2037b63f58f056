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
	"fmt"
	"log"
	"time"

	arg "github.com/alexflint/go-arg"

	"github.com/TheCacophonyProject/rgbd-codec/depth"
	"github.com/TheCacophonyProject/rgbd-codec/lut"
)

var version = "<not set>"

type Args struct {
	ConfigFile string `arg:"-c,--config" help:"path to configuration file"`
	Scheme     string `arg:"-s,--scheme" help:"override the configured depth scheme"`
	Period     int    `arg:"-p,--period" help:"override the configured triangle period"`
	Verify     bool   `arg:"--verify" help:"check the cached tables without building them"`
	Timestamps bool   `arg:"-t,--timestamps" help:"include timestamps in log output"`
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
		log.SetFlags(0)
	}

	log.Printf("running version: %s", version)
	conf, err := ParseConfigFiles(args.ConfigFile)
	if err != nil {
		return err
	}
	if err := applyArgs(conf, args); err != nil {
		return err
	}

	cache := lut.New(conf.Depth.CacheDir)
	cache.SetLogFunc(logLine)
	if err := cache.DeleteTempFiles(); err != nil {
		return err
	}

	key, ok := TableKey(conf)
	if !ok {
		log.Printf("%v keeps no lookup tables", conf.Depth.Scheme)
		return nil
	}
	if conf.Depth.CacheDir == "" {
		return fmt.Errorf("cache-dir must be set to store lookup tables")
	}

	if args.Verify {
		return verify(cache, key)
	}
	return build(conf)
}

func applyArgs(conf *Config, args Args) error {
	if args.Scheme != "" {
		scheme, err := depth.ParseScheme(args.Scheme)
		if err != nil {
			return err
		}
		conf.Depth.Scheme = scheme
	}
	if args.Period > 0 {
		conf.Depth.TrianglePeriod = args.Period
	}
	return conf.Validate()
}

// TableKey names the tables the configured stream needs.
func TableKey(conf *Config) (lut.Key, bool) {
	return depth.TableKey(conf.Depth)
}

func verify(cache *lut.Cache, key lut.Key) error {
	sections, err := cache.Load(key)
	if err != nil {
		return fmt.Errorf("%s: %w", cache.Path(key), err)
	}
	for _, s := range sections {
		log.Printf("%s: %d entries", s.Name, s.Len())
	}
	log.Printf("%s is up to date", cache.Path(key))
	return nil
}

func build(conf *Config) error {
	enc, err := depth.New(conf.Depth, conf.Stream.Width, conf.Stream.Height)
	if err != nil {
		return err
	}
	enc.SetLogFunc(logLine)
	start := time.Now()
	if err := enc.Init(); err != nil {
		return err
	}
	key, _ := TableKey(conf)
	log.Printf("tables at %s after %v", lut.New(conf.Depth.CacheDir).Path(key), time.Since(start).Round(time.Millisecond))
	return nil
}

func logLine(s string) {
	log.Print(s)
}
