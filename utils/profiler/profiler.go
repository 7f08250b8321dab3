// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package profiler periodically captures CPU, heap and mutex profiles of the
// running process into a directory, keeping a bounded number of old ones.
package profiler

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"runtime/pprof"
	"time"

	"github.com/luxfi/log"
	"golang.org/x/sync/errgroup"

	"github.com/luxfi/bridge/utils/perms"
)

const (
	cpuProfileFile  = "cpu.profile"
	memProfileFile  = "mem.profile"
	lockProfileFile = "lock.profile"
)

var (
	errCPUProfilerRunning    = errors.New("cpu profiler already running")
	errCPUProfilerNotRunning = errors.New("cpu profiler doesn't exist")
	errInvalidFrequency      = errors.New("profile frequency must be positive")
	errInvalidMaxNumFiles    = errors.New("max number of profile files must be positive")
	errMissingMutexProfile   = errors.New("mutex profile not found")
)

// Config for the continuous profiler.
type Config struct {
	Dir         string        `json:"dir"`
	Enabled     bool          `json:"enabled"`
	Freq        time.Duration `json:"freq"`
	MaxNumFiles int           `json:"maxNumFiles"`
}

func (c Config) Verify() error {
	if !c.Enabled {
		return nil
	}
	switch {
	case c.Freq <= 0:
		return errInvalidFrequency
	case c.MaxNumFiles <= 0:
		return errInvalidMaxNumFiles
	default:
		return nil
	}
}

// Continuous writes a fresh set of profiles every Freq. On each rotation the
// previous profiles are renamed with an increasing numeric suffix.
type Continuous struct {
	log         log.Logger
	dir         string
	freq        time.Duration
	maxNumFiles int

	cpuProfileName  string
	memProfileName  string
	lockProfileName string
	cpuProfile      *os.File
}

func NewContinuous(config Config, log log.Logger) *Continuous {
	return &Continuous{
		log:             log,
		dir:             config.Dir,
		freq:            config.Freq,
		maxNumFiles:     config.MaxNumFiles,
		cpuProfileName:  filepath.Join(config.Dir, cpuProfileFile),
		memProfileName:  filepath.Join(config.Dir, memProfileFile),
		lockProfileName: filepath.Join(config.Dir, lockProfileFile),
	}
}

// Dispatch profiles until ctx is done. The profiles covering the final period
// are written before it returns.
func (p *Continuous) Dispatch(ctx context.Context) error {
	if err := os.MkdirAll(p.dir, perms.ReadWriteExecute); err != nil {
		return err
	}

	t := time.NewTicker(p.freq)
	defer t.Stop()

	for {
		if err := p.startCPUProfiler(); err != nil {
			return err
		}

		select {
		case <-ctx.Done():
			return p.stop()
		case <-t.C:
			if err := p.stop(); err != nil {
				return err
			}
		}

		if err := p.rotate(); err != nil {
			return err
		}
		p.log.Debug("rotated profiles",
			log.String("dir", p.dir),
		)
	}
}

func (p *Continuous) startCPUProfiler() error {
	if p.cpuProfile != nil {
		return errCPUProfilerRunning
	}

	file, err := perms.Create(p.cpuProfileName, perms.ReadWrite)
	if err != nil {
		return err
	}
	if err := pprof.StartCPUProfile(file); err != nil {
		_ = file.Close()
		return err
	}
	p.cpuProfile = file
	return nil
}

func (p *Continuous) stopCPUProfiler() error {
	if p.cpuProfile == nil {
		return errCPUProfilerNotRunning
	}

	pprof.StopCPUProfile()
	err := p.cpuProfile.Close()
	p.cpuProfile = nil
	return err
}

func (p *Continuous) memoryProfile() error {
	file, err := perms.Create(p.memProfileName, perms.ReadWrite)
	if err != nil {
		return err
	}
	defer file.Close()

	runtime.GC()
	return pprof.WriteHeapProfile(file)
}

func (p *Continuous) lockProfile() error {
	profile := pprof.Lookup("mutex")
	if profile == nil {
		return errMissingMutexProfile
	}

	file, err := perms.Create(p.lockProfileName, perms.ReadWrite)
	if err != nil {
		return err
	}
	defer file.Close()

	return profile.WriteTo(file, 0)
}

func (p *Continuous) stop() error {
	g := errgroup.Group{}
	g.Go(p.stopCPUProfiler)
	g.Go(p.memoryProfile)
	g.Go(p.lockProfile)
	return g.Wait()
}

func (p *Continuous) rotate() error {
	g := errgroup.Group{}
	g.Go(func() error { return rotate(p.cpuProfileName, p.maxNumFiles) })
	g.Go(func() error { return rotate(p.memProfileName, p.maxNumFiles) })
	g.Go(func() error { return rotate(p.lockProfileName, p.maxNumFiles) })
	return g.Wait()
}

// rotate shifts name.i to name.i+1, dropping name.maxNumFiles, then moves
// name to name.1.
func rotate(name string, maxNumFiles int) error {
	for i := maxNumFiles - 1; i > 0; i-- {
		src := fmt.Sprintf("%s.%d", name, i)
		dst := fmt.Sprintf("%s.%d", name, i+1)
		if err := renameIfExists(src, dst); err != nil {
			return err
		}
	}
	return renameIfExists(name, name+".1")
}

func renameIfExists(src, dst string) error {
	if _, err := os.Stat(src); errors.Is(err, os.ErrNotExist) {
		return nil
	} else if err != nil {
		return err
	}
	return os.Rename(src, dst)
}
