package main

import (
	"log"
	"os"
	"runtime/pprof"
	"sync"
	"time"
)

// startCPUProfile begins writing a CPU profile to path. When limit is
// positive the profile stops by itself after that long; the returned stop
// function is safe to call more than once.
func startCPUProfile(path string, limit time.Duration) (func(), error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	if err := pprof.StartCPUProfile(f); err != nil {
		f.Close()
		return nil, err
	}
	var once sync.Once
	stop := func() {
		once.Do(func() {
			pprof.StopCPUProfile()
			_ = f.Close()
			log.Printf("CPU profile written to %s", path)
		})
	}
	if limit > 0 {
		time.AfterFunc(limit, stop)
	}
	return stop, nil
}
