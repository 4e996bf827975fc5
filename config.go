package main

import "time"

// Application constants for the viewer and the headless runner. Physical
// defaults live in the field package.
const (
	windowScale           = 2
	maxWindowSide         = 1024
	defaultTPS            = 60.0
	defaultTicksPerFrame  = 4
	ticksPerFrameStep     = 1
	minTicksPerFrame      = 1
	maxTicksPerFrame      = 64
	defaultHeadlessTicks  = 5000
	defaultRecordInterval = 100
	energyTraceHeight     = 12
	energyTraceWidth      = 72
	syntheticBandPeriod   = 600
	envPrefix             = "FIELDSIM_"
	probeTimeout          = 30 * time.Second
	recentLogRows         = 5
)
