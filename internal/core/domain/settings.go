package domain

import "time"

// Settings are the workspace-wide build defaults.
type Settings struct {
	KeySeed             string
	Concurrency         int
	StepTimeout         time.Duration
	KeepGoing           bool
	Mode                BuildMode
	ParallelActionGraph bool
	CheckActionGraphs   bool
	Cache               CacheSettings
}

// CacheSettings configure the artifact cache tiers.
type CacheSettings struct {
	Dir            string
	ReadOnly       bool
	Disabled       bool
	Remote         string
	RemoteReadOnly bool
}

// Workspace is a discovered project: its root, cells, settings and build files.
type Workspace struct {
	Root       string
	Cells      map[string]string
	Settings   Settings
	Aliases    map[string]string
	BuildFiles []string
}
