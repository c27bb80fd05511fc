package config

import "time"

// Workfile represents the structure of the kiln.work.yaml configuration file.
type Workfile struct {
	Version  string            `yaml:"version" validate:"omitempty,oneof=1"`
	Root     string            `yaml:"root"`
	Cells    map[string]string `yaml:"cells" validate:"dive,keys,excludesall=/:#,endkeys,required"`
	Packages []string          `yaml:"packages" validate:"dive,required"`
	Aliases  map[string]string `yaml:"aliases" validate:"dive,keys,required,excludesall=/:#,endkeys,required"`
	Build    BuildConfig       `yaml:"build"`
	Cache    CacheConfig       `yaml:"cache"`
}

// BuildConfig holds the build defaults of a workspace.
type BuildConfig struct {
	KeySeed             string        `yaml:"keySeed"`
	Concurrency         int           `yaml:"concurrency" validate:"gte=0"`
	StepTimeout         time.Duration `yaml:"stepTimeout" validate:"gte=0"`
	KeepGoing           bool          `yaml:"keepGoing"`
	Mode                string        `yaml:"mode" validate:"omitempty,oneof=shallow deep populate"`
	ParallelActionGraph *bool         `yaml:"parallelActionGraph"`
	CheckActionGraphs   bool          `yaml:"checkActionGraphs"`
}

// CacheConfig configures the artifact cache tiers.
type CacheConfig struct {
	Dir        string `yaml:"dir"`
	Mode       string `yaml:"mode" validate:"omitempty,oneof=readwrite readonly"`
	Disabled   bool   `yaml:"disabled"`
	Remote     string `yaml:"remote" validate:"omitempty,hostname_port"`
	RemoteMode string `yaml:"remoteMode" validate:"omitempty,oneof=readwrite readonly"`
}

// Buildfile represents the structure of a package's kiln.yaml.
// Each rule holds its type, deps and flavors next to the arguments of its description.
type Buildfile struct {
	Rules map[string]map[string]any `yaml:"rules"`
}

// Keys of a rule entry that are not description arguments.
const (
	keyType    = "type"
	keyDeps    = "deps"
	keyFlavors = "flavors"
)

// sourceKeys name the arguments holding file paths and target references.
var sourceKeys = []string{"srcs", "src"}
