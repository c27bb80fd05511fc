package domain

import "time"

// BuildRecord is what is remembered about a target's last successful build in this
// workspace. It carries the keys that decide whether the target can be skipped.
type BuildRecord struct {
	Target      string    `json:"target"`
	RuleKey     RuleKey   `json:"ruleKey"`
	ManifestKey RuleKey   `json:"manifestKey,omitzero"`
	DepFileKey  RuleKey   `json:"depFileKey,omitzero"`
	UsedInputs  []string  `json:"usedInputs,omitempty"`
	OutputHash  string    `json:"outputHash"`
	Timestamp   time.Time `json:"timestamp"`
}

// HasDepFile reports whether the record can serve a dependency file lookup.
func (r *BuildRecord) HasDepFile() bool {
	return !r.DepFileKey.IsZero() && !r.ManifestKey.IsZero()
}

// ArtifactMeta travels inside an artifact so that whoever fetches it can rebuild the
// target's record without running the rule.
type ArtifactMeta struct {
	Target      string   `json:"target"`
	RuleKey     RuleKey  `json:"ruleKey"`
	ManifestKey RuleKey  `json:"manifestKey,omitzero"`
	DepFileKey  RuleKey  `json:"depFileKey,omitzero"`
	UsedInputs  []string `json:"usedInputs,omitempty"`
}
