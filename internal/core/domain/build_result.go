package domain

import "time"

// BuildStatus is the terminal state of a rule in one build.
type BuildStatus uint8

const (
	// StatusSuccess means the rule's outputs are available.
	StatusSuccess BuildStatus = iota
	// StatusFailure means the rule could not be built.
	StatusFailure
	// StatusCanceled means the rule was never attempted or was interrupted.
	StatusCanceled
	// StatusUnpopulated means no cached artifact existed while populating from the cache.
	StatusUnpopulated
)

// String returns the name used in build reports.
func (s BuildStatus) String() string {
	switch s {
	case StatusSuccess:
		return "SUCCESS"
	case StatusFailure:
		return "FAIL"
	case StatusCanceled:
		return "CANCELED"
	case StatusUnpopulated:
		return "UNPOPULATED"
	default:
		return "UNKNOWN"
	}
}

// SuccessKind tells how a successful rule obtained its outputs.
type SuccessKind uint8

const (
	// KindUnset is the kind of non-successful results.
	KindUnset SuccessKind = iota
	// BuiltLocally means the rule's steps ran.
	BuiltLocally
	// FetchedFromCache means the artifact was fetched under the rule key.
	FetchedFromCache
	// FetchedFromCacheDepFile means the artifact was fetched under the dependency file key.
	FetchedFromCacheDepFile
	// MatchingRuleKey means the outputs on disk were built under the same rule key.
	MatchingRuleKey
	// MatchingDepFileRuleKey means the outputs on disk were built under the same dependency file key.
	MatchingDepFileRuleKey
	// Noop means the rule has nothing to build.
	Noop
)

// String returns the name used in build reports.
func (k SuccessKind) String() string {
	switch k {
	case BuiltLocally:
		return "BUILT_LOCALLY"
	case FetchedFromCache:
		return "FETCHED_FROM_CACHE"
	case FetchedFromCacheDepFile:
		return "FETCHED_FROM_CACHE_DEP_FILE"
	case MatchingRuleKey:
		return "MATCHING_RULE_KEY"
	case MatchingDepFileRuleKey:
		return "MATCHING_DEP_FILE_RULE_KEY"
	case Noop:
		return "NOOP"
	default:
		return ""
	}
}

// IsFetched reports whether the outputs came from the artifact cache.
func (k SuccessKind) IsFetched() bool {
	return k == FetchedFromCache || k == FetchedFromCacheDepFile
}

// IsMatching reports whether the outputs already on disk were reused.
func (k SuccessKind) IsMatching() bool {
	return k == MatchingRuleKey || k == MatchingDepFileRuleKey
}

// CacheResultType classifies an artifact cache lookup.
type CacheResultType uint8

const (
	// CacheMiss means the artifact was not found.
	CacheMiss CacheResultType = iota
	// CacheHit means the artifact was found and copied.
	CacheHit
	// CacheError means the lookup failed. Errors are treated as misses by the engine.
	CacheError
	// CacheSkipped means no lookup was made.
	CacheSkipped
)

// String returns the lowercase type name used in metrics labels.
func (t CacheResultType) String() string {
	switch t {
	case CacheHit:
		return "hit"
	case CacheError:
		return "error"
	case CacheSkipped:
		return "skipped"
	default:
		return "miss"
	}
}

// CacheResult is the outcome of an artifact cache lookup.
type CacheResult struct {
	Type   CacheResultType
	Source string
	Err    error
}

// Hit returns a hit served by source.
func Hit(source string) CacheResult {
	return CacheResult{Type: CacheHit, Source: source}
}

// Miss returns a miss reported by source.
func Miss(source string) CacheResult {
	return CacheResult{Type: CacheMiss, Source: source}
}

// CacheErr returns a failed lookup reported by source.
func CacheErr(source string, err error) CacheResult {
	return CacheResult{Type: CacheError, Source: source, Err: err}
}

// BuildResult is the terminal outcome of one rule in one build.
type BuildResult struct {
	Target      BuildTarget
	Type        string
	Status      BuildStatus
	Kind        SuccessKind
	RuleKey     RuleKey
	DepFileKey  RuleKey
	Cache       CacheResult
	OutputPaths []string
	// Outputs maps output names to root-relative paths for rules with named outputs.
	Outputs  map[string]string
	Err      error
	Duration time.Duration
}

// IsSuccess reports whether the rule's outputs are available.
func (r *BuildResult) IsSuccess() bool {
	return r.Status == StatusSuccess
}

// Outcome returns the kind for successes and the status otherwise.
func (r *BuildResult) Outcome() string {
	if r.Status == StatusSuccess {
		return r.Kind.String()
	}
	return r.Status.String()
}
