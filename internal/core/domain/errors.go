package domain

import "go.trai.ch/zerr"

var (
	// ErrInvalidTarget is returned when a build target string cannot be parsed.
	ErrInvalidTarget = zerr.New("invalid build target")

	// ErrInvalidRuleName is returned when a rule name contains invalid characters.
	ErrInvalidRuleName = zerr.New("invalid rule name")

	// ErrTargetAlreadyExists is returned when two target nodes share the same identity.
	ErrTargetAlreadyExists = zerr.New("target already exists")

	// ErrMissingDependency is returned when a node references a dependency that doesn't exist in the graph.
	ErrMissingDependency = zerr.New("missing dependency")

	// ErrCycleDetected is returned when a cycle is detected in the target graph.
	ErrCycleDetected = zerr.New("cycle detected")

	// ErrTargetNotFound is returned when a requested target is not found in the graph.
	ErrTargetNotFound = zerr.New("target not found")

	// ErrNoTargetsSpecified is returned when no targets are specified for the build command.
	ErrNoTargetsSpecified = zerr.New("no targets specified")

	// ErrUnsupportedArgument is returned when a target node argument has a type that cannot be represented.
	ErrUnsupportedArgument = zerr.New("unsupported argument value")

	// ErrUnfoldableField is returned when a rule field value cannot be folded into a rule key.
	ErrUnfoldableField = zerr.New("field value cannot be folded into a rule key")

	// ErrInvalidRule is returned when a rule is constructed with inconsistent attributes.
	ErrInvalidRule = zerr.New("invalid rule")

	// ErrUndeclaredSourceDep is returned when a rule consumes the output of a target it does not depend on.
	ErrUndeclaredSourceDep = zerr.New("source refers to an undeclared dependency")

	// ErrUnknownOutput is returned when a source path names an output its rule does not declare.
	ErrUnknownOutput = zerr.New("unknown output")

	// ErrUnknownRuleType is returned when no description is registered for a node type.
	ErrUnknownRuleType = zerr.New("unknown rule type")

	// ErrDuplicateRuleType is returned when two descriptions register the same type tag.
	ErrDuplicateRuleType = zerr.New("duplicate rule type")

	// ErrInvalidArgument is returned when a description rejects a node argument.
	ErrInvalidArgument = zerr.New("invalid rule argument")

	// ErrTransformFailed is returned when a target node could not be transformed into a rule.
	ErrTransformFailed = zerr.New("failed to create rule")

	// ErrActionGraphMismatch is returned when a cached action graph differs from a freshly built one.
	ErrActionGraphMismatch = zerr.New("cached action graph does not match a fresh build")

	// ErrRuleKeyFailed is returned when a rule key cannot be computed.
	ErrRuleKeyFailed = zerr.New("failed to compute rule key")

	// ErrInvalidRuleKey is returned when a rule key string cannot be decoded.
	ErrInvalidRuleKey = zerr.New("invalid rule key")

	// ErrInvalidBuildMode is returned when a build mode name is not recognised.
	ErrInvalidBuildMode = zerr.New("invalid build mode, expected 'shallow', 'deep' or 'populate'")

	// ErrBuildFailed is returned when at least one requested target did not build successfully.
	ErrBuildFailed = zerr.New("build failed")

	// ErrStepFailed is returned when a build step exits unsuccessfully.
	ErrStepFailed = zerr.New("build step failed")

	// ErrStepTimeout is returned when a build step exceeds the configured timeout.
	ErrStepTimeout = zerr.New("build step timed out")

	// ErrBuildCanceled is attached to rules that did not run because the build was interrupted.
	ErrBuildCanceled = zerr.New("build canceled")

	// ErrDependencyFailed is attached to rules that did not run because a dependency failed.
	ErrDependencyFailed = zerr.New("dependency failed")

	// ErrOutputMissing is returned when a rule finished without producing a declared output.
	ErrOutputMissing = zerr.New("declared output was not produced")

	// ErrOutputPathOutsideRoot is returned when an output path is outside the project root.
	ErrOutputPathOutsideRoot = zerr.New("output path is outside project root")

	// ErrInputNotFound is returned when a declared input file or directory is not found.
	ErrInputNotFound = zerr.New("input not found")

	// ErrDepFileReadFailed is returned when a rule's dependency file cannot be read.
	ErrDepFileReadFailed = zerr.New("failed to read dependency file")

	// ErrUndeclaredInput is returned when a dependency file lists a path the rule did not declare.
	ErrUndeclaredInput = zerr.New("dependency file lists an undeclared input")

	// ErrArtifactCorrupt is returned when a cached artifact cannot be unpacked.
	ErrArtifactCorrupt = zerr.New("cached artifact is corrupt")

	// ErrArtifactPackFailed is returned when outputs cannot be packed into an artifact.
	ErrArtifactPackFailed = zerr.New("failed to pack artifact")

	// ErrCacheMiss is returned when a requested artifact is not found in the cache.
	ErrCacheMiss = zerr.New("cache miss")

	// ErrCacheReadOnly is returned when storing into a read-only cache.
	ErrCacheReadOnly = zerr.New("cache is read-only")

	// ErrRecordStoreOpenFailed is returned when the build record store cannot be opened.
	ErrRecordStoreOpenFailed = zerr.New("failed to open build record store")

	// ErrRecordReadFailed is returned when a build record cannot be read.
	ErrRecordReadFailed = zerr.New("failed to read build record")

	// ErrRecordWriteFailed is returned when a build record cannot be written.
	ErrRecordWriteFailed = zerr.New("failed to write build record")

	// ErrConfigReadFailed is returned when the config file cannot be read.
	ErrConfigReadFailed = zerr.New("failed to read config file")

	// ErrConfigParseFailed is returned when the config file cannot be parsed.
	ErrConfigParseFailed = zerr.New("failed to parse config file")

	// ErrConfigTooLarge is returned when a config file exceeds the size limit.
	ErrConfigTooLarge = zerr.New("config file is too large")

	// ErrConfigInvalid is returned when the config file fails validation.
	ErrConfigInvalid = zerr.New("invalid config file")

	// ErrConfigNotFound is returned when the config file cannot be found.
	ErrConfigNotFound = zerr.New("could not find kiln.yaml or kiln.work.yaml")

	// ErrUnknownAlias is returned when a requested name is neither a target nor an alias.
	ErrUnknownAlias = zerr.New("unknown alias")

	// ErrWatchFailed is returned when the workspace cannot be watched for changes.
	ErrWatchFailed = zerr.New("failed to watch workspace")

	// ErrStateDumpFailed is returned when the distributed state dump cannot be encoded or decoded.
	ErrStateDumpFailed = zerr.New("failed to process distributed state dump")

	// ErrFailedToGetRoot is returned when the project root path cannot be determined.
	ErrFailedToGetRoot = zerr.New("failed to get absolute path of project root")

	// ErrFailedToCleanOutput is returned when cleaning an output directory fails.
	ErrFailedToCleanOutput = zerr.New("failed to clean output")

	// ErrFileOpenFailed is returned when a file cannot be opened.
	ErrFileOpenFailed = zerr.New("failed to open file")

	// ErrFileHashFailed is returned when hashing a file fails.
	ErrFileHashFailed = zerr.New("failed to hash file content")

	// ErrPathStatFailed is returned when stating a path fails.
	ErrPathStatFailed = zerr.New("failed to stat path")
)
