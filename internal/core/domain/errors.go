package domain

import "go.trai.ch/zerr"

var (
	// ErrRecordParseFailed is returned when a fact record is not valid YAML.
	ErrRecordParseFailed = zerr.New("failed to parse fact record")

	// ErrRecordShape is returned when a fact record is neither a mapping nor a sequence of single-key mappings.
	ErrRecordShape = zerr.New("fact record must be a mapping or a sequence of single-key mappings")

	// ErrUnknownRecordKey is returned when a fact record contains a key that names no fact category.
	ErrUnknownRecordKey = zerr.New("unknown fact record key")

	// ErrDuplicateRecordKey is returned when a fact record names the same category twice.
	ErrDuplicateRecordKey = zerr.New("duplicate fact record key")

	// ErrRecordValueNotSequence is returned when a fact category is not given as a sequence.
	ErrRecordValueNotSequence = zerr.New("fact category value must be a sequence")

	// ErrMalformedName is returned when a fact name is not a scalar.
	ErrMalformedName = zerr.New("fact name must be a scalar")

	// ErrMalformedMember is returned when a member fact is not a [holder, member] pair.
	ErrMalformedMember = zerr.New("member fact must be a [holder, member] pair")

	// ErrRecordReadFailed is returned when a fact record file cannot be read.
	ErrRecordReadFailed = zerr.New("failed to read fact record")

	// ErrGraphCorrupt is returned when the dependency graph indexes disagree with each other.
	ErrGraphCorrupt = zerr.New("dependency graph is corrupt")

	// ErrUnitAlreadyExists is returned when attempting to add a unit with a name that already exists.
	ErrUnitAlreadyExists = zerr.New("unit already exists")

	// ErrUnitNotFound is returned when a requested unit is not part of the workspace.
	ErrUnitNotFound = zerr.New("unit not found")

	// ErrMissingUnitName is returned when a unit in the manifest has no name.
	ErrMissingUnitName = zerr.New("missing unit name")

	// ErrInvalidUnitName is returned when a unit name contains invalid characters.
	ErrInvalidUnitName = zerr.New("unit name can only contain alphanumeric characters, dots, hyphens and underscores")

	// ErrMissingRecordPath is returned when a unit in the manifest has no record path.
	ErrMissingRecordPath = zerr.New("missing record path")

	// ErrNoTargetsSpecified is returned when a command needs at least one unit or external path.
	ErrNoTargetsSpecified = zerr.New("no units or external paths specified")

	// ErrStoreCreateFailed is returned when the state store directory cannot be created.
	ErrStoreCreateFailed = zerr.New("failed to create state store directory")

	// ErrStoreReadFailed is returned when the build info cannot be read.
	ErrStoreReadFailed = zerr.New("failed to read build info")

	// ErrStoreUnmarshalFailed is returned when the build info cannot be unmarshaled.
	ErrStoreUnmarshalFailed = zerr.New("failed to unmarshal build info")

	// ErrStoreMarshalFailed is returned when the build info cannot be marshaled.
	ErrStoreMarshalFailed = zerr.New("failed to marshal build info")

	// ErrStoreWriteFailed is returned when the build info cannot be written.
	ErrStoreWriteFailed = zerr.New("failed to write build info")

	// ErrConfigReadFailed is returned when the manifest cannot be read.
	ErrConfigReadFailed = zerr.New("failed to read config file")

	// ErrConfigParseFailed is returned when the manifest cannot be parsed.
	ErrConfigParseFailed = zerr.New("failed to parse config file")

	// ErrConfigNotFound is returned when no manifest is found walking up from the working directory.
	ErrConfigNotFound = zerr.New("could not find ripple.yaml")

	// ErrInputResolutionFailed is returned when source globs cannot be resolved.
	ErrInputResolutionFailed = zerr.New("failed to resolve sources")

	// ErrFileOpenFailed is returned when a file cannot be opened.
	ErrFileOpenFailed = zerr.New("failed to open file")

	// ErrFileHashFailed is returned when hashing a file fails.
	ErrFileHashFailed = zerr.New("failed to hash file content")

	// ErrPlanFailed is returned when the recompilation plan cannot be computed.
	ErrPlanFailed = zerr.New("failed to compute plan")

	// ErrCommitFailed is returned when the state of a plan cannot be stored.
	ErrCommitFailed = zerr.New("failed to commit plan")

	// ErrWatchFailed is returned when the file watcher cannot be started.
	ErrWatchFailed = zerr.New("failed to watch workspace")
)
