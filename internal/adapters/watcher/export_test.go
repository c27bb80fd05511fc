package watcher

var (
	Relevant   = relevant
	ChangeKind = changeKind
)
