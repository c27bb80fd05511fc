package watcher_test

import (
	"os"

	"go.trai.ch/kiln/internal/core/domain"
)

func writeFile(path string) error {
	return os.WriteFile(path, []byte("changed"), domain.FilePerm)
}
