package shuffle

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// freeSpace returns the free space of the file system holding path
// it only support Unix-like system
func freeSpace(path string) (uint64, error) {
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return 0, err
	}
	return stat.Bavail * uint64(stat.Bsize), nil
}

// ensureSpace fails when dir cannot hold need more bytes.
func ensureSpace(dir string, need uint64) error {
	free, err := freeSpace(dir)
	if err != nil {
		return fmt.Errorf("stat spill dir %s: %w", dir, err)
	}
	if free < need {
		return fmt.Errorf("spill dir %s: %d bytes free, %d needed", dir, free, need)
	}
	return nil
}
