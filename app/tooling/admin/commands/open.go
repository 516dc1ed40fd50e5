package commands

import (
	"fmt"

	"github.com/isschain/blockchain/foundation/blockchain/storage/disk"
)

// openWritable opens the database for maintenance. The node must be stopped
// since pebble holds a lock on the directory.
func openWritable(dbPath string) (*disk.Disk, error) {
	db, err := disk.New(dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", dbPath, err)
	}

	return db, nil
}
