package core

import (
	"errors"
	"io/fs"
)

// IsNotExist reports whether err means a path is absent. Adapters return
// *fs.PathError values, so the chain is unwrapped.
func IsNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}

// IgnoreNotExist returns nil if err only says the path is already gone.
func IgnoreNotExist(err error) error {
	if IsNotExist(err) {
		return nil
	}
	return err
}
