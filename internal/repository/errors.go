// Package repository implements the MySQL-backed token store and user
// directory behind the auth core. Driver failures are tagged with the
// StorageUnavailable class; row absence is returned as a nil record, never
// as an error.
package repository

import (
	"fmt"

	"github.com/iliyamo/user-auth-service/internal/auth"
)

// storageErr wraps a driver failure so errors.Is(err, ErrStorageUnavailable)
// holds for every store-level fault.
func storageErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %v", op, auth.ErrStorageUnavailable, err)
}
