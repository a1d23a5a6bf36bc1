package common

import (
	uuid "github.com/nu7hatch/gouuid"
)

// GenUUID returns a random v4 uuid string, used for run ids and data handle keys.
func GenUUID() string {
	// uuid.NewV4 only fails if crypto/rand does, retry rather than surface it
	for {
		if id, err := uuid.NewV4(); err == nil {
			return id.String()
		}
	}
}
