// Package device identifies this installation to the backend.
package device

import (
	"github.com/denisbrodbeck/machineid"
	"github.com/google/uuid"
)

var protectedID = machineid.ProtectedID

// ClientID returns a stable per-host identifier hashed with appID. Hosts
// without a readable machine id get a random id for the process lifetime.
func ClientID(appID string) string {
	id, err := protectedID(appID)
	if err != nil || id == "" {
		return uuid.NewString()
	}
	if len(id) > 32 {
		id = id[:32]
	}
	return id
}
