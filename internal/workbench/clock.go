package workbench

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Entity id prefixes. Ids are opaque and globally unique; the prefix only
// aids debuggability.
const (
	ProjectIDPrefix = "prj"
	StepIDPrefix    = "stp"
	AssetIDPrefix   = "ast"
	PersonaIDPrefix = "per"
)

// Clock abstracts time retrieval so business logic is deterministic in tests.
type Clock interface {
	Now() time.Time
}

// RealClock returns the actual current time.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now().UTC() }

// IDGenerator allocates a globally-unique string for a kind prefix.
type IDGenerator interface {
	NewID(prefix string) string
}

// UUIDGenerator produces prefixed random UUIDs.
type UUIDGenerator struct{}

func (UUIDGenerator) NewID(prefix string) string {
	return fmt.Sprintf("%s-%s", prefix, uuid.NewString())
}
