// Package runid generates identifiers for orchestrator runs when the
// caller of run_stage_test does not supply one.
package runid

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/phrazzld/ctgen/internal/runutil"
)

var suffixSource = rand.New(rand.NewSource(time.Now().UnixNano()))

// Generate returns a new run_id of the form "<adjective>-<noun>-<suffix>":
// a human-readable adjective-noun pair from runutil plus a short numeric
// suffix so concurrent runs started in the same process don't collide.
func Generate() string {
	return fmt.Sprintf("%s-%04d", runutil.GenerateRunName(), suffixSource.Intn(10000))
}
