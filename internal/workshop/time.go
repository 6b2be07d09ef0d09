package workshop

import (
	"math/rand/v2"
	"time"

	"workshop/api/internal/util"
)

// timeNow, newID and placement are package-level so tests can pin them.
var (
	timeNow = time.Now
	newID   = func() string { return util.NewID("item") }

	placement = func() (float64, float64) {
		return rand.Float64() * placementWidth, rand.Float64() * placementHeight
	}
)

const (
	placementWidth  = 600
	placementHeight = 400
)
