package hunt

import (
	"math"
	"time"
)

// bonusWindow is how quickly a team must reach the next node after its
// previous scan for the time bonus to apply.
const bonusWindow = 10 * time.Minute

// scanPoints computes the award for scanning node. The base reward is
// multiplied when time bonuses are enabled and the team's previous scan is
// recent enough; the result rounds to the nearest integer.
func scanPoints(node Node, game Game, lastScanAt, now time.Time) int {
	if game.TimeBonusEnabled && !lastScanAt.IsZero() && now.Sub(lastScanAt) < bonusWindow {
		return int(math.Round(float64(node.Points) * game.TimeBonusMultiplier))
	}
	return node.Points
}

// hintDeduction is half the node's base reward, rounded down. The cost is
// fixed regardless of when the hint is requested.
func hintDeduction(node Node) int {
	return node.Points / 2
}
