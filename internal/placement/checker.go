// Package placement is the call-site glue between the host's placement
// validation and the override evaluator.
package placement

import (
	"go.uber.org/zap"

	"github.com/freebuild/server/internal/rules"
)

// Rule is the host's baseline buildability check, consulted whenever the
// override defers.
type Rule func(h rules.Host, t rules.Tile) bool

// Checker answers the host's "can a building go on this tile" question.
type Checker struct {
	eval     *rules.Evaluator
	baseline Rule
}

func NewChecker(eval *rules.Evaluator, baseline Rule, log *zap.Logger) *Checker {
	log.Debug("placement override installed")
	return &Checker{eval: eval, baseline: baseline}
}

// CanBuild returns the final buildability answer for one tile.
func (c *Checker) CanBuild(h rules.Host, t rules.Tile) bool {
	switch c.eval.Evaluate(h, t) {
	case rules.Buildable:
		return true
	case rules.NotBuildable:
		return false
	default:
		return c.baseline(h, t)
	}
}

// Baseline is a conservative stand-in for the host's own rule: a tile is
// buildable when it is passable and unoccupied. Real hosts supply theirs.
func Baseline(h rules.Host, t rules.Tile) bool {
	return h.TilePassable(t) && !h.TileOccupiedForPlacement(t)
}
