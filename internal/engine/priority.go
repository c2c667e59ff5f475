package engine

import (
	"time"

	"github.com/alderkin/trellis/internal/model"
)

// Scoring weights for BasePriority. The raw priority level dominates; urgency
// can outweigh it only near or past the due date.
const (
	priorityLevelWeight = 15 // base = (6 - level) * weight, range 15-75
	depthBonusPerLevel  = 2
	depthBonusCap       = 8
	blockingBonusCap    = 15
	dependentWeight     = 6
	childWeight         = 2
	inProgressBonus     = 10
)

// BasePriority computes the effective priority score for a single node in
// isolation, before any boost propagation.
//
// depth is the node's distance from its hierarchy root (root = 0),
// dependentCount the number of dependency edges targeting the node (tasks it
// blocks), and childCount its number of direct children. Done and cancelled
// nodes always score zero, regardless of every other input.
func BasePriority(n *model.Node, depth, dependentCount, childCount int, boost float64, now time.Time) float64 {
	if n.Status.Terminal() {
		return 0
	}

	base := float64((6 - n.Priority) * priorityLevelWeight)
	urgency := UrgencyScore(n.EffectiveDue(), now)

	depthBonus := float64(depth * depthBonusPerLevel)
	if depthBonus > depthBonusCap {
		depthBonus = depthBonusCap
	}

	blockingBonus := float64(dependentCount*dependentWeight + childCount*childWeight)
	if blockingBonus > blockingBonusCap {
		blockingBonus = blockingBonusCap
	}

	estimateBonus := 0.0
	switch m := n.EstimatedMinutes; {
	case m > 0 && m <= 30:
		estimateBonus = 8
	case m > 30 && m <= 60:
		estimateBonus = 5
	case m > 60 && m <= 120:
		estimateBonus = 2
	}

	statusBonus := 0.0
	if n.Status == model.StatusInProgress {
		statusBonus = inProgressBonus
	}

	return base + urgency + depthBonus + blockingBonus + estimateBonus + statusBonus + boost
}
