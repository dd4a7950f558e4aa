package scanner

import "github.com/yourusername/prop-scout/internal/models"

// ResolveConflicts removes contradictory picks from a batch. Picks are
// grouped by statistic plus subject label (statistic alone for match-level
// picks, which have one subject per fixture anyway). A group holding both an
// over and an under is a logical contradiction: only the single
// highest-probability pick survives. A group with one side represented keeps
// every pick, even across different thresholds. Output order is not
// guaranteed; callers re-sort.
func ResolveConflicts(preds []models.Prediction) []models.Prediction {
	groups := make(map[string][]models.Prediction)
	order := make([]string, 0, len(preds))
	for _, p := range preds {
		key := groupKey(p)
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], p)
	}

	out := make([]models.Prediction, 0, len(preds))
	for _, key := range order {
		group := groups[key]
		if !hasBothSides(group) {
			out = append(out, group...)
			continue
		}
		best := group[0]
		for _, p := range group[1:] {
			if p.Probability > best.Probability {
				best = p
			}
		}
		out = append(out, best)
	}
	return out
}

func groupKey(p models.Prediction) string {
	if p.Type == models.TypePlayer {
		return string(p.StatKey) + "|" + p.SubjectLabel
	}
	return string(p.StatKey)
}

func hasBothSides(group []models.Prediction) bool {
	var over, under bool
	for _, p := range group {
		switch p.Side {
		case models.SideOver:
			over = true
		case models.SideUnder:
			under = true
		}
	}
	return over && under
}
