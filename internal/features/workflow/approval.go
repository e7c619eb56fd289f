package workflow

import "sort"

// approvalOutcome is the result of matching recorded decisions against
// an approval matrix.
type approvalOutcome struct {
	Satisfied bool
	Rejected  bool
	NextLevel int // first unsatisfied level, 0 when satisfied or rejected
}

// evaluateApprovals decides whether a gated step may complete.
//
// Sequential matrices consider level n only after level n-1 is fully
// resolved; a rejection at a level currently under consideration forces
// the step outcome to rejected. Unanimous levels need every listed user
// to approve; otherwise a single approval suffices. Levels without an
// explicit user list are open role pools, one approval resolves them in
// either mode.
func evaluateApprovals(matrix *ApprovalMatrix, decisions []ApprovalDecision) approvalOutcome {
	if matrix == nil || len(matrix.Levels) == 0 {
		return approvalOutcome{Satisfied: true}
	}

	levels := append([]ApprovalLevel(nil), matrix.Levels...)
	sort.Slice(levels, func(i, j int) bool { return levels[i].Level < levels[j].Level })

	for _, level := range levels {
		rejected, satisfied := resolveLevel(level, decisions, matrix.RequiresUnanimous)
		if rejected {
			return approvalOutcome{Rejected: true}
		}
		if !satisfied {
			if matrix.RequiresSequential {
				// later levels are not considered yet
				return approvalOutcome{NextLevel: level.Level}
			}
			// non-sequential: keep scanning so a rejection anywhere
			// still surfaces, but remember the first gap
			for _, later := range levels[indexOf(levels, level)+1:] {
				if laterRejected, _ := resolveLevel(later, decisions, matrix.RequiresUnanimous); laterRejected {
					return approvalOutcome{Rejected: true}
				}
			}
			return approvalOutcome{NextLevel: level.Level}
		}
	}

	return approvalOutcome{Satisfied: true}
}

func resolveLevel(level ApprovalLevel, decisions []ApprovalDecision, unanimous bool) (rejected, satisfied bool) {
	approvals := make(map[string]bool)
	for _, d := range decisions {
		if d.Level != level.Level {
			continue
		}
		if !d.Approved {
			return true, false
		}
		approvals[d.UserID] = true
	}

	if len(level.Users) == 0 {
		// open role pool, any one approval resolves the level
		return false, len(approvals) > 0
	}

	if unanimous {
		for _, u := range level.Users {
			if !approvals[u] {
				return false, false
			}
		}
		return false, true
	}

	for _, u := range level.Users {
		if approvals[u] {
			return false, true
		}
	}
	return false, false
}

// levelFor determines which matrix level a new decision by actor belongs
// to: the actor's explicitly listed level if any, otherwise the first
// level still waiting for a decision.
func levelFor(matrix *ApprovalMatrix, decisions []ApprovalDecision, actor string) int {
	if matrix == nil || len(matrix.Levels) == 0 {
		return 0
	}

	for _, level := range matrix.Levels {
		for _, u := range level.Users {
			if u == actor {
				return level.Level
			}
		}
	}

	outcome := evaluateApprovals(matrix, decisions)
	if outcome.NextLevel != 0 {
		return outcome.NextLevel
	}
	return matrix.Levels[0].Level
}

func indexOf(levels []ApprovalLevel, target ApprovalLevel) int {
	for i, l := range levels {
		if l.Level == target.Level {
			return i
		}
	}
	return -1
}
