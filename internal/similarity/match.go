package similarity

import "sort"

// Match is one scored candidate/target pair.
type Match struct {
	Candidate      string
	Target         string
	CandidateIndex int
	TargetIndex    int
	Score          float64
}

// BestMatch returns the highest scoring pair at or above minScore. Candidates
// are the outer loop and targets the inner loop; on equal scores the first
// pair encountered wins.
func BestMatch(candidates, targets []string, minScore float64) (Match, bool) {
	return BestMatchText(PrepareAll(candidates), PrepareAll(targets), minScore)
}

// BestMatchText is BestMatch over prepared values.
func BestMatchText(candidates, targets []Text, minScore float64) (Match, bool) {
	var best Match
	found := false
	for ci, c := range candidates {
		for ti, t := range targets {
			score := ScoreText(c, t)
			if score < minScore {
				continue
			}
			if found && score <= best.Score {
				continue
			}
			best = Match{Candidate: c.Raw, Target: t.Raw, CandidateIndex: ci, TargetIndex: ti, Score: score}
			found = true
			if score == 1 {
				return best, true
			}
		}
	}
	return best, found
}

// FindMultipleMatches returns up to limit pairs scoring at or above minScore,
// best first. Equal scores keep encounter order. A limit <= 0 returns every
// qualifying pair.
func FindMultipleMatches(candidates, targets []string, minScore float64, limit int) []Match {
	return FindMultipleMatchesText(PrepareAll(candidates), PrepareAll(targets), minScore, limit)
}

// FindMultipleMatchesText is FindMultipleMatches over prepared values.
func FindMultipleMatchesText(candidates, targets []Text, minScore float64, limit int) []Match {
	var matches []Match
	for ci, c := range candidates {
		for ti, t := range targets {
			score := ScoreText(c, t)
			if score < minScore {
				continue
			}
			matches = append(matches, Match{Candidate: c.Raw, Target: t.Raw, CandidateIndex: ci, TargetIndex: ti, Score: score})
		}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches
}

// PrepareAll prepares every value in order.
func PrepareAll(values []string) []Text {
	out := make([]Text, len(values))
	for i, v := range values {
		out[i] = Prepare(v)
	}
	return out
}
