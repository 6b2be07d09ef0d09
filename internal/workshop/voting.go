package workshop

import (
	"math"
	"sort"
	"strings"
)

const (
	minRating = 1
	maxRating = 5

	// threshold splits the 1..5 scale; it counts as high value and as low
	// complexity.
	threshold = 3.0
)

// RecordVote stores participantID's rating of featureID and recomputes the
// feature's averages and quadrant. A participant has at most one vote per
// feature: voting again replaces the earlier vote in place. The feature does
// not have to exist in any module.
func RecordVote(session *Session, featureID string, value, complexity int, participantID string) (PrioritizedFeature, error) {
	featureID = strings.TrimSpace(featureID)
	if featureID == "" {
		return PrioritizedFeature{}, validation("featureId", "is required")
	}
	participantID = strings.TrimSpace(participantID)
	if participantID == "" {
		return PrioritizedFeature{}, validation("participantId", "is required")
	}
	if err := validateRating(value, complexity); err != nil {
		return PrioritizedFeature{}, err
	}

	idx := -1
	for i, feature := range session.Data.Prioritization {
		if feature.FeatureID == featureID {
			idx = i
			break
		}
	}
	if idx < 0 {
		session.Data.Prioritization = append(session.Data.Prioritization, PrioritizedFeature{
			FeatureID: featureID,
			Votes:     []Vote{},
		})
		idx = len(session.Data.Prioritization) - 1
	}
	feature := &session.Data.Prioritization[idx]

	vote := Vote{
		ParticipantID: participantID,
		Value:         value,
		Complexity:    complexity,
		Timestamp:     timeNow().UTC(),
	}
	replaced := false
	for i := range feature.Votes {
		if feature.Votes[i].ParticipantID == participantID {
			feature.Votes[i] = vote
			replaced = true
			break
		}
	}
	if !replaced {
		feature.Votes = append(feature.Votes, vote)
	}
	recompute(feature)
	session.touch()

	out := *feature
	out.Votes = append([]Vote(nil), feature.Votes...)
	if feature.Averages != nil {
		averages := *feature.Averages
		out.Averages = &averages
	}
	return out, nil
}

func validateRating(value, complexity int) error {
	if value < minRating || value > maxRating {
		return validation("value", "must be between %d and %d, got %d", minRating, maxRating, value)
	}
	if complexity < minRating || complexity > maxRating {
		return validation("complexity", "must be between %d and %d, got %d", minRating, maxRating, complexity)
	}
	return nil
}

// recompute refreshes the derived fields of feature from its votes. Votes
// are first collapsed to one per participant, keeping the latest.
func recompute(feature *PrioritizedFeature) {
	feature.Votes = dedupeVotes(feature.Votes)
	if len(feature.Votes) == 0 {
		feature.Averages = nil
		feature.Quadrant = ""
		return
	}
	var value, complexity int
	for _, vote := range feature.Votes {
		value += vote.Value
		complexity += vote.Complexity
	}
	n := float64(len(feature.Votes))
	feature.Averages = &Averages{
		Value:      roundTenth(float64(value) / n),
		Complexity: roundTenth(float64(complexity) / n),
	}
	feature.Quadrant = QuadrantFor(*feature.Averages)
}

func dedupeVotes(votes []Vote) []Vote {
	position := make(map[string]int, len(votes))
	out := make([]Vote, 0, len(votes))
	for _, vote := range votes {
		if i, ok := position[vote.ParticipantID]; ok && vote.ParticipantID != "" {
			out[i] = vote
			continue
		}
		position[vote.ParticipantID] = len(out)
		out = append(out, vote)
	}
	return out
}

// roundTenth rounds half up to one decimal place. The 1e-9 nudge absorbs
// binary representation error such as 2.25 being stored as 2.2499999.
func roundTenth(v float64) float64 {
	return math.Floor(v*10+0.5+1e-9) / 10
}

// QuadrantFor maps averages to a matrix quadrant.
func QuadrantFor(averages Averages) Quadrant {
	highValue := averages.Value >= threshold
	lowComplexity := averages.Complexity <= threshold
	switch {
	case highValue && lowComplexity:
		return QuadrantQuickWins
	case highValue:
		return QuadrantMajorProjects
	case lowComplexity:
		return QuadrantFillIns
	default:
		return QuadrantAvoid
	}
}

// Score ranks features inside a quadrant; higher is better.
func Score(averages Averages) float64 {
	return averages.Value * (6 - averages.Complexity)
}

// Ranked returns the voted features of each quadrant ordered by score,
// descending. Ties keep vote insertion order.
func Ranked(session *Session) map[Quadrant][]PrioritizedFeature {
	out := make(map[Quadrant][]PrioritizedFeature, len(Quadrants))
	for _, quadrant := range Quadrants {
		out[quadrant] = []PrioritizedFeature{}
	}
	for _, feature := range session.Data.Prioritization {
		if feature.Averages == nil {
			continue
		}
		out[feature.Quadrant] = append(out[feature.Quadrant], feature)
	}
	for _, features := range out {
		sort.SliceStable(features, func(i, j int) bool {
			return Score(*features[i].Averages) > Score(*features[j].Averages)
		})
	}
	return out
}
