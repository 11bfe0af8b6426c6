// Package identity resolves the ranked similarity matches of one detected face into a single
// enrolled person, or none when no match is convincing enough.
package identity

import "math"

// CandidateMatch is one similarity-retrieval hit: an enrolled face embedding of PersonID with
// its raw similarity Score (higher is more similar). A person may appear many times.
type CandidateMatch struct {
	PersonID string  `json:"person_id"`
	Score    float64 `json:"score"`
}

// VotingResult is the outcome of Vote. PersonID is empty when no candidate qualifies, in which
// case Confidence is zero and carries no meaning.
type VotingResult struct {
	PersonID   string  `json:"person_id,omitempty"`
	Confidence float64 `json:"confidence"`
}

// HasWinner reports whether voting selected a person.
func (r VotingResult) HasWinner() bool {
	return r.PersonID != ""
}

// RankWeight returns the logarithmic decay factor applied to a raw score at the given
// 0-based rank: 1 at rank 0, 1/(ln(rank+1)+1) afterwards.
func RankWeight(rank int) float64 {
	return 1 / (math.Log(float64(rank+1)) + 1)
}

// Vote picks the most probable person from candidates, which must be ordered by descending
// raw score (rank = index in the slice).
//
// Each score is decayed by RankWeight, the decayed scores are averaged per person and the
// person with the strictly highest positive mean wins. On exact ties the person whose first
// match appears earliest in candidates keeps the win. Confidence is the mean of the winner's
// raw scores. Candidates without a PersonID still occupy their rank but never win.
func Vote(candidates []CandidateMatch) VotingResult {
	weighted := make(map[string][]float64)
	var order []string
	for i, c := range candidates {
		if c.PersonID == "" {
			continue
		}
		if _, seen := weighted[c.PersonID]; !seen {
			order = append(order, c.PersonID)
		}
		weighted[c.PersonID] = append(weighted[c.PersonID], c.Score*RankWeight(i))
	}

	var winner string
	best := 0.0
	for _, personID := range order {
		if m := mean(weighted[personID]); m > best {
			best = m
			winner = personID
		}
	}
	if winner == "" {
		return VotingResult{}
	}

	var raw []float64
	for _, c := range candidates {
		if c.PersonID == winner {
			raw = append(raw, c.Score)
		}
	}
	return VotingResult{PersonID: winner, Confidence: mean(raw)}
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
