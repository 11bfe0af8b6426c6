package identity

// DefaultThreshold is the acceptance threshold used when none is configured. It assumes
// cosine similarity scores; distance-based retrieval needs a different value.
const DefaultThreshold = 0.7

// Policy turns a VotingResult into an identification decision.
type Policy struct {
	// Threshold is the confidence a winner must strictly exceed.
	Threshold float64
}

// DefaultPolicy returns a Policy with DefaultThreshold.
func DefaultPolicy() Policy {
	return Policy{Threshold: DefaultThreshold}
}

// Accept reports whether the result identifies its winner. A confidence equal to the
// threshold is rejected.
func (p Policy) Accept(r VotingResult) bool {
	return r.HasWinner() && r.Confidence > p.Threshold
}

// Decision is a voting result together with the policy verdict.
type Decision struct {
	Vote       VotingResult `json:"vote"`
	Identified bool         `json:"identified"`
	Threshold  float64      `json:"threshold"`
}

// Decide votes over candidates and applies the policy.
func (p Policy) Decide(candidates []CandidateMatch) Decision {
	v := Vote(candidates)
	return Decision{
		Vote:       v,
		Identified: p.Accept(v),
		Threshold:  p.Threshold,
	}
}
