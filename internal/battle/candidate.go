package battle

// Candidate is one cryptocurrency competing in a battle. The ticker is unique
// within a tournament and is the key used everywhere downstream: verdict
// parsing, scoring and the identity hash. Candidates are immutable once a
// battle starts.
type Candidate struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Ticker    string `json:"ticker"`
	LogoLocal string `json:"logo_local,omitempty"`
}

// JudgedCandidate pairs a candidate with the judge's free-text reason for
// keeping or eliminating it.
type JudgedCandidate struct {
	Coin   Candidate `json:"coin"`
	Reason string    `json:"reason"`
}
