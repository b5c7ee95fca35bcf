package domain

// Query is one (search term, location) pair from the run plan.
// MaxResults caps how many listings the collector yields; 0 means unlimited.
type Query struct {
	Term       string
	Location   string
	MaxResults int
}

func (q Query) String() string {
	if q.Location == "" {
		return q.Term
	}
	return q.Term + " " + q.Location
}
