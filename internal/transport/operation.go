package transport

// Kind distinguishes read operations from writes. Only query results are
// cached.
type Kind int

const (
	Query Kind = iota
	Mutation
)

func (k Kind) String() string {
	if k == Mutation {
		return "mutation"
	}

	return "query"
}

// FetchPolicy controls whether a query may be answered from the result cache.
type FetchPolicy int

const (
	// NetworkOnly always goes to the network; the result still refreshes
	// the cache.
	NetworkOnly FetchPolicy = iota
	// CacheFirst answers from the cache when a result for the same
	// operation and variables is present.
	CacheFirst
)

// Binary marks a variable as a raw binary payload. An operation with any
// Binary variable is sent as multipart/form-data, with the payload as its own
// part instead of inside the JSON variables.
type Binary []byte

// Operation is a named query or mutation with its variables.
type Operation struct {
	Name        string
	Kind        Kind
	Query       string
	Variables   map[string]any
	FetchPolicy FetchPolicy
	DebugName   string
}
