package server

// Defines an API for token filters. A token filter decides, if a given auth token is acceptable for the server or if
// it should rather be rejected. The goal of a token filter is not syntax validation, but rather enforcing security
// constraints.
type TokenFilter interface {
	// Checks for a given token if the server should accept it.
	Accept(authToken string) bool
}

type ToggleTokenFilter struct {
	Value bool
}

func (f *ToggleTokenFilter) Accept(string) bool {
	return f.Value
}

// A token filter that accepts exactly the tokens it was created with.
type StaticTokenFilter struct {
	tokens map[string]bool
}

func NewStaticTokenFilter(tokens []string) *StaticTokenFilter {
	accepted := make(map[string]bool, len(tokens))
	for _, token := range tokens {
		accepted[token] = true
	}
	return &StaticTokenFilter{accepted}
}

func (f *StaticTokenFilter) Accept(authToken string) bool {
	return f.tokens[authToken]
}
