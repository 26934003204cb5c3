package testutil

// FixedGeneration returns the same coverage generation token every time,
// so snapshots of saved registries are byte-identical across runs.
//
// Implements syncreg.TokenGenerator.
type FixedGeneration struct {
	token string
}

// NewFixedGeneration creates a generator for token. An empty token becomes
// "test-generation".
func NewFixedGeneration(token string) *FixedGeneration {
	if token == "" {
		token = "test-generation"
	}
	return &FixedGeneration{token: token}
}

// Generate returns the fixed token.
func (g *FixedGeneration) Generate() string {
	return g.token
}
