package testutil

// DefaultRunToken is used when a scenario does not name its run token.
const DefaultRunToken = "test-run-default"

// FixedTokenGenerator returns the same run token on every call, so repeated
// runs produce byte-identical traces. Stateless and safe for concurrent use.
type FixedTokenGenerator struct {
	token string
}

// NewFixedTokenGenerator returns a generator for token, or DefaultRunToken
// when token is empty.
func NewFixedTokenGenerator(token string) *FixedTokenGenerator {
	if token == "" {
		token = DefaultRunToken
	}
	return &FixedTokenGenerator{token: token}
}

// Generate returns the fixed token.
func (g *FixedTokenGenerator) Generate() string {
	return g.token
}
