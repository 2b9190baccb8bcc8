package embeddings

// Strategy selects how texts are embedded.
type Strategy int

const (
	// StrategyHash derives vectors from SHA-256 digests.
	StrategyHash Strategy = iota
	// StrategyPretrained runs the FastEmbed model.
	StrategyPretrained
)

// Provider names that select StrategyPretrained.
const (
	ProviderSentenceTransformers = "sentence-transformers"
	ProviderFastEmbed            = "fastembed"
)

// ParseStrategy maps a configured provider name to a Strategy. Matching is
// exact; every other value, including "", selects StrategyHash.
func ParseStrategy(provider string) Strategy {
	switch provider {
	case ProviderSentenceTransformers, ProviderFastEmbed:
		return StrategyPretrained
	default:
		return StrategyHash
	}
}

func (s Strategy) String() string {
	switch s {
	case StrategyPretrained:
		return "pretrained"
	default:
		return "hash"
	}
}
