package embeddings

import "sort"

// knownModels maps accepted model identifiers to their vector dimension.
// Both the Hugging Face names and FastEmbed's own names are accepted.
var knownModels = map[string]int{
	"BAAI/bge-small-en-v1.5":                 384,
	"BAAI/bge-small-en":                      384,
	"BAAI/bge-base-en-v1.5":                  768,
	"BAAI/bge-base-en":                       768,
	"BAAI/bge-small-zh-v1.5":                 512,
	"sentence-transformers/all-MiniLM-L6-v2": 384,
	"fast-bge-small-en-v1.5":                 384,
	"fast-bge-small-en":                      384,
	"fast-bge-base-en-v1.5":                  768,
	"fast-bge-base-en":                       768,
	"fast-bge-small-zh-v1.5":                 512,
	"fast-all-MiniLM-L6-v2":                  384,
}

// ModelDimension returns the vector dimension of a known model.
func ModelDimension(name string) (int, bool) {
	dim, ok := knownModels[name]
	return dim, ok
}

// KnownModels returns the accepted model identifiers, sorted.
func KnownModels() []string {
	names := make([]string, 0, len(knownModels))
	for name := range knownModels {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
