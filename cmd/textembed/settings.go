package main

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/fyrsmithlabs/textembed/internal/config"
	"github.com/fyrsmithlabs/textembed/internal/embeddings"
)

// overrides are command-line values that win over the config file.
type overrides struct {
	provider string
	dim      *int
}

// storeSettings reads the embeddings section from store on every call, so a
// reload by the config watcher takes effect on the next batch.
func storeSettings(store *config.Store, ov overrides) embeddings.SettingsSource {
	return embeddings.SettingsFunc(func() embeddings.Settings {
		e := store.Current().Embeddings
		s := embeddings.Settings{
			Provider:  e.Provider,
			Model:     e.Model,
			Dim:       int(e.Dim),
			CacheDir:  expandHome(e.CacheDir),
			MaxLength: e.MaxLength,
		}
		if ov.provider != "" {
			s.Provider = ov.provider
		}
		if ov.dim != nil {
			s.Dim = *ov.dim
		}
		return s
	})
}

// expandHome replaces a leading "~/" with the user's home directory.
func expandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}
