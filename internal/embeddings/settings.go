package embeddings

// Settings are the embedding options read on each call.
type Settings struct {
	// Provider selects the strategy, see ParseStrategy.
	Provider string
	// Model is the pretrained model identifier.
	Model string
	// Dim is the hash vector dimension. Values below 1 are treated as 1.
	Dim int
	// CacheDir is where model weights are stored. Empty uses DefaultCacheDir.
	CacheDir string
	// MaxLength is the model's maximum token length. Zero uses the model default.
	MaxLength int
}

// SettingsSource supplies the current Settings.
type SettingsSource interface {
	EmbeddingSettings() Settings
}

// SettingsFunc adapts a function to SettingsSource.
type SettingsFunc func() Settings

// EmbeddingSettings calls f.
func (f SettingsFunc) EmbeddingSettings() Settings {
	return f()
}

// StaticSettings returns a SettingsSource that always yields s.
func StaticSettings(s Settings) SettingsSource {
	return SettingsFunc(func() Settings { return s })
}
