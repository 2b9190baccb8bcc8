// Package embeddings turns batches of text into fixed-dimension vectors.
//
// Two strategies exist. The pretrained strategy runs a FastEmbed (ONNX)
// model that is loaded lazily on first use and then shared. The hash
// strategy derives each vector from the SHA-256 digest of the text; it needs
// no model and is used whenever the configured provider is not
// "sentence-transformers" (or its alias "fastembed").
//
// Settings are read from a SettingsSource on every call, so a reloaded
// configuration takes effect on the next Embed.
//
// The FastEmbed backend requires cgo and the ONNX runtime shared library.
// Without either, loading the model fails with ErrDependencyMissing.
package embeddings
