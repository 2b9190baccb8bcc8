package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/textembed/internal/embeddings"
)

var (
	prefetchModel    string
	prefetchCacheDir string

	// Replaced in tests.
	modelLoader  embeddings.ModelLoader = embeddings.LoadFastEmbed
	checkRuntime                        = embeddings.CheckFastEmbed
)

func init() {
	rootCmd.AddCommand(prefetchCmd)
	prefetchCmd.Flags().StringVar(&prefetchModel, "model", embeddings.DefaultPrefetchModel, "model to download")
	prefetchCmd.Flags().StringVar(&prefetchCacheDir, "cache-dir", "", "model cache directory (default ~/.cache/textembed/models)")
}

// prefetchCmd downloads model weights ahead of first use
var prefetchCmd = &cobra.Command{
	Use:   "prefetch",
	Short: "Download the FastEmbed model into the local cache",
	Long: `Download the FastEmbed model weights into the local cache so the first
embedding call does not wait on the network.

The model defaults to BAAI/bge-small-en-v1.5 regardless of the config file.
If the FastEmbed runtime is not installed the download is skipped and the
command still succeeds; run 'textembed init' to install it.

Examples:
  # Prefetch the default model
  textembed prefetch

  # Prefetch a larger model into a shared cache
  textembed prefetch --model BAAI/bge-base-en-v1.5 --cache-dir /var/cache/textembed`,
	Args: cobra.NoArgs,
	RunE: runPrefetch,
}

func runPrefetch(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	if err := checkRuntime(); err != nil {
		fmt.Fprintln(out, "FastEmbed not installed. Skipping pre-download.")
		return nil
	}

	fmt.Fprintf(out, "Pre-downloading FastEmbed model: %s...\n", prefetchModel)

	res, err := embeddings.Prefetch(cmd.Context(), embeddings.PrefetchOptions{
		Model:    prefetchModel,
		CacheDir: expandHome(prefetchCacheDir),
		Loader:   modelLoader,
	})
	if errors.Is(err, embeddings.ErrDependencyMissing) {
		fmt.Fprintln(out, "FastEmbed not installed. Skipping pre-download.")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to prefetch model: %w", err)
	}

	fmt.Fprintf(out, "Successfully downloaded %s!\n", res.Model)
	fmt.Fprintf(out, "Cache: %s (dimension %d, %s)\n", res.CacheDir, res.Dimension, res.Duration.Round(time.Millisecond))
	return nil
}
