// Prefetch-model downloads the default FastEmbed model into the local cache
// so the first embedding call does not pay for the download.
//
// It takes no arguments. A missing FastEmbed runtime is not an error: the
// download is skipped and the process exits 0.
//
// Usage:
//
//	prefetch-model
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/fyrsmithlabs/textembed/internal/embeddings"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Stdout, os.Stderr, embeddings.CheckFastEmbed, embeddings.LoadFastEmbed)
	stop()
	os.Exit(code)
}

// run prefetches embeddings.DefaultPrefetchModel and returns the exit code.
// check runs before anything is printed.
func run(ctx context.Context, stdout, stderr io.Writer, check func() error, loader embeddings.ModelLoader) int {
	model := embeddings.DefaultPrefetchModel

	if err := check(); err != nil {
		fmt.Fprintln(stdout, skipMessage)
		return 0
	}

	fmt.Fprintf(stdout, "Pre-downloading FastEmbed model: %s...\n", model)

	_, err := embeddings.Prefetch(ctx, embeddings.PrefetchOptions{
		Model:  model,
		Loader: loader,
	})
	switch {
	case errors.Is(err, embeddings.ErrDependencyMissing):
		fmt.Fprintln(stdout, skipMessage)
		return 0
	case err != nil:
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	fmt.Fprintf(stdout, "Successfully downloaded %s!\n", model)
	return 0
}

const skipMessage = "FastEmbed not installed. Skipping pre-download."

