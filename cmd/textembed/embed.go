package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/textembed/internal/config"
	"github.com/fyrsmithlabs/textembed/internal/embeddings"
)

// maxLineSize bounds a single input text.
const maxLineSize = 1024 * 1024

var (
	embedProvider string
	embedDim      int
	embedWatch    bool
	embedStream   bool
)

func init() {
	rootCmd.AddCommand(embedCmd)
	embedCmd.Flags().StringVar(&embedProvider, "provider", "", "override embeddings.provider (sentence-transformers or hash)")
	embedCmd.Flags().IntVar(&embedDim, "dim", 0, "override embeddings.dim for the hash strategy")
	embedCmd.Flags().BoolVar(&embedWatch, "watch", false, "reload the config file when it changes")
	embedCmd.Flags().BoolVar(&embedStream, "stream", false, "embed each line as it arrives and print one JSON vector per line")
}

// embedCmd embeds lines of text from a file or stdin
var embedCmd = &cobra.Command{
	Use:   "embed [file|-]",
	Short: "Embed one text per input line",
	Long: `Embed one text per input line and print the vectors as JSON.

By default the whole input is embedded as a single batch and printed as one
JSON array of vectors, in input order. With --stream every line is embedded
as it is read and printed as its own JSON array, which together with --watch
lets a long-running pipe pick up config changes between lines.

Examples:
  # Embed a file with the configured strategy
  textembed embed texts.txt

  # Embed from stdin with a 16-dimensional hash
  printf 'hello\nworld\n' | textembed embed --provider hash --dim 16 -

  # Stream and follow config edits
  tail -f texts.log | textembed embed --stream --watch -`,
	Args: cobra.MaximumNArgs(1),
	RunE: runEmbed,
}

func runEmbed(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	in, err := openInput(cmd, args)
	if err != nil {
		return err
	}
	defer in.Close()

	a, err := newApp(ctx, configPath)
	if err != nil {
		return err
	}
	defer func() { _ = a.close() }()

	if embedWatch {
		if configPath == "" {
			if err := config.EnsureConfigDir(); err != nil {
				return err
			}
		}
		w, err := a.store.Watch(ctx)
		if err != nil {
			return err
		}
		defer w.Stop()
	}

	ov := overrides{provider: embedProvider}
	if cmd.Flags().Changed("dim") {
		dim := embedDim
		ov.dim = &dim
	}

	provider := embeddings.NewProvider(storeSettings(a.store, ov),
		embeddings.WithLogger(a.logger),
		embeddings.WithMeter(a.telemetry.Meter(instrumentationName)),
		embeddings.WithTracer(a.telemetry.Tracer(instrumentationName)),
		embeddings.WithLoader(modelLoader),
	)
	defer func() {
		if err := provider.Close(); err != nil {
			a.logger.Warn(ctx, "failed to release embedding model", zap.Error(err))
		}
	}()

	out := cmd.OutOrStdout()
	if embedStream {
		return streamEmbed(ctx, provider, in, out)
	}

	texts, err := readLines(in)
	if err != nil {
		return err
	}
	vectors, err := provider.Embed(ctx, texts)
	if err != nil {
		return fmt.Errorf("failed to embed %d texts: %w", len(texts), err)
	}
	return json.NewEncoder(out).Encode(vectors)
}

// openInput returns the named file, or stdin for no argument or "-".
func openInput(cmd *cobra.Command, args []string) (io.ReadCloser, error) {
	if len(args) == 0 || args[0] == "-" {
		return io.NopCloser(cmd.InOrStdin()), nil
	}
	f, err := os.Open(args[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", args[0], err)
	}
	return f, nil
}

func newScanner(r io.Reader) *bufio.Scanner {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	return s
}

// readLines splits r into lines. Empty lines are kept as empty texts; a
// trailing newline does not add one.
func readLines(r io.Reader) ([]string, error) {
	texts := []string{}
	s := newScanner(r)
	for s.Scan() {
		texts = append(texts, strings.TrimSuffix(s.Text(), "\r"))
	}
	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}
	return texts, nil
}

// streamEmbed embeds and prints each line as it is read. Settings are read
// per line, so config reloads apply from the next line on.
func streamEmbed(ctx context.Context, p *embeddings.Provider, r io.Reader, w io.Writer) error {
	enc := json.NewEncoder(w)
	s := newScanner(r)
	for s.Scan() {
		vectors, err := p.Embed(ctx, []string{strings.TrimSuffix(s.Text(), "\r")})
		if err != nil {
			return fmt.Errorf("failed to embed line: %w", err)
		}
		if err := enc.Encode(vectors[0]); err != nil {
			return fmt.Errorf("failed to write vector: %w", err)
		}
	}
	if err := s.Err(); err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}
	return nil
}
