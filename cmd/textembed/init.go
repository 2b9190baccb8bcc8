package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/textembed/internal/config"
	"github.com/fyrsmithlabs/textembed/internal/embeddings"
)

var (
	forceDownload bool
	onnxVersion   string

	// Replaced in tests.
	ensureRuntime   = embeddings.EnsureONNXRuntime
	downloadRuntime = embeddings.DownloadONNXRuntime
)

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().BoolVarP(&forceDownload, "force", "f", false, "Force re-download even if ONNX runtime exists")
	initCmd.Flags().StringVar(&onnxVersion, "onnx-version", "", "ONNX runtime release (default embeddings.onnx_version, then "+embeddings.DefaultONNXRuntimeVersion+")")
}

// initCmd installs the ONNX runtime
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize textembed dependencies",
	Long: `Initialize textembed by downloading required dependencies.

Currently this downloads the ONNX runtime library required for local
embeddings with FastEmbed. The library is installed to:
  ~/.config/textembed/lib/

If ONNX_PATH environment variable is set, that path takes precedence.

Examples:
  # Initialize textembed (download ONNX runtime)
  textembed init

  # Force re-download even if already installed
  textembed init --force`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	version, err := resolveONNXVersion()
	if err != nil {
		return err
	}

	if !forceDownload {
		if path := embeddings.GetONNXLibraryPath(); path != "" {
			fmt.Fprintf(out, "ONNX runtime already installed at: %s\n", path)
			fmt.Fprintln(out, "Use --force to re-download.")
			return nil
		}
		path, err := ensureRuntime(ctx, version, out)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Successfully installed ONNX runtime to: %s\n", path)
		return nil
	}

	fmt.Fprintf(out, "Downloading ONNX runtime v%s...\n", version)
	if err := downloadRuntime(ctx, version); err != nil {
		return fmt.Errorf("failed to download ONNX runtime: %w", err)
	}

	path := embeddings.GetONNXLibraryPath()
	if path == "" {
		return fmt.Errorf("download completed but library not found")
	}

	fmt.Fprintf(out, "Successfully installed ONNX runtime to: %s\n", path)
	return nil
}

// resolveONNXVersion picks --onnx-version, then embeddings.onnx_version from
// the config, then the bundled default.
func resolveONNXVersion() (string, error) {
	if onnxVersion != "" {
		return onnxVersion, nil
	}
	cfg, err := config.LoadWithFile(configPath)
	if err != nil {
		return "", fmt.Errorf("failed to load config: %w", err)
	}
	if v := cfg.Embeddings.ONNXVersion; v != "" {
		return v, nil
	}
	return embeddings.DefaultONNXRuntimeVersion, nil
}
