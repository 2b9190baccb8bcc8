package embeddings

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// DefaultONNXRuntimeVersion is the ONNX runtime version matching onnxruntime_go.
// Update this when bumping fastembed-go in go.mod.
const DefaultONNXRuntimeVersion = "1.23.0"

// ErrUnsupportedPlatform indicates the current OS/arch has no ONNX release.
var ErrUnsupportedPlatform = errors.New("unsupported platform")

// platformArchMap maps GOOS/GOARCH to ONNX release archive names.
var platformArchMap = map[string]map[string]string{
	"linux": {
		"amd64": "linux-x64",
		"arm64": "linux-aarch64",
	},
	"darwin": {
		"amd64": "osx-x86_64",
		"arm64": "osx-arm64",
	},
}

// libraryNames maps GOOS to the shared library filename.
var libraryNames = map[string]string{
	"linux":  "libonnxruntime.so",
	"darwin": "libonnxruntime.dylib",
}

func getPlatformArchive(goos, goarch string) (string, error) {
	archMap, ok := platformArchMap[goos]
	if !ok {
		return "", fmt.Errorf("%w: %s/%s", ErrUnsupportedPlatform, goos, goarch)
	}
	arch, ok := archMap[goarch]
	if !ok {
		return "", fmt.Errorf("%w: %s/%s", ErrUnsupportedPlatform, goos, goarch)
	}
	return arch, nil
}

func getLibraryName(goos string) string {
	if name, ok := libraryNames[goos]; ok {
		return name
	}
	return "libonnxruntime.so"
}

// ONNXInstallDir returns ~/.config/textembed/lib, where `textembed init`
// installs the runtime.
func ONNXInstallDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".config", "textembed", "lib")
}

// GetONNXLibraryPath returns the path to the ONNX runtime library, checking
// the ONNX_PATH environment variable and then the managed install. A path
// that does not exist on disk is skipped. Returns "" if neither is present.
func GetONNXLibraryPath() string {
	if envPath := os.Getenv("ONNX_PATH"); envPath != "" && fileExists(envPath) {
		return envPath
	}

	managedPath := filepath.Join(ONNXInstallDir(), getLibraryName(runtime.GOOS))
	if fileExists(managedPath) {
		return managedPath
	}

	return ""
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// missingRuntimeError describes why no ONNX runtime library was found.
func missingRuntimeError() error {
	if envPath := os.Getenv("ONNX_PATH"); envPath != "" {
		return fmt.Errorf("%w: ONNX_PATH %s does not exist (run 'textembed init' or fix ONNX_PATH)", ErrDependencyMissing, envPath)
	}
	return fmt.Errorf("%w: ONNX runtime library not found (run 'textembed init' or set ONNX_PATH)", ErrDependencyMissing)
}

// runtimeLoadMarkers are fragments of the errors onnxruntime_go returns when
// the shared library cannot be opened.
var runtimeLoadMarkers = []string{
	"loading ONNX shared library",
	"cannot open shared object",
	"dlopen",
	"LoadLibrary",
	"image not found",
}

// isRuntimeLoadError reports whether err came from failing to open the ONNX
// runtime shared library rather than from the model itself.
func isRuntimeLoadError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	for _, marker := range runtimeLoadMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

// ONNXRuntimeExists reports whether an ONNX runtime library is available.
func ONNXRuntimeExists() bool {
	return GetONNXLibraryPath() != ""
}

// onnxReleaseURLTemplate and httpClient are replaced in tests.
var (
	onnxReleaseURLTemplate = "https://github.com/microsoft/onnxruntime/releases/download/v%s/onnxruntime-%s-%s.tgz"
	httpClient             = http.DefaultClient
)

func buildDownloadURL(version, platform string) string {
	return fmt.Sprintf(onnxReleaseURLTemplate, version, platform, version)
}

// DownloadONNXRuntime downloads the ONNX runtime for the current platform
// into ONNXInstallDir. An empty version uses DefaultONNXRuntimeVersion.
func DownloadONNXRuntime(ctx context.Context, version string) error {
	if version == "" {
		version = DefaultONNXRuntimeVersion
	}
	return downloadONNXRuntimeTo(ctx, version, runtime.GOOS, runtime.GOARCH, ONNXInstallDir())
}

func downloadONNXRuntimeTo(ctx context.Context, version, goos, goarch, destDir string) error {
	platform, err := getPlatformArchive(goos, goarch)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(destDir, 0700); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, buildDownloadURL(version, platform), nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("downloading ONNX runtime: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download failed with status %d", resp.StatusCode)
	}

	if err := extractTarGz(resp.Body, destDir, version, platform, getLibraryName(goos)); err != nil {
		return fmt.Errorf("extracting archive: %w", err)
	}
	return nil
}

// extractTarGz copies the files under onnxruntime-<platform>-<version>/lib/
// into destDir, flattening paths. Symlinks pointing outside destDir are
// skipped.
func extractTarGz(r io.Reader, destDir, version, platform, libName string) error {
	gzr, err := gzip.NewReader(r)
	if err != nil {
		return fmt.Errorf("creating gzip reader: %w", err)
	}
	defer gzr.Close()

	tr := tar.NewReader(gzr)
	expectedPrefix := fmt.Sprintf("onnxruntime-%s-%s/lib/", platform, version)

	var foundMainLib bool
	for {
		header, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("reading tar: %w", err)
		}

		name := strings.TrimPrefix(header.Name, "./")
		if !strings.HasPrefix(name, expectedPrefix) || header.Typeflag == tar.TypeDir {
			continue
		}

		filename := filepath.Base(name)
		destPath := filepath.Join(destDir, filename)

		switch header.Typeflag {
		case tar.TypeSymlink:
			if strings.ContainsRune(header.Linkname, '/') || header.Linkname == ".." {
				continue
			}
			_ = os.Remove(destPath)
			if err := os.Symlink(header.Linkname, destPath); err != nil {
				continue
			}
		case tar.TypeReg:
			if err := writeFile(destPath, tr); err != nil {
				return fmt.Errorf("writing file %s: %w", filename, err)
			}
		default:
			continue
		}

		if filename == libName || strings.HasPrefix(filename, libName+".") {
			foundMainLib = true
		}
	}

	if !foundMainLib {
		return fmt.Errorf("library %s not found in archive", libName)
	}
	return nil
}

func writeFile(path string, r io.Reader) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// setONNXPathEnv points fastembed-go at the library. Replaced in tests.
var setONNXPathEnv = func(path string) error {
	return os.Setenv("ONNX_PATH", path)
}

// EnsureONNXRuntime returns the ONNX runtime library path, downloading
// version (or DefaultONNXRuntimeVersion) first if it is missing. Progress
// messages go to out.
func EnsureONNXRuntime(ctx context.Context, version string, out io.Writer) (string, error) {
	if path := GetONNXLibraryPath(); path != "" {
		return path, nil
	}
	if version == "" {
		version = DefaultONNXRuntimeVersion
	}

	fmt.Fprintf(out, "ONNX runtime not found. Downloading v%s for %s/%s...\n",
		version, runtime.GOOS, runtime.GOARCH)

	if err := DownloadONNXRuntime(ctx, version); err != nil {
		return "", fmt.Errorf("failed to download ONNX runtime: %w (run 'textembed init' again, or set ONNX_PATH)", err)
	}

	path := GetONNXLibraryPath()
	if path == "" {
		return "", fmt.Errorf("ONNX runtime download completed but library not found")
	}

	fmt.Fprintf(out, "Downloaded to %s\n", path)
	return path, nil
}
