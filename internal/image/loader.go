// Package image provides utilities for loading and preparing images for
// palette extraction.
package image

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format
	_ "image/jpeg" // Register JPEG format
	_ "image/png"  // Register PNG format
	"io"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp" // Register WebP format

	"github.com/jmylchreest/swatch/internal/colour"
	httputil "github.com/jmylchreest/swatch/internal/util/http"
	"github.com/jmylchreest/swatch/internal/util/imagecache"
)

// Loader handles loading images from various sources.
type Loader interface {
	// Load loads and decodes the image at path.
	Load(ctx context.Context, path string) (image.Image, error)
}

// Decode decodes image data from r. Compressed input is unwrapped first and
// EXIF orientation is applied. Failures are reported as *colour.DecodeError.
func Decode(r io.Reader, source string) (image.Image, error) {
	data, _, err := readImageData(r)
	if err != nil {
		return nil, &colour.DecodeError{Source: source, Err: err}
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		_, format, _ := image.DecodeConfig(bytes.NewReader(data))
		return nil, &colour.DecodeError{Source: source, Format: format, Err: err}
	}
	return img, nil
}

// Downscale shrinks img so neither side exceeds maxDimension, keeping the
// aspect ratio. The box filter averages each block of source pixels, so
// edges between colours may blend. Images already within bounds, or a
// maxDimension <= 0, are returned as is.
func Downscale(img image.Image, maxDimension int) image.Image {
	if maxDimension <= 0 {
		return img
	}
	b := img.Bounds()
	if b.Dx() <= maxDimension && b.Dy() <= maxDimension {
		return img
	}
	return imaging.Fit(img, maxDimension, maxDimension, imaging.Box)
}

// FileLoader loads images from the local filesystem.
type FileLoader struct{}

// NewFileLoader creates a new FileLoader instance.
func NewFileLoader() *FileLoader {
	return &FileLoader{}
}

// Load loads an image from a file path.
func (l *FileLoader) Load(ctx context.Context, path string) (image.Image, error) {
	if path == "" {
		return nil, fmt.Errorf("image path cannot be empty")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("image file not found: %s", path)
		}
		return nil, fmt.Errorf("failed to stat image file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("path is a directory, not a file: %s", path)
	}

	file, err := os.Open(path) // #nosec G304 - User-specified image path, intended to be read
	if err != nil {
		return nil, fmt.Errorf("failed to open image file: %w", err)
	}
	defer file.Close()

	return Decode(file, path)
}

// SmartLoader loads images from both local files and HTTP(S) URLs.
type SmartLoader struct {
	fileLoader *FileLoader
	cache      bool
	cacheDir   string
}

// NewSmartLoader creates a new SmartLoader instance.
func NewSmartLoader() *SmartLoader {
	return &SmartLoader{
		fileLoader: NewFileLoader(),
	}
}

// WithCache stores remote images in dir before decoding them. An empty dir
// selects the default cache directory.
func (l *SmartLoader) WithCache(dir string) *SmartLoader {
	l.cache = true
	l.cacheDir = dir
	return l
}

// Load loads an image from either a local file path or HTTP(S) URL.
func (l *SmartLoader) Load(ctx context.Context, path string) (image.Image, error) {
	if !IsURL(path) {
		return l.fileLoader.Load(ctx, path)
	}

	if l.cache {
		cached, err := imagecache.DownloadAndCache(ctx, path, imagecache.CacheOptions{CacheDir: l.cacheDir})
		if err != nil {
			return nil, err
		}
		return l.fileLoader.Load(ctx, cached)
	}

	data, err := httputil.Fetch(ctx, path, httputil.FetchOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch image from URL: %w", err)
	}
	return Decode(bytes.NewReader(data), path)
}

// IsURL reports whether path is an HTTP(S) URL.
func IsURL(path string) bool {
	return strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://")
}

// SupportedImageExtensions returns a list of supported image file extensions.
func SupportedImageExtensions() []string {
	return []string{".jpg", ".jpeg", ".png", ".gif", ".webp", ".bmp", ".tif", ".tiff"}
}

// compressedExtensions are stripped before checking the image extension.
var compressedExtensions = []string{".gz", ".bz2", ".xz"}

// isImageFile checks if a file has a supported image extension, optionally
// followed by a compression suffix.
func isImageFile(path string) bool {
	name := strings.ToLower(path)
	for _, ext := range compressedExtensions {
		if trimmed, ok := strings.CutSuffix(name, ext); ok {
			name = trimmed
			break
		}
	}
	return slices.Contains(SupportedImageExtensions(), filepath.Ext(name))
}

// ValidateImagePath checks that path is a URL, a directory or an existing
// regular file. Decoding is left to the loader.
func ValidateImagePath(path string) error {
	if path == "" {
		return fmt.Errorf("image path cannot be empty")
	}
	if IsURL(path) {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("image file or directory not found: %s", path)
		}
		return fmt.Errorf("failed to access image path: %w", err)
	}
	return nil
}

// ScanDirectoryForImages returns the image files in a directory, sorted by
// name. It does not recurse into subdirectories, but follows symlinks.
func ScanDirectoryForImages(dirPath string) ([]string, error) {
	entries, err := os.ReadDir(dirPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	var imageFiles []string
	for _, entry := range entries {
		fullPath := filepath.Join(dirPath, entry.Name())

		// Stat the target so symlinks to files are included.
		info, err := os.Stat(fullPath)
		if err != nil || info.IsDir() {
			continue
		}
		if isImageFile(entry.Name()) {
			imageFiles = append(imageFiles, fullPath)
		}
	}

	if len(imageFiles) == 0 {
		return nil, fmt.Errorf("no supported image files found in directory: %s", dirPath)
	}
	sort.Strings(imageFiles)
	return imageFiles, nil
}

// ResolveInputs expands directories into the images they contain. Files and
// URLs are passed through in order.
func ResolveInputs(paths []string) ([]string, error) {
	var resolved []string
	for _, p := range paths {
		if err := ValidateImagePath(p); err != nil {
			return nil, err
		}
		if IsURL(p) {
			resolved = append(resolved, p)
			continue
		}

		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("failed to access path: %w", err)
		}
		if !info.IsDir() {
			resolved = append(resolved, p)
			continue
		}

		files, err := ScanDirectoryForImages(p)
		if err != nil {
			return nil, err
		}
		resolved = append(resolved, files...)
	}
	return resolved, nil
}
