// Package render rasterizes text onto image canvases using a font registry
// loaded once at startup and shared read-only across concurrent renders.
package render

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"

	"media-normalizer/internal/domain"
)

// Registry holds parsed font resources keyed by file base name. It is
// immutable after LoadRegistry returns and safe for concurrent reads.
type Registry struct {
	fonts map[string]*opentype.Font
}

// LoadRegistry parses every .ttf/.otf file in dir. Any unparseable font file
// fails the load; a directory without fonts is also an error, since the
// renderer cannot operate without at least one face.
func LoadRegistry(dir string) (*Registry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, &domain.FontResolutionError{
			Cause: fmt.Sprintf("cannot read fonts directory: %s", dir),
			Err:   err,
		}
	}

	fonts := make(map[string]*opentype.Font)
	for _, entry := range entries {
		if entry.IsDir() || !isFontFile(entry.Name()) {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, &domain.FontResolutionError{
				Cause: fmt.Sprintf("cannot read font file: %s", path),
				Err:   err,
			}
		}

		parsed, err := opentype.Parse(data)
		if err != nil {
			return nil, &domain.FontResolutionError{
				Cause: fmt.Sprintf("invalid font file: %s", path),
				Err:   err,
			}
		}

		fonts[fontKey(entry.Name())] = parsed
	}

	if len(fonts) == 0 {
		return nil, &domain.FontResolutionError{
			Cause: fmt.Sprintf("no font files found in: %s", dir),
		}
	}

	return &Registry{fonts: fonts}, nil
}

// Face creates a new face for one render. Faces are per-call because a
// font.Face is not safe for concurrent use; the parsed font is.
func (r *Registry) Face(name string, size float64) (font.Face, error) {
	parsed, ok := r.fonts[fontKey(name)]
	if !ok {
		return nil, &domain.FontResolutionError{
			Cause: fmt.Sprintf("font not loaded: %s", name),
		}
	}

	face, err := opentype.NewFace(parsed, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, &domain.FontResolutionError{
			Cause: fmt.Sprintf("cannot build face for font: %s", name),
			Err:   err,
		}
	}
	return face, nil
}

// Has reports whether a font name resolves in the registry.
func (r *Registry) Has(name string) bool {
	_, ok := r.fonts[fontKey(name)]
	return ok
}

// Names lists loaded font names in stable order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.fonts))
	for name := range r.fonts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// isFontFile matches supported font file extensions.
func isFontFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".ttf", ".otf":
		return true
	default:
		return false
	}
}

// fontKey normalizes a font reference to its lowercase base name.
func fontKey(name string) string {
	base := filepath.Base(name)
	return strings.ToLower(strings.TrimSuffix(base, filepath.Ext(base)))
}
