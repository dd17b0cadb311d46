// Package img pulls .alm maps out of game disc images.
package img

import (
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	diskfs "github.com/diskfs/go-diskfs"
	"github.com/diskfs/go-diskfs/filesystem"
)

// ListMaps returns the paths of every .alm file on an ISO 9660 image, in
// lexical order. Paths use forward slashes and carry no version suffix.
func ListMaps(isoPath string) ([]string, error) {
	d, err := diskfs.Open(isoPath, diskfs.WithOpenMode(diskfs.ReadOnly))
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer d.Close()

	fs, err := d.GetFilesystem(0)
	if err != nil {
		return nil, fmt.Errorf("failed to read filesystem: %w", err)
	}

	maps, err := walk(fs, "/")
	if err != nil {
		return nil, err
	}
	sort.Strings(maps)
	return maps, nil
}

// ExtractMaps copies every .alm file from an ISO 9660 image into outputDir,
// keeping the directory layout. Returns the extracted file paths.
func ExtractMaps(isoPath string, outputDir string) ([]string, error) {
	d, err := diskfs.Open(isoPath, diskfs.WithOpenMode(diskfs.ReadOnly))
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer d.Close()

	fs, err := d.GetFilesystem(0)
	if err != nil {
		return nil, fmt.Errorf("failed to read filesystem: %w", err)
	}

	maps, err := walk(fs, "/")
	if err != nil {
		return nil, err
	}
	if len(maps) == 0 {
		return nil, fmt.Errorf("no .alm files found in %s", isoPath)
	}
	sort.Strings(maps)

	var extracted []string
	for _, p := range maps {
		outputPath := filepath.Join(outputDir, filepath.FromSlash(cleanName(p)))
		if err := copyOut(fs, p, outputPath); err != nil {
			return nil, err
		}
		extracted = append(extracted, outputPath)
	}
	return extracted, nil
}

// walk collects map paths below dir, as stored on the image
func walk(fs filesystem.FileSystem, dir string) ([]string, error) {
	entries, err := fs.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	var maps []string
	for _, e := range entries {
		name := e.Name()
		if name == "." || name == ".." || name == "" {
			continue
		}
		p := path.Join(dir, name)
		if e.IsDir() {
			sub, err := walk(fs, p)
			if err != nil {
				return nil, err
			}
			maps = append(maps, sub...)
			continue
		}
		if IsMapName(name) {
			maps = append(maps, p)
		}
	}
	return maps, nil
}

func copyOut(fs filesystem.FileSystem, src, dst string) error {
	in, err := fs.OpenFile(src, os.O_RDONLY)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", src, err)
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create output file %s: %w", dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("failed to write %s: %w", dst, err)
	}
	return out.Close()
}

// IsMapName reports whether an image entry name is an .alm map. ISO 9660
// names may be upper case and carry a ";1" version suffix.
func IsMapName(name string) bool {
	return strings.EqualFold(path.Ext(cleanName(name)), ".alm")
}

// cleanName strips the ISO 9660 version suffix from every path element and
// lowers the case, as the game does when it looks maps up.
func cleanName(p string) string {
	parts := strings.Split(p, "/")
	for i, part := range parts {
		if j := strings.LastIndexByte(part, ';'); j >= 0 {
			part = part[:j]
		}
		parts[i] = strings.ToLower(strings.TrimSuffix(part, "."))
	}
	return strings.Join(parts, "/")
}
