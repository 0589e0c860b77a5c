package output

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sukalov/uta/internal/utils"
)

// FileName returns "<title> - <artist><ext>" made safe for the filesystem.
func FileName(title, artist, ext string) string {
	name := strings.TrimSpace(title)
	if a := strings.TrimSpace(artist); a != "" {
		name += " - " + a
	}
	return utils.SafeFileName(name) + ext
}

// AlbumDir returns the folder album tracks are exported into.
func AlbumDir(base, album, artist string) string {
	return filepath.Join(base, FileName(album, artist, ""))
}

// WriteFile writes data to path through a temp file in the same directory,
// so a failed write never leaves a partial file behind.
func WriteFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to chmod %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to move %s into place: %w", path, err)
	}
	return nil
}
