package pipeline

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Jeathu/MovieLens-Big-Data-project/utils"
)

// ManifestName is the marker file written next to finished outputs.
const ManifestName = "_SUCCESS"

// ManifestEntry describes one output file.
type ManifestEntry struct {
	Name string
	Size int64
	MD5  string
}

// WriteManifest hashes the named files of dir and lists them in dir/_SUCCESS
// as `md5\tsize\tname` lines.
func WriteManifest(dir string, names []string) ([]ManifestEntry, error) {
	entries := make([]ManifestEntry, 0, len(names))
	for _, name := range names {
		sum, size, err := utils.HashFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("hash %s: %w", name, err)
		}
		entries = append(entries, ManifestEntry{Name: name, Size: size, MD5: sum})
	}
	f, err := os.Create(filepath.Join(dir, ManifestName))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	w := bufio.NewWriter(f)
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%d\t%s\n", e.MD5, e.Size, e.Name)
	}
	if err := w.Flush(); err != nil {
		return nil, err
	}
	return entries, f.Close()
}

// ReadManifest parses dir/_SUCCESS.
func ReadManifest(dir string) ([]ManifestEntry, error) {
	data, err := os.ReadFile(filepath.Join(dir, ManifestName))
	if err != nil {
		return nil, err
	}
	entries := make([]ManifestEntry, 0)
	for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		if line == "" {
			continue
		}
		p := strings.Split(line, "\t")
		if len(p) != 3 {
			return nil, fmt.Errorf("malformed manifest line %q", line)
		}
		size, err := strconv.ParseInt(p[1], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("malformed manifest line %q: %w", line, err)
		}
		entries = append(entries, ManifestEntry{MD5: p[0], Size: size, Name: p[2]})
	}
	return entries, nil
}

// VerifyManifest checks every file listed in dir/_SUCCESS against its
// recorded size and md5.
func VerifyManifest(dir string) ([]ManifestEntry, error) {
	entries, err := ReadManifest(dir)
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		sum, size, err := utils.HashFile(filepath.Join(dir, e.Name))
		if err != nil {
			return nil, fmt.Errorf("hash %s: %w", e.Name, err)
		}
		if size != e.Size || sum != e.MD5 {
			return nil, fmt.Errorf("%s does not match the manifest: %d bytes md5 %s, recorded %d bytes md5 %s",
				e.Name, size, sum, e.Size, e.MD5)
		}
	}
	return entries, nil
}
