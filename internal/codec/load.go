package codec

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// LoadFile reads a paired clustering, picking the format from the file
// extension: .json and .yaml/.yml are paired records, anything else is a
// label file whose directories are enumerated with lister.
func LoadFile(path string, lister FileLister) (Paired, error) {
	f, err := os.Open(path)
	if err != nil {
		return Paired{}, err
	}
	defer f.Close()

	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	switch ext {
	case "json", "yaml", "yml":
		c, err := ForFormat(ext)
		if err != nil {
			return Paired{}, err
		}
		p, err := c.Parse(f)
		if err != nil {
			return Paired{}, fmt.Errorf("%s: %w", path, err)
		}
		return p, nil
	default:
		p, err := ParseLabels(f, lister)
		if err != nil {
			return Paired{}, fmt.Errorf("%s: %w", path, err)
		}
		return p, nil
	}
}
