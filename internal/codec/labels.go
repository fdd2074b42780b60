package codec

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/agenthands/clustercheck/internal/core/cluster"
)

// FileLister enumerates the files of one predicted cluster directory.
type FileLister interface {
	ListFiles(dir string) ([]string, error)
}

// DirLister lists the regular files of a directory on disk, joined with the
// directory path and sorted.
type DirLister struct{}

func (DirLister) ListFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if e.Type().IsRegular() {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

// LabelBlock is one reviewed directory and the files marked as not belonging.
type LabelBlock struct {
	Dir   string
	Wrong []string
}

// ReadLabels splits a label file into blocks. A line starting with '*' opens
// a directory; the lines after it name its wrong files. Blank lines are
// skipped.
func ReadLabels(r io.Reader) ([]LabelBlock, error) {
	var blocks []LabelBlock
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "*") {
			blocks = append(blocks, LabelBlock{Dir: line[1:]})
			continue
		}
		if len(blocks) == 0 {
			return nil, fmt.Errorf("%w: line %d: file %q before any directory", ErrMalformed, lineNo, line)
		}
		last := &blocks[len(blocks)-1]
		last.Wrong = append(last.Wrong, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return blocks, nil
}

// BuildFromLabels turns reviewed directories into a paired clustering. Each
// directory is one predicted cluster. In the actual graph its correct files
// stay together and every wrong file is a singleton.
func BuildFromLabels(blocks []LabelBlock, lister FileLister) (Paired, error) {
	p := Paired{Actual: cluster.New(), Predicted: cluster.New()}
	for _, b := range blocks {
		if err := addBlock(p, b, lister); err != nil {
			return Paired{}, err
		}
	}
	return p, nil
}

func addBlock(p Paired, b LabelBlock, lister FileLister) error {
	if b.Dir == "" {
		return nil
	}
	files, err := lister.ListFiles(b.Dir)
	if err != nil {
		return fmt.Errorf("list %s: %w", b.Dir, err)
	}
	if len(files) == 0 {
		return nil
	}

	present := make(map[string]struct{}, len(files))
	for _, f := range files {
		present[f] = struct{}{}
	}
	wrong := make(map[string]struct{}, len(b.Wrong))
	for _, w := range b.Wrong {
		name, ok := resolveLabel(b.Dir, w, present)
		if !ok {
			return fmt.Errorf("%w: %s: unknown file %q", ErrMalformed, b.Dir, w)
		}
		wrong[name] = struct{}{}
	}

	var anchor string
	for _, f := range files {
		if err := p.Actual.Insert(f); err != nil {
			return fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		if err := p.Predicted.Insert(f); err != nil {
			return fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		if err := p.Predicted.Merge(files[0], f); err != nil {
			return err
		}
		if _, bad := wrong[f]; bad {
			continue
		}
		if anchor == "" {
			anchor = f
		}
		if err := p.Actual.Merge(anchor, f); err != nil {
			return err
		}
	}
	return nil
}

// resolveLabel accepts a wrong-file entry written either as the full path or
// relative to its directory.
func resolveLabel(dir, label string, present map[string]struct{}) (string, bool) {
	if _, ok := present[label]; ok {
		return label, true
	}
	joined := filepath.Join(dir, label)
	_, ok := present[joined]
	return joined, ok
}

// ParseLabels reads a label file and builds the paired clustering from it.
func ParseLabels(r io.Reader, lister FileLister) (Paired, error) {
	blocks, err := ReadLabels(r)
	if err != nil {
		return Paired{}, err
	}
	return BuildFromLabels(blocks, lister)
}

// WriteLabelBlock appends one reviewed directory to a label file.
func WriteLabelBlock(w io.Writer, dir string, wrong []string) error {
	var sb strings.Builder
	sb.WriteString("*" + dir + "\n")
	for _, name := range wrong {
		sb.WriteString(name + "\n")
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

// SeenDirectories returns the directories a label file already covers, so a
// review can resume where it stopped.
func SeenDirectories(r io.Reader) (map[string]struct{}, error) {
	blocks, err := ReadLabels(r)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{}, len(blocks))
	for _, b := range blocks {
		seen[b.Dir] = struct{}{}
	}
	return seen, nil
}
