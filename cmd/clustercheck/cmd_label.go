package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/agenthands/clustercheck/internal/codec"
)

func newLabelCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "label",
		Short: "Record directory reviews in a label file",
		Long: `A label file lists reviewed directories as "*dir" lines, each followed by the
files in it that do not belong with the rest. It can be loaded as input by
every other command.`,
	}
	cmd.PersistentFlags().StringP("file", "f", "labels.txt", "Label file to read and append to")

	add := &cobra.Command{
		Use:   "add [dir] [wrong-file...]",
		Short: "Append the review of one directory",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runLabelAdd,
	}
	pending := &cobra.Command{
		Use:   "pending [root]",
		Short: "List subdirectories of root not reviewed yet",
		Args:  cobra.ExactArgs(1),
		RunE:  runLabelPending,
	}
	cmd.AddCommand(add, pending)
	return cmd
}

// seenDirectories reads the label file; a missing file has seen nothing.
func seenDirectories(path string) (map[string]struct{}, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]struct{}{}, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return codec.SeenDirectories(f)
}

func runLabelAdd(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("file")
	dir, wrong := args[0], args[1:]

	seen, err := seenDirectories(path)
	if err != nil {
		return err
	}
	if _, ok := seen[dir]; ok {
		return fmt.Errorf("%s is already reviewed in %s", dir, path)
	}

	files, err := codec.DirLister{}.ListFiles(dir)
	if err != nil {
		return err
	}
	present := make(map[string]struct{}, len(files))
	for _, f := range files {
		present[f] = struct{}{}
	}
	for _, w := range wrong {
		_, full := present[w]
		_, rel := present[filepath.Join(dir, w)]
		if !full && !rel {
			return fmt.Errorf("%s is not a file in %s", w, dir)
		}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := codec.WriteLabelBlock(f, dir, wrong); err != nil {
		return err
	}
	return f.Close()
}

func runLabelPending(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("file")
	seen, err := seenDirectories(path)
	if err != nil {
		return err
	}

	entries, err := os.ReadDir(args[0])
	if err != nil {
		return err
	}
	var pending []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		dir := filepath.Join(args[0], e.Name())
		if _, ok := seen[dir]; !ok {
			pending = append(pending, dir)
		}
	}
	sort.Strings(pending)
	for _, dir := range pending {
		fmt.Fprintln(cmd.OutOrStdout(), dir)
	}
	return nil
}
