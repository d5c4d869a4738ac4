package moderation

import (
	"fmt"
	"io/fs"
	"path"
	"pulse-lab/errors"
	"slices"
	"strings"

	"github.com/samber/lo"
)

// Dictionary is a censored word list gathered from "<lang>.txt" files, one word
// per line. Lines starting with '#' are comments.
type Dictionary struct {
	Words     []string
	Languages []string
}

func LoadDictionary(fsys fs.FS, dir string) (Dictionary, error) {
	files, err := fs.Glob(fsys, path.Join(dir, "*.txt"))
	if err != nil {
		return Dictionary{}, err
	}

	var dict Dictionary
	for _, file := range files {
		data, err := fs.ReadFile(fsys, file)
		if err != nil {
			return Dictionary{}, fmt.Errorf("read %s: %w", file, err)
		}
		dict.Languages = append(dict.Languages, strings.TrimSuffix(path.Base(file), ".txt"))
		for line := range strings.Lines(string(data)) {
			if word := strings.TrimSpace(line); word != "" && !strings.HasPrefix(word, "#") {
				dict.Words = append(dict.Words, word)
			}
		}
	}

	dict.Words = lo.Uniq(dict.Words)
	if len(dict.Words) == 0 {
		return Dictionary{}, fmt.Errorf("%w in %s", errors.ErrEmptyWords, dir)
	}
	slices.Sort(dict.Words)
	return dict, nil
}
