package purge

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/snykops/orgreap/snykapi"
)

// ErrConfiguration marks errors caused by operator configuration rather
// than the remote API. Such errors are fatal before any destructive action.
var ErrConfiguration = errors.New("invalid configuration")

// ExclusionSet is the immutable collection of protected identifiers and
// names, loaded once per run. Matching is exact and case sensitive; fuzzy
// or normalized matching risks false negatives, and a false negative here
// deletes an organization someone wanted to keep.
type ExclusionSet struct {
	entries []string
	index   map[string]struct{}
}

// LoadExclusions reads one entry per line, dropping blank lines and lines
// whose first non-whitespace character is '#'. An empty result is an error:
// an empty exclusion set is almost certainly a misconfiguration and must
// not silently permit deleting everything.
func LoadExclusions(r io.Reader) (*ExclusionSet, error) {
	set := &ExclusionSet{index: make(map[string]struct{})}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if _, ok := set.index[line]; ok {
			continue
		}
		set.entries = append(set.entries, line)
		set.index[line] = struct{}{}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "reading exclusions")
	}

	if len(set.entries) == 0 {
		return nil, errors.Mark(
			errors.New("exclusion set is empty; refusing to run without any protected organizations"),
			ErrConfiguration)
	}

	return set, nil
}

// LoadExclusionsFile loads the exclusion set from a plain text file.
func LoadExclusionsFile(path string) (*ExclusionSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, "opening exclusions file"), ErrConfiguration)
	}
	defer f.Close()

	set, err := LoadExclusions(f)
	if err != nil {
		return nil, errors.Wrapf(err, "loading exclusions from %s", path)
	}
	return set, nil
}

// Matches reports whether the organization's id or name equals any entry
// verbatim.
func (s *ExclusionSet) Matches(org snykapi.Organization) bool {
	if _, ok := s.index[org.ID]; ok {
		return true
	}
	_, ok := s.index[org.Name]
	return ok
}

// Len returns the number of distinct entries.
func (s *ExclusionSet) Len() int { return len(s.entries) }

// Entries returns the entries in file order.
func (s *ExclusionSet) Entries() []string {
	out := make([]string, len(s.entries))
	copy(out, s.entries)
	return out
}
