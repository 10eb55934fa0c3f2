// Package sorter implements the pairwise preference tournament state machine.
//
// Construction generates every unordered pair of the input once, in a stable
// order. A cursor scans forward for the first pair without a recorded
// preference; recording a preference advances it, undoing the last decision
// rewinds it. The scan keeps presentation deterministic and replayable, which
// is what makes undo reproduce exactly the pair that was just judged.
package sorter

import (
	"fmt"
	"strings"
)

// Match is one unordered pair presented for judgment.
type Match struct {
	Left  string `json:"left"`
	Right string `json:"right"`
}

// historyEntry captures one recorded decision for undo.
type historyEntry struct {
	key   string
	index int
}

// Sorter owns the working set of names, the generated pair queue, the
// per-pair preference records, and the undo history. It is not safe for
// concurrent use; exactly one session drives it.
type Sorter struct {
	items   []string
	pairs   []Match
	index   map[string]int // pair key -> position in pairs
	prefs   map[string]int // pair key -> -1 | 0 | +1; presence means judged
	history []historyEntry
	cursor  int
}

// New creates a sorter for an ordered list of at least two distinct names.
// Pairs are generated i<j over the input order, so the first matchup is
// always items[0] versus items[1].
func New(items []string) (*Sorter, error) {
	if len(items) < 2 {
		return nil, ErrTooFewItems
	}
	seen := make(map[string]struct{}, len(items))
	for _, it := range items {
		if _, dup := seen[it]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateItem, it)
		}
		seen[it] = struct{}{}
	}

	n := len(items)
	s := &Sorter{
		items: append([]string(nil), items...),
		pairs: make([]Match, 0, n*(n-1)/2),
		index: make(map[string]int, n*(n-1)/2),
		prefs: make(map[string]int, n*(n-1)/2),
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			key, _ := pairKey(items[i], items[j])
			s.index[key] = len(s.pairs)
			s.pairs = append(s.pairs, Match{Left: items[i], Right: items[j]})
		}
	}
	return s, nil
}

// NextMatch returns the first pair at or past the cursor without a recorded
// preference. It does not mutate state: repeated calls with no intervening
// write return the same pair. The second return is false once every pair is
// resolved.
func (s *Sorter) NextMatch() (Match, bool) {
	for i := s.cursor; i < len(s.pairs); i++ {
		key, _ := pairKey(s.pairs[i].Left, s.pairs[i].Right)
		if _, judged := s.prefs[key]; !judged {
			return s.pairs[i], true
		}
	}
	return Match{}, false
}

// AddPreference records outcome for the unordered pair {a, b}: +1 the first
// argument preferred, -1 the second, 0 neither. It appends to the undo
// history and advances the cursor past the pair when it was the cursor
// position. Re-recording a pair overwrites the earlier value.
func (s *Sorter) AddPreference(a, b string, outcome int) error {
	if outcome < -1 || outcome > 1 {
		return fmt.Errorf("%w: %d", ErrInvalidPreference, outcome)
	}
	key, swapped := pairKey(a, b)
	idx, ok := s.index[key]
	if !ok {
		return fmt.Errorf("%w: %q vs %q", ErrUnknownPair, a, b)
	}
	if swapped {
		outcome = -outcome
	}
	s.prefs[key] = outcome
	s.history = append(s.history, historyEntry{key: key, index: idx})
	if idx == s.cursor {
		s.cursor++
	}
	return nil
}

// Preference returns the recorded preference for {a, b} relative to argument
// order: +1 a preferred, -1 b preferred, 0 tie or not judged.
func (s *Sorter) Preference(a, b string) int {
	key, swapped := pairKey(a, b)
	v := s.prefs[key]
	if swapped {
		v = -v
	}
	return v
}

// Undo pops the most recent decision, clears its record so the pair reads as
// unjudged again, and rewinds the cursor to re-present it. Returns false
// with no side effect when the history is empty. There is no redo.
func (s *Sorter) Undo() bool {
	if len(s.history) == 0 {
		return false
	}
	last := s.history[len(s.history)-1]
	s.history = s.history[:len(s.history)-1]
	delete(s.prefs, last.key)
	s.cursor = last.index
	return true
}

// CanUndo reports whether the history holds at least one decision.
func (s *Sorter) CanUndo() bool { return len(s.history) > 0 }

// Done reports whether every pair has a recorded preference.
func (s *Sorter) Done() bool {
	_, ok := s.NextMatch()
	return !ok
}

// Items returns the working set in construction order.
func (s *Sorter) Items() []string { return append([]string(nil), s.items...) }

// PairCount returns the total number of generated pairs, C(n, 2).
func (s *Sorter) PairCount() int { return len(s.pairs) }

// Resolved returns how many pairs currently hold a recorded preference.
func (s *Sorter) Resolved() int { return len(s.prefs) }

// HistoryLen returns the number of undoable decisions.
func (s *Sorter) HistoryLen() int { return len(s.history) }

// WinTotals returns, per name, the number of pairs it is preferred in.
func (s *Sorter) WinTotals() map[string]int {
	totals := make(map[string]int, len(s.items))
	for _, it := range s.items {
		totals[it] = 0
	}
	for _, p := range s.pairs {
		switch s.Preference(p.Left, p.Right) {
		case 1:
			totals[p.Left]++
		case -1:
			totals[p.Right]++
		}
	}
	return totals
}

// pairKey normalizes an unordered pair into a map key. The second return
// reports whether the arguments were swapped, so signed preferences can be
// flipped to match storage order.
func pairKey(a, b string) (string, bool) {
	if strings.Compare(a, b) > 0 {
		return b + "\x00" + a, true
	}
	return a + "\x00" + b, false
}
