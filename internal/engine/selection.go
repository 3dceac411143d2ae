package engine

import (
	"slices"

	"github.com/samber/lo"
)

// Selection is an ordered set of node ids. The last id is the primary one,
// which drives single-node operations such as the snapping reference box.
type Selection struct {
	ids []string
}

// IDs returns a copy of the selected ids, or nil when nothing is selected.
func (s *Selection) IDs() []string {
	if len(s.ids) == 0 {
		return nil
	}
	return slices.Clone(s.ids)
}

func (s *Selection) Len() int { return len(s.ids) }

func (s *Selection) Empty() bool { return len(s.ids) == 0 }

// Primary returns the most recently added id.
func (s *Selection) Primary() (string, bool) {
	if len(s.ids) == 0 {
		return "", false
	}
	return s.ids[len(s.ids)-1], true
}

func (s *Selection) Contains(id string) bool {
	return lo.Contains(s.ids, id)
}

// Single reports whether exactly one node is selected.
func (s *Selection) Single() bool { return len(s.ids) == 1 }

// Replace makes ids the whole selection. Duplicates keep their first
// position.
func (s *Selection) Replace(ids ...string) {
	s.ids = lo.Uniq(ids)
}

// Toggle adds id when absent and removes it when present.
func (s *Selection) Toggle(id string) {
	if s.Contains(id) {
		s.ids = lo.Without(s.ids, id)
		return
	}
	s.ids = append(s.ids, id)
}

// Remove drops ids from the selection and reports whether any were present.
func (s *Selection) Remove(ids ...string) bool {
	before := len(s.ids)
	s.ids = lo.Without(s.ids, ids...)
	return len(s.ids) != before
}

// Union appends every id not already selected, in order.
func (s *Selection) Union(ids ...string) {
	s.ids = lo.Union(s.ids, ids)
}

func (s *Selection) Clear() { s.ids = nil }

// Retain keeps only the ids for which keep returns true.
func (s *Selection) Retain(keep func(id string) bool) bool {
	before := len(s.ids)
	s.ids = lo.Filter(s.ids, func(id string, _ int) bool { return keep(id) })
	return len(s.ids) != before
}

// Equal reports whether the selection holds exactly ids in that order.
func (s *Selection) Equal(ids []string) bool {
	return slices.Equal(s.ids, ids)
}
