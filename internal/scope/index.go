package scope

import (
	"sort"

	"telecom-erp-backend/internal/models"
)

// StoreEntry is the slice of a store the resolver and dashboards need.
type StoreEntry struct {
	ID       uint               `json:"id"`
	BranchID uint               `json:"branch_id"`
	Name     string             `json:"name"`
	Status   models.StoreStatus `json:"status"`
}

// StoreIndex maps store ids to their owning branch.
type StoreIndex struct {
	Entries []StoreEntry `json:"entries"`
}

// NewStoreIndex builds an index from store rows.
func NewStoreIndex(stores []models.Store) StoreIndex {
	entries := make([]StoreEntry, 0, len(stores))
	for _, s := range stores {
		entries = append(entries, StoreEntry{
			ID:       s.ID,
			BranchID: s.BranchID,
			Name:     s.Name,
			Status:   s.Status,
		})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].ID < entries[j].ID })
	return StoreIndex{Entries: entries}
}

// StoresOfBranch lists the store ids owned by branchID, inactive stores
// included since their sale history stays visible.
func (x StoreIndex) StoresOfBranch(branchID uint) []uint {
	var ids []uint
	for _, e := range x.Entries {
		if e.BranchID == branchID {
			ids = append(ids, e.ID)
		}
	}
	return ids
}

func (x StoreIndex) Lookup(storeID uint) (StoreEntry, bool) {
	for _, e := range x.Entries {
		if e.ID == storeID {
			return e, true
		}
	}
	return StoreEntry{}, false
}

// Visible returns the entries inside s.
func (x StoreIndex) Visible(s AccessibleScope) []StoreEntry {
	out := make([]StoreEntry, 0, len(x.Entries))
	for _, e := range x.Entries {
		if s.Contains(e.ID) {
			out = append(out, e)
		}
	}
	return out
}

// BranchCount counts distinct branches among the entries inside s.
func (x StoreIndex) BranchCount(s AccessibleScope) int {
	seen := make(map[uint]struct{})
	for _, e := range x.Visible(s) {
		seen[e.BranchID] = struct{}{}
	}
	return len(seen)
}
