// Package scope decides which stores a user may see.
//
// The organizational hierarchy is headquarters ⊇ branch ⊇ store. A user is
// first turned into a Principal (a closed set of variants), then Resolve
// matches on it exhaustively to produce an AccessibleScope. Every listing
// and aggregation intersects its working set with that scope; nothing here
// reads session or global state.
//
// Usage:
//
//	p, err := scope.PrincipalFromUser(user)
//	s, err := scope.Resolve(p, index)
//	db.Scopes(s.Apply("store_id")).Find(&records)
package scope

import (
	"sort"

	"telecom-erp-backend/internal/models"

	"gorm.io/gorm"
)

// AccessibleScope is the request-scoped set of visible stores. The zero
// value sees nothing.
type AccessibleScope struct {
	role     models.UserRole
	all      bool
	storeIDs map[uint]struct{}
}

// All returns the unrestricted scope.
func All(role models.UserRole) AccessibleScope {
	return AccessibleScope{role: role, all: true}
}

// Stores returns a scope restricted to ids.
func Stores(role models.UserRole, ids ...uint) AccessibleScope {
	set := make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return AccessibleScope{role: role, storeIDs: set}
}

func (s AccessibleScope) Role() models.UserRole { return s.role }

// IsAll reports whether the scope is unrestricted.
func (s AccessibleScope) IsAll() bool { return s.all }

func (s AccessibleScope) Contains(storeID uint) bool {
	if s.all {
		return true
	}
	_, ok := s.storeIDs[storeID]
	return ok
}

// Size is the number of stores in a restricted scope, -1 for All.
func (s AccessibleScope) Size() int {
	if s.all {
		return -1
	}
	return len(s.storeIDs)
}

// IsEmpty reports whether the scope can see no store at all.
func (s AccessibleScope) IsEmpty() bool {
	return !s.all && len(s.storeIDs) == 0
}

// StoreIDs returns the ids in ascending order; nil for All.
func (s AccessibleScope) StoreIDs() []uint {
	if s.all {
		return nil
	}
	ids := make([]uint, 0, len(s.storeIDs))
	for id := range s.storeIDs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Intersect narrows s to ids. It never widens: All ∩ ids = ids and a
// restricted scope drops every id it does not already contain.
func (s AccessibleScope) Intersect(ids []uint) AccessibleScope {
	out := AccessibleScope{role: s.role, storeIDs: make(map[uint]struct{}, len(ids))}
	for _, id := range ids {
		if s.Contains(id) {
			out.storeIDs[id] = struct{}{}
		}
	}
	return out
}

// Apply restricts a query on column to the scope.
func (s AccessibleScope) Apply(column string) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if s.all {
			return db
		}
		if len(s.storeIDs) == 0 {
			return db.Where("1 = 0")
		}
		return db.Where(column+" IN ?", s.StoreIDs())
	}
}
