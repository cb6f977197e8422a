package scope

import (
	"errors"
	"fmt"

	"telecom-erp-backend/internal/models"
)

var (
	ErrConfiguration = errors.New("user organization linkage is inconsistent")
	ErrUnknownRole   = errors.New("unknown role")
)

// ConfigurationError: a branch user without a branch, or a store user
// without a store.
type ConfigurationError struct {
	UserID uint
	Role   models.UserRole
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("user %d (%s): %s", e.UserID, e.Role, e.Reason)
}

func (e *ConfigurationError) Unwrap() error { return ErrConfiguration }

type UnknownRoleError struct {
	UserID uint
	Role   models.UserRole
}

func (e *UnknownRoleError) Error() string {
	return fmt.Sprintf("user %d: unknown role %q", e.UserID, e.Role)
}

func (e *UnknownRoleError) Unwrap() error { return ErrUnknownRole }

// Principal is one of Headquarters, Developer, BranchPrincipal or
// StorePrincipal. The unexported method closes the set.
type Principal interface {
	Role() models.UserRole
	principal()
}

type Headquarters struct{}

type Developer struct{}

type BranchPrincipal struct {
	BranchID uint
}

type StorePrincipal struct {
	StoreID  uint
	BranchID uint // 0 when unknown
}

func (Headquarters) Role() models.UserRole    { return models.RoleHeadquarters }
func (Developer) Role() models.UserRole       { return models.RoleDeveloper }
func (BranchPrincipal) Role() models.UserRole { return models.RoleBranch }
func (StorePrincipal) Role() models.UserRole  { return models.RoleStore }

func (Headquarters) principal()    {}
func (Developer) principal()       {}
func (BranchPrincipal) principal() {}
func (StorePrincipal) principal()  {}

// PrincipalFromUser checks the role/branch/store linkage of u.
func PrincipalFromUser(u *models.User) (Principal, error) {
	if u == nil {
		return nil, &ConfigurationError{Reason: "no user"}
	}
	switch u.Role {
	case models.RoleHeadquarters:
		return Headquarters{}, nil
	case models.RoleDeveloper:
		return Developer{}, nil
	case models.RoleBranch:
		if u.BranchID == nil || *u.BranchID == 0 {
			return nil, &ConfigurationError{UserID: u.ID, Role: u.Role, Reason: "branch user has no branch"}
		}
		return BranchPrincipal{BranchID: *u.BranchID}, nil
	case models.RoleStore:
		if u.StoreID == nil || *u.StoreID == 0 {
			return nil, &ConfigurationError{UserID: u.ID, Role: u.Role, Reason: "store user has no store"}
		}
		p := StorePrincipal{StoreID: *u.StoreID}
		if u.BranchID != nil {
			p.BranchID = *u.BranchID
		}
		return p, nil
	default:
		return nil, &UnknownRoleError{UserID: u.ID, Role: u.Role}
	}
}

// Resolve maps a principal to the stores it may query. A nil or foreign
// Principal fails closed with UnknownRoleError.
func Resolve(p Principal, stores StoreIndex) (AccessibleScope, error) {
	switch v := p.(type) {
	case Headquarters:
		return All(models.RoleHeadquarters), nil
	case Developer:
		return All(models.RoleDeveloper), nil
	case BranchPrincipal:
		if v.BranchID == 0 {
			return AccessibleScope{}, &ConfigurationError{Role: models.RoleBranch, Reason: "branch user has no branch"}
		}
		return Stores(models.RoleBranch, stores.StoresOfBranch(v.BranchID)...), nil
	case StorePrincipal:
		if v.StoreID == 0 {
			return AccessibleScope{}, &ConfigurationError{Role: models.RoleStore, Reason: "store user has no store"}
		}
		return Stores(models.RoleStore, v.StoreID), nil
	default:
		return AccessibleScope{}, &UnknownRoleError{}
	}
}

// ResolveUser is PrincipalFromUser followed by Resolve.
func ResolveUser(u *models.User, stores StoreIndex) (AccessibleScope, error) {
	p, err := PrincipalFromUser(u)
	if err != nil {
		return AccessibleScope{}, err
	}
	return Resolve(p, stores)
}
