package identity

import (
	"context"

	"github.com/clinicore/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Membership links a user to a clinic with a role. A user may hold
// different roles in different clinics; the acting role for a request is
// resolved from the membership set, never from ad-hoc branching.
type Membership struct {
	shared.BaseEntity
	UserID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_membership_user_clinic,priority:1"`
	ClinicID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_membership_user_clinic,priority:2"`
	Role     Role      `gorm:"type:varchar(32);not null"`
}

// TableName returns the table name for GORM
func (Membership) TableName() string {
	return "memberships"
}

// NewMembership creates a membership after validating its fields
func NewMembership(userID, clinicID uuid.UUID, role Role) (*Membership, error) {
	if userID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_USER", "User ID cannot be empty")
	}
	if clinicID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CLINIC", "Clinic ID cannot be empty")
	}
	if !role.IsValid() {
		return nil, shared.NewDomainError("INVALID_ROLE", "Unknown role: "+role.String())
	}
	return &Membership{
		BaseEntity: shared.NewBaseEntity(),
		UserID:     userID,
		ClinicID:   clinicID,
		Role:       role,
	}, nil
}

// rolePrecedence orders roles for acting-role resolution when a user holds
// several roles across clinics. Higher value wins.
var rolePrecedence = map[Role]int{
	RoleAdmin:        3,
	RoleDoctor:       2,
	RoleReceptionist: 1,
}

// ResolveActingRole picks the role a user acts under for a request against
// the given clinic.
//
// Precedence:
//  1. A SUPER_ADMIN membership anywhere grants SUPER_ADMIN everywhere.
//  2. Among memberships in the requested clinic, the highest-precedence
//     role wins (admin > doctor > receptionist), falling back to the
//     first-available membership's role.
//
// Returns ErrForbidden when the user holds no membership in the requested
// clinic and no bypassing role.
func ResolveActingRole(memberships []Membership, requestedClinicID uuid.UUID) (Role, error) {
	if len(memberships) == 0 {
		return "", shared.ErrForbidden
	}

	for _, m := range memberships {
		if m.Role == RoleSuperAdmin {
			return RoleSuperAdmin, nil
		}
	}

	var inClinic []Membership
	for _, m := range memberships {
		if m.ClinicID == requestedClinicID {
			inClinic = append(inClinic, m)
		}
	}
	if len(inClinic) == 0 {
		return "", shared.ErrForbidden
	}

	return PreferredRole(inClinic), nil
}

// PreferredRole returns the highest-precedence role across the membership
// set, used when a session must pick a default clinic context.
func PreferredRole(memberships []Membership) Role {
	if len(memberships) == 0 {
		return ""
	}
	best := memberships[0].Role
	bestRank := rolePrecedence[best]
	for _, m := range memberships[1:] {
		if rank := rolePrecedence[m.Role]; rank > bestRank {
			best = m.Role
			bestRank = rank
		}
	}
	return best
}

// MembershipRepository provides persistence for memberships
type MembershipRepository interface {
	FindByUser(ctx context.Context, userID uuid.UUID) ([]Membership, error)
	FindByUserAndClinic(ctx context.Context, userID, clinicID uuid.UUID) (*Membership, error)
	Save(ctx context.Context, membership *Membership) error
}
