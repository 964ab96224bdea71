package identity

// Role represents the role an actor holds within a clinic
type Role string

const (
	RoleDoctor             Role = "DOCTOR"
	RoleReceptionist       Role = "RECEPTIONIST"
	RolePharmacy           Role = "PHARMACY"
	RoleLab                Role = "LAB"
	RoleRadiology          Role = "RADIOLOGY"
	RoleAccountant         Role = "ACCOUNTANT"
	RoleAdmin              Role = "ADMIN"
	RoleSuperAdmin         Role = "SUPER_ADMIN"
	RoleDocumentController Role = "DOCUMENT_CONTROLLER"
	RolePatient            Role = "PATIENT"
)

// IsValid checks if the role is a known Role
func (r Role) IsValid() bool {
	switch r {
	case RoleDoctor, RoleReceptionist, RolePharmacy, RoleLab, RoleRadiology,
		RoleAccountant, RoleAdmin, RoleSuperAdmin, RoleDocumentController, RolePatient:
		return true
	}
	return false
}

// String returns the string representation of the role
func (r Role) String() string {
	return string(r)
}

// BypassesClinicMembership reports whether the role may act in any clinic
// without holding a membership there.
func (r Role) BypassesClinicMembership() bool {
	return r == RoleSuperAdmin
}
