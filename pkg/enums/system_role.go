package enums

// SystemRole is a role with platform-wide meaning. Approver roles named by
// approval levels are free-form strings and are not constrained to this set.
type SystemRole string

const (
	// SystemRoleAdmin bypasses matrix-derived visibility entirely.
	SystemRoleAdmin SystemRole = "admin"
	// SystemRoleVendor grants owners visibility of their own documents.
	SystemRoleVendor SystemRole = "vendor"
)

// String implements fmt.Stringer.
func (s SystemRole) String() string {
	return string(s)
}
