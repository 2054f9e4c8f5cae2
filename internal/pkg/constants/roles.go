package constants

import "homesocial-backend/internal/domain"

// SelfAssignableRoles are the roles a user may pick on their own profile.
// admin is granted out of band.
var SelfAssignableRoles = []domain.Role{domain.RoleBuyer, domain.RoleSeller, domain.RolePro}

// DefaultRole is given to every new profile.
const DefaultRole = domain.RoleBuyer

// IsSelfAssignableRole returns true if role may be set through the profile form.
func IsSelfAssignableRole(role string) bool {
	for _, r := range SelfAssignableRoles {
		if string(r) == role {
			return true
		}
	}
	return false
}
