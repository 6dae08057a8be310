package auth

const (
	RoleAdmin      = "admin"
	RoleSupervisor = "supervisor"
	RoleContractor = "contractor"
	RoleEmployer   = "employer"
)

var Roles = []string{RoleAdmin, RoleSupervisor, RoleContractor, RoleEmployer}

func ValidRole(name string) bool {
	for _, role := range Roles {
		if role == name {
			return true
		}
	}
	return false
}
