package role

import "fmt"

// Role is the closed set of account roles. The integer values are stable and
// stored in the database as role_id.
type Role int

const (
	Administrator Role = 1
	CompanyOwner  Role = 2
	Customer      Role = 3
	Guide         Role = 4
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case Administrator, CompanyOwner, Customer, Guide:
		return true
	default:
		return false
	}
}

// CompanyScoped reports whether accounts with this role must belong to a company.
func (r Role) CompanyScoped() bool {
	return r == CompanyOwner || r == Guide
}

func (r Role) String() string {
	switch r {
	case Administrator:
		return "administrator"
	case CompanyOwner:
		return "company_owner"
	case Customer:
		return "customer"
	case Guide:
		return "guide"
	default:
		return fmt.Sprintf("role(%d)", int(r))
	}
}

// FromID converts a stored role_id into a Role, failing on unknown values.
func FromID(id int) (Role, error) {
	r := Role(id)
	if !r.Valid() {
		return 0, fmt.Errorf("unknown role id %d", id)
	}
	return r, nil
}

// Parse converts an API role name into a Role, failing on unknown names.
func Parse(name string) (Role, error) {
	switch name {
	case "administrator":
		return Administrator, nil
	case "company_owner", "owner":
		return CompanyOwner, nil
	case "customer":
		return Customer, nil
	case "guide":
		return Guide, nil
	default:
		return 0, fmt.Errorf("unknown role %q", name)
	}
}
