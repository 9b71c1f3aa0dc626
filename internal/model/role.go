package model

// User types
const (
	RoleAdmin   = "ADMIN"
	RoleManager = "MANAGER"
	RoleCashier = "CASHIER"
)

// Modules guarded by UserRight.
const (
	ModuleSales     = "Sales"
	ModuleInvoices  = "Invoices"
	ModuleProducts  = "Products"
	ModuleDashboard = "Dashboard"
	ModulePurchases = "Purchases"
	ModuleUsers     = "Users"
)

var AllModules = []string{
	ModuleSales,
	ModuleInvoices,
	ModuleProducts,
	ModuleDashboard,
	ModulePurchases,
	ModuleUsers,
}

// DefaultRights returns the rights granted to a new user of the given type.
func DefaultRights(userType string) []UserRight {
	switch userType {
	case RoleAdmin:
		rights := make([]UserRight, 0, len(AllModules))
		for _, m := range AllModules {
			rights = append(rights, UserRight{ModuleName: m, CanSave: true, CanUpdate: true, CanDelete: true, CanView: true})
		}
		return rights
	case RoleManager:
		return []UserRight{
			{ModuleName: ModuleSales, CanSave: true, CanView: true},
			{ModuleName: ModuleInvoices, CanView: true},
			{ModuleName: ModuleProducts, CanSave: true, CanUpdate: true, CanView: true},
			{ModuleName: ModuleDashboard, CanView: true},
			{ModuleName: ModulePurchases, CanView: true},
		}
	default:
		return []UserRight{
			{ModuleName: ModuleSales, CanSave: true, CanView: true},
			{ModuleName: ModuleInvoices, CanView: true},
			{ModuleName: ModuleProducts, CanView: true},
		}
	}
}

// ValidUserType reports whether t is a known user type.
func ValidUserType(t string) bool {
	switch t {
	case RoleAdmin, RoleManager, RoleCashier:
		return true
	}
	return false
}
