package room

import "slices"

// PermissionLevel is a character's item permission setting.
type PermissionLevel int

const (
	EveryoneNoExceptions PermissionLevel = iota
	EveryoneExceptBlacklist
	OwnerLoverWhitelistDominants
	OwnerLoverWhitelist
	OwnerLover
	OwnerOnly
)

var permissionNames = []string{
	"Everyone, no exceptions",
	"Everyone, except blacklist",
	"Owner, Lover, whitelist & Dominants",
	"Owner, Lover and whitelist only",
	"Owner and Lover only",
	"Owner only",
}

func (p PermissionLevel) String() string {
	if p < 0 || int(p) >= len(permissionNames) {
		return "Unknown"
	}
	return permissionNames[p]
}

// IsItemPermissionAccessible reports whether caller may use the item
// group/name on c. Owner/lover tier settings lock everyone out; blocked
// items are never accessible; limited items need the caller whitelisted.
func IsItemPermissionAccessible(c Character, group, name string, caller int) bool {
	if c.ItemPermission >= OwnerLover {
		return false
	}
	if c.BlockItems.Has(group, name) {
		return false
	}
	if c.LimitedItems.Has(group, name) && !slices.Contains(c.WhiteList, caller) {
		return false
	}
	return true
}
