package enums

import "fmt"

// ActivityType classifies audit trail entries.
type ActivityType string

const (
	ActivityTypeCreate   ActivityType = "create"
	ActivityTypeUpdate   ActivityType = "update"
	ActivityTypeDelete   ActivityType = "delete"
	ActivityTypeLogin    ActivityType = "login"
	ActivityTypeLogout   ActivityType = "logout"
	ActivityTypeView     ActivityType = "view"
	ActivityTypeSuspend  ActivityType = "suspend"
	ActivityTypeActivate ActivityType = "activate"
	ActivityTypeOther    ActivityType = "other"
)

var validActivityTypes = []ActivityType{
	ActivityTypeCreate,
	ActivityTypeUpdate,
	ActivityTypeDelete,
	ActivityTypeLogin,
	ActivityTypeLogout,
	ActivityTypeView,
	ActivityTypeSuspend,
	ActivityTypeActivate,
	ActivityTypeOther,
}

// String implements fmt.Stringer.
func (a ActivityType) String() string {
	return string(a)
}

// IsValid reports whether the value is a known ActivityType.
func (a ActivityType) IsValid() bool {
	for _, candidate := range validActivityTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseActivityType converts raw input into an ActivityType.
func ParseActivityType(value string) (ActivityType, error) {
	for _, candidate := range validActivityTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid activity type %q", value)
}
