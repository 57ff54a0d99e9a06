package models

const (
	RoleAdministrator int = 1
	RoleEditor        int = 2
	RoleViewer        int = 3
)

// administratorRoles are the role ids that grant administrative rights in an organization
var administratorRoles = []int{RoleAdministrator}

const (
	InvitationPending  string = "pending"
	InvitationAccepted string = "accepted"
	InvitationRevoked  string = "revoked"
)

const (
	SubscriptionActive   string = "active"
	SubscriptionTrialing string = "trialing"
	SubscriptionCanceled string = "canceled"
)

const (
	ThemeLight string = "light"
	ThemeDark  string = "dark"
)
