package risk

// ResourceType is the closed enumeration of requestable resource
// classes. Free-text matching against these names was the main latent
// bug source in older rule tables, so lookups go through ParseResourceType
// and unknown strings deliberately land on the lowest meaningful tier.
type ResourceType string

const (
	ResourceAdminRole           ResourceType = "admin_role"
	ResourcePrivilegedAccount   ResourceType = "privileged_account"
	ResourceFinancialSystem     ResourceType = "financial_system"
	ResourceProductionSystem    ResourceType = "production_system"
	ResourceDatabaseAdmin       ResourceType = "database_admin"
	ResourceSecuritySystem      ResourceType = "security_system"
	ResourceHRSystem            ResourceType = "hr_system"
	ResourceStandardApplication ResourceType = "standard_application"
	ResourceReadOnly            ResourceType = "read_only"
)

// resourceBasePoints is the fixed request-scoring table.
var resourceBasePoints = map[ResourceType]int{
	ResourceAdminRole:           30,
	ResourcePrivilegedAccount:   28,
	ResourceDatabaseAdmin:       26,
	ResourceFinancialSystem:     25,
	ResourceSecuritySystem:      24,
	ResourceProductionSystem:    22,
	ResourceHRSystem:            20,
	ResourceStandardApplication: 8,
	ResourceReadOnly:            5,
}

// ParseResourceType maps a raw resource-type string onto the closed
// enumeration, defaulting unknowns to standard_application.
func ParseResourceType(raw string) ResourceType {
	rt := ResourceType(raw)
	if _, ok := resourceBasePoints[rt]; ok {
		return rt
	}
	return ResourceStandardApplication
}

// BasePoints returns the base risk points for a resource type. Unknown
// types score as standard_application.
func BasePoints(rt ResourceType) int {
	if pts, ok := resourceBasePoints[rt]; ok {
		return pts
	}
	return resourceBasePoints[ResourceStandardApplication]
}

// EstimatedLevel is the standing risk tier of a resource class,
// independent of any requester. Used to gate auto-approval.
func EstimatedLevel(rt ResourceType) Level {
	return LevelForScore(BasePoints(rt))
}
