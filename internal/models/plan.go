package models

// Resource type constants for quota accounting
const (
	ResourceProjects    = "projects"
	ResourceSubmissions = "submissions"
	ResourceSEOTools    = "seoTools"
	ResourceBacklinks   = "backlinks"
	ResourceReports     = "reports"
)

// Unlimited is the sentinel limit value meaning no cap
const Unlimited = -1

// Resources lists all quota resource types
var Resources = []string{
	ResourceProjects,
	ResourceSubmissions,
	ResourceSEOTools,
	ResourceBacklinks,
	ResourceReports,
}

// PlanLimits defines per-resource limits for a plan tier. -1 means unlimited.
type PlanLimits struct {
	Projects    int `json:"projects"`
	Submissions int `json:"submissions"`
	SEOTools    int `json:"seo_tools"`
	Backlinks   int `json:"backlinks"`
	Reports     int `json:"reports"`
}

// TierLimits defines the default limits per plan tier
var TierLimits = map[string]PlanLimits{
	TierFree:       {Projects: 1, Submissions: 1, SEOTools: 5, Backlinks: 10, Reports: 2},
	TierPro:        {Projects: 3, Submissions: 25, SEOTools: 50, Backlinks: 100, Reports: 10},
	TierBusiness:   {Projects: 10, Submissions: 100, SEOTools: 200, Backlinks: 500, Reports: 50},
	TierEnterprise: {Projects: Unlimited, Submissions: Unlimited, SEOTools: Unlimited, Backlinks: Unlimited, Reports: Unlimited},
}

// TierTokenUsage defines how many redemptions a single bookmarklet token
// grants per plan tier
var TierTokenUsage = map[string]int{
	TierFree:       1,
	TierPro:        5,
	TierBusiness:   10,
	TierEnterprise: 25,
}

// LimitsForTier returns the limits for a tier, defaulting to free for unknown tiers
func LimitsForTier(tier string) PlanLimits {
	if limits, ok := TierLimits[tier]; ok {
		return limits
	}
	return TierLimits[TierFree]
}

// TokenUsageForTier returns the per-token usage ceiling for a tier,
// defaulting to the free tier for unknown tiers
func TokenUsageForTier(tier string) int {
	if n, ok := TierTokenUsage[tier]; ok {
		return n
	}
	return TierTokenUsage[TierFree]
}

// For returns the limit for a resource type
func (p PlanLimits) For(resource string) int {
	switch resource {
	case ResourceProjects:
		return p.Projects
	case ResourceSubmissions:
		return p.Submissions
	case ResourceSEOTools:
		return p.SEOTools
	case ResourceBacklinks:
		return p.Backlinks
	case ResourceReports:
		return p.Reports
	default:
		return 0
	}
}

// EffectiveLimit resolves the limit for a user: a per-user override wins,
// otherwise the tier default applies
func EffectiveLimit(tier string, overrides map[string]int, resource string) int {
	if overrides != nil {
		if limit, ok := overrides[resource]; ok {
			return limit
		}
	}
	return LimitsForTier(tier).For(resource)
}

// EffectiveLimits returns the full limit set for a user with overrides applied
func EffectiveLimits(tier string, overrides map[string]int) PlanLimits {
	return PlanLimits{
		Projects:    EffectiveLimit(tier, overrides, ResourceProjects),
		Submissions: EffectiveLimit(tier, overrides, ResourceSubmissions),
		SEOTools:    EffectiveLimit(tier, overrides, ResourceSEOTools),
		Backlinks:   EffectiveLimit(tier, overrides, ResourceBacklinks),
		Reports:     EffectiveLimit(tier, overrides, ResourceReports),
	}
}

// RenderLimit converts a limit to its API representation: -1 becomes "unlimited"
func RenderLimit(limit int) interface{} {
	if limit == Unlimited {
		return "unlimited"
	}
	return limit
}

// Render returns the API representation of the limit set, with -1 rendered
// as "unlimited"
func (p PlanLimits) Render() map[string]interface{} {
	return map[string]interface{}{
		ResourceProjects:    RenderLimit(p.Projects),
		ResourceSubmissions: RenderLimit(p.Submissions),
		ResourceSEOTools:    RenderLimit(p.SEOTools),
		ResourceBacklinks:   RenderLimit(p.Backlinks),
		ResourceReports:     RenderLimit(p.Reports),
	}
}
