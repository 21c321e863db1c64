package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEffectiveLimit(t *testing.T) {
	// Tier default
	assert.Equal(t, 25, EffectiveLimit(TierPro, nil, ResourceSubmissions))

	// Override wins over the tier default
	overrides := map[string]int{ResourceSubmissions: 100}
	assert.Equal(t, 100, EffectiveLimit(TierPro, overrides, ResourceSubmissions))

	// Overrides only apply to the named resource
	assert.Equal(t, 3, EffectiveLimit(TierPro, overrides, ResourceProjects))

	// An override can grant unlimited
	assert.Equal(t, Unlimited, EffectiveLimit(TierFree, map[string]int{ResourceSubmissions: Unlimited}, ResourceSubmissions))
}

func TestLimitsForTier_UnknownTier(t *testing.T) {
	assert.Equal(t, TierLimits[TierFree], LimitsForTier("platinum"))
	assert.Equal(t, TierTokenUsage[TierFree], TokenUsageForTier("platinum"))
}

func TestRenderLimit(t *testing.T) {
	assert.Equal(t, 25, RenderLimit(25))
	assert.Equal(t, "unlimited", RenderLimit(Unlimited))
	assert.Equal(t, 0, RenderLimit(0))
}

func TestPlanLimitsRender(t *testing.T) {
	rendered := TierLimits[TierEnterprise].Render()
	for _, resource := range Resources {
		assert.Equal(t, "unlimited", rendered[resource], resource)
	}

	rendered = TierLimits[TierFree].Render()
	assert.Equal(t, 1, rendered[ResourceSubmissions])
	assert.Equal(t, 1, rendered[ResourceProjects])
}

func TestPlanLimitsFor(t *testing.T) {
	limits := TierLimits[TierBusiness]
	assert.Equal(t, 10, limits.For(ResourceProjects))
	assert.Equal(t, 100, limits.For(ResourceSubmissions))
	assert.Equal(t, 0, limits.For("unknown"))
}
