package policy

import (
	"github.com/clamor-dev/clamor/internal/apperr"
	"github.com/clamor-dev/clamor/internal/types"
)

// Limits are the per-tier ceilings. Zero means unlimited for the
// numeric ceilings.
type Limits struct {
	MaxProjects           int
	MaxFeedbackPerProject int
	TeamMembers           bool
	Integrations          bool
}

var tierLimits = map[string]Limits{
	types.TierFree: {MaxProjects: 3, MaxFeedbackPerProject: 10},
	types.TierPro:  {Integrations: true},
	types.TierTeam: {TeamMembers: true, Integrations: true},
}

// LimitsFor returns the ceilings for a tier, falling back to free for
// anything unrecognized.
func LimitsFor(tier string) Limits {
	if l, ok := tierLimits[tier]; ok {
		return l
	}
	return tierLimits[types.TierFree]
}

// Counts are the aggregates a quota decision is made against. Callers
// must read them inside the same transaction that performs the write,
// with the project row locked, so two racing creations cannot both
// pass a ceiling with one slot left.
type Counts struct {
	ProjectsOwned     int64
	FeedbackInProject int64
}

// CheckQuota maps (tier, operation, counts) to an allow/deny decision.
// Denials carry the specific ceiling that was hit.
func CheckQuota(tier string, op Operation, counts Counts) error {
	limits := LimitsFor(tier)

	switch op {
	case OpCreateProject:
		if limits.MaxProjects > 0 && counts.ProjectsOwned >= int64(limits.MaxProjects) {
			return apperr.PaymentRequired("project limit reached (%d projects on the %s tier)", limits.MaxProjects, tier)
		}
	case OpSubmitFeedback:
		if limits.MaxFeedbackPerProject > 0 && counts.FeedbackInProject >= int64(limits.MaxFeedbackPerProject) {
			return apperr.PaymentRequired("feedback limit reached (%d items on the %s tier)", limits.MaxFeedbackPerProject, tier)
		}
	case OpManageMembers:
		if !limits.TeamMembers {
			return apperr.PaymentRequired("team members require the %s tier", types.TierTeam)
		}
	}

	return nil
}

// CheckIntegrationQuota gates configuring Slack/Discord webhooks, which
// only paid tiers may do.
func CheckIntegrationQuota(tier string) error {
	if !LimitsFor(tier).Integrations {
		return apperr.PaymentRequired("integrations require a paid tier")
	}
	return nil
}
