package types

import (
	"os"
	"strings"
)

const (
	ContextUserKey    = "user"
	ContextProjectKey = "project"
)

// Membership roles, strongest first.
const (
	RoleOwner  = "owner"
	RoleAdmin  = "admin"
	RoleMember = "member"
	RoleViewer = "viewer"
)

// Subscription tiers.
const (
	TierFree = "free"
	TierPro  = "pro"
	TierTeam = "team"
)

// Feedback statuses. Pending is the initial status; completed and
// rejected are closed for voting and commenting.
const (
	StatusPending    = "pending"
	StatusApproved   = "approved"
	StatusInProgress = "in_progress"
	StatusTestflight = "testflight"
	StatusCompleted  = "completed"
	StatusRejected   = "rejected"
)

var AllStatuses = []string{
	StatusPending,
	StatusApproved,
	StatusInProgress,
	StatusTestflight,
	StatusCompleted,
	StatusRejected,
}

func IsKnownStatus(status string) bool {
	for _, s := range AllStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// IsClosedStatus reports whether a feedback item no longer accepts
// votes or comments.
func IsClosedStatus(status string) bool {
	return status == StatusCompleted || status == StatusRejected
}

func IsKnownRole(role string) bool {
	switch role {
	case RoleOwner, RoleAdmin, RoleMember, RoleViewer:
		return true
	}
	return false
}

func IsKnownTier(tier string) bool {
	switch tier {
	case TierFree, TierPro, TierTeam:
		return true
	}
	return false
}

var (
	// Default allowed origins for development
	defaultOrigins = []string{
		"http://localhost:3000",
		"http://localhost:5173",
	}

	AllowedOrigins = initAllowedOrigins()
)

func initAllowedOrigins() []string {
	origins := make([]string, len(defaultOrigins))
	copy(origins, defaultOrigins)

	if clientURL := os.Getenv("CLIENT_URL"); clientURL != "" {
		origins = append(origins, clientURL)
	}

	if allowedOrigins := os.Getenv("ALLOWED_ORIGINS"); allowedOrigins != "" {
		envOrigins := strings.Split(allowedOrigins, ",")
		for _, origin := range envOrigins {
			trimmed := strings.TrimSpace(origin)
			if trimmed != "" {
				origins = append(origins, trimmed)
			}
		}
	}

	return origins
}
