package models

import (
	"encoding/json"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Project struct {
	gorm.Model

	Name        string `gorm:"not null"`
	Description string
	OwnerID     uint   `gorm:"not null;index"`
	Tier        string `gorm:"not null;default:free"`
	Archived    bool   `gorm:"not null;default:false"`

	// Widget credential presented by client applications.
	APIKey string `gorm:"uniqueIndex;not null"`

	// Statuses an operator may assign, and statuses whose transitions
	// trigger voter emails. Stored as jsonb string arrays.
	AllowedStatuses     datatypes.JSON `gorm:"type:jsonb"`
	EmailNotifyStatuses datatypes.JSON `gorm:"type:jsonb"`

	// Integration sinks, paid tiers only.
	DiscordWebhook string
	SlackWebhook   string

	// Relationships
	Owner              User                `gorm:"foreignKey:OwnerID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	ProjectMemberships []ProjectMembership `gorm:"foreignKey:ProjectID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Feedback           []Feedback          `gorm:"foreignKey:ProjectID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}

// AllowedStatusList decodes the jsonb column. An empty or missing
// column means every known status is allowed.
func (p *Project) AllowedStatusList() []string {
	return decodeStringList(p.AllowedStatuses)
}

func (p *Project) EmailNotifyStatusList() []string {
	return decodeStringList(p.EmailNotifyStatuses)
}

// StatusAllowed reports whether the tenant permits assigning status.
func (p *Project) StatusAllowed(status string) bool {
	allowed := p.AllowedStatusList()
	if len(allowed) == 0 {
		return true
	}
	for _, s := range allowed {
		if s == status {
			return true
		}
	}
	return false
}

// StatusNotifies reports whether entering status should email opted-in
// voters and members.
func (p *Project) StatusNotifies(status string) bool {
	for _, s := range p.EmailNotifyStatusList() {
		if s == status {
			return true
		}
	}
	return false
}

func decodeStringList(col datatypes.JSON) []string {
	if len(col) == 0 {
		return nil
	}

	var list []string

	if err := json.Unmarshal(col, &list); err != nil {
		return nil
	}

	return list
}

// StringListColumn encodes a string slice for a jsonb column.
func StringListColumn(list []string) datatypes.JSON {
	if len(list) == 0 {
		return nil
	}

	raw, err := json.Marshal(list)

	if err != nil {
		return nil
	}

	return datatypes.JSON(raw)
}
