package models

import (
	"time"

	"gorm.io/gorm"
)

// Profile groups permissions; a user inherits all of its profile's.
type Profile struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
	Name        string         `gorm:"uniqueIndex;size:100;not null" json:"name"`
	Description string         `gorm:"size:500" json:"description,omitempty"`
	IsSystem    bool           `gorm:"not null" json:"is_system"`
	Permissions []Permission   `gorm:"many2many:profile_permissions;" json:"permissions,omitempty"`
}

// Codes returns the "resource:action" code of each permission.
func (p Profile) Codes() []string {
	out := make([]string, 0, len(p.Permissions))
	for _, perm := range p.Permissions {
		out = append(out, perm.Code())
	}
	return out
}

// Permission is one "resource:action" grant. Either half may be "*".
type Permission struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	ResourceType string    `gorm:"size:50;not null;uniqueIndex:idx_perm_resource_action" json:"resource_type"`
	Action       string    `gorm:"size:50;not null;uniqueIndex:idx_perm_resource_action" json:"action"`
	Description  string    `gorm:"size:200" json:"description,omitempty"`
}

func (p Permission) Code() string {
	return p.ResourceType + ":" + p.Action
}
