package model

import "github.com/google/uuid"

type Action string

const (
	ActionSave   Action = "save"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
	ActionView   Action = "view"
)

// UserRight holds the per-module permission flags of one user.
type UserRight struct {
	ID         uint      `gorm:"primaryKey" json:"-"`
	UserID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_user_module" json:"-"`
	ModuleName string    `gorm:"type:varchar(50);not null;uniqueIndex:idx_user_module" json:"moduleName"`
	CanSave    bool      `gorm:"default:false" json:"canSave"`
	CanUpdate  bool      `gorm:"default:false" json:"canUpdate"`
	CanDelete  bool      `gorm:"default:false" json:"canDelete"`
	CanView    bool      `gorm:"default:false" json:"canView"`
}

func (r UserRight) Allows(a Action) bool {
	switch a {
	case ActionSave:
		return r.CanSave
	case ActionUpdate:
		return r.CanUpdate
	case ActionDelete:
		return r.CanDelete
	case ActionView:
		return r.CanView
	}
	return false
}

// Codes lists the granted actions as "Module:action".
func (r UserRight) Codes() []string {
	var codes []string
	for _, a := range []Action{ActionSave, ActionUpdate, ActionDelete, ActionView} {
		if r.Allows(a) {
			codes = append(codes, r.ModuleName+":"+string(a))
		}
	}
	return codes
}
