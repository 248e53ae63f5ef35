package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserRole string

const (
	RoleMember           UserRole = "Member"
	RoleDepartmentHead   UserRole = "Department Head"
	RoleSectionPresident UserRole = "Section President"
	RoleFinance          UserRole = "Finance"
	RoleAuditor          UserRole = "Auditor"
	RoleSuperAdmin       UserRole = "Super Admin"
	RoleAppOwner         UserRole = "App Owner"
)

// User scoping invariants:
//   - Member and Department Head carry both department_id and section_id.
//   - Section President and Finance carry section_id only.
//   - Auditor may be section-scoped or church-wide (section_id null).
//   - Super Admin is church-scoped without section/department.
//   - App Owner has no church at all.
type User struct {
	ID           string `gorm:"type:uuid;primaryKey"`
	ChurchID     *string `gorm:"type:uuid;index"`
	SectionID    *string `gorm:"type:uuid;index"`
	DepartmentID *string `gorm:"type:uuid;index"`
	Name         string   `gorm:"size:100;not null"`
	Email        string   `gorm:"size:100;uniqueIndex;not null"`
	PasswordHash string   `gorm:"size:255;not null"`
	Role         UserRole `gorm:"size:30;not null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}
