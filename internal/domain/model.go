package domain

import "time"

// BaseModel is the common base struct for all domain models.
// It replaces gorm.Model to avoid the implicit soft delete behavior of DeletedAt.
type BaseModel struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// EntityID returns the primary key. Every model embedding BaseModel satisfies Entity.
func (m BaseModel) EntityID() uint {
	return m.ID
}

// PageRequest holds pagination, search, sorting, and filtering parameters
// parsed from a list request.
type PageRequest struct {
	Page    int
	PerPage int
	Search  string
	Sort    string
	Filter  map[string]string
}

// Offset returns the number of rows to skip for the requested page.
func (r PageRequest) Offset() int {
	if r.Page < 1 {
		return 0
	}
	return (r.Page - 1) * r.PerPage
}
