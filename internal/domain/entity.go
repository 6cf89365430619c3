package domain

import (
	"fmt"
	"strings"
)

// Entity is any administrable record identified by a unique numeric ID.
type Entity interface {
	EntityID() uint
}

// EntityKind names a collection exposed by the catalog API. The set is closed;
// use ParseEntityKind to obtain a value from untrusted input.
type EntityKind string

const (
	KindUsers       EntityKind = "users"
	KindStores      EntityKind = "stores"
	KindProducts    EntityKind = "products"
	KindRoles       EntityKind = "roles"
	KindPermissions EntityKind = "permissions"
)

var entityKinds = []EntityKind{KindUsers, KindStores, KindProducts, KindRoles, KindPermissions}

// EntityKinds returns every known kind in display order.
func EntityKinds() []EntityKind {
	out := make([]EntityKind, len(entityKinds))
	copy(out, entityKinds)
	return out
}

// ParseEntityKind converts s into an EntityKind, rejecting unknown kinds.
func ParseEntityKind(s string) (EntityKind, error) {
	k := EntityKind(strings.ToLower(strings.TrimSpace(s)))
	if !k.Valid() {
		return "", NewAppError(CodeValidation, fmt.Sprintf("unknown entity kind %q", s), nil)
	}
	return k, nil
}

// Valid reports whether k is one of the known kinds.
func (k EntityKind) Valid() bool {
	switch k {
	case KindUsers, KindStores, KindProducts, KindRoles, KindPermissions:
		return true
	}
	return false
}

func (k EntityKind) String() string {
	return string(k)
}

// Title returns the capitalized kind, used as a page heading.
func (k EntityKind) Title() string {
	s := string(k)
	if s == "" {
		return ""
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// User is a dashboard account. A user may own stores.
type User struct {
	BaseModel
	Name   string `gorm:"size:100;not null" json:"name"`
	Email  string `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Status string `gorm:"size:20;not null;default:active" json:"status"`
}

// Store is a tenant: products and staff are scoped to a store.
type Store struct {
	BaseModel
	Name    string `gorm:"size:100;not null" json:"name"`
	Slug    string `gorm:"size:100;uniqueIndex;not null" json:"slug"`
	OwnerID uint   `gorm:"index" json:"owner_id"`
	Status  string `gorm:"size:20;not null;default:active" json:"status"`
}

// Product is a sellable item belonging to a store. Price is in minor units.
type Product struct {
	BaseModel
	StoreID uint   `gorm:"index;not null" json:"store_id"`
	Name    string `gorm:"size:200;not null" json:"name"`
	SKU     string `gorm:"size:64;uniqueIndex;not null" json:"sku"`
	Price   int64  `gorm:"not null" json:"price"`
	Stock   int    `gorm:"not null" json:"stock"`
	Status  string `gorm:"size:20;not null;default:active" json:"status"`
}

// Role groups permissions that can be granted to users.
type Role struct {
	BaseModel
	Name        string `gorm:"size:100;uniqueIndex;not null" json:"name"`
	Description string `gorm:"size:255" json:"description"`
}

// Permission is a single capability such as "products.edit".
type Permission struct {
	BaseModel
	Name        string `gorm:"size:100;uniqueIndex;not null" json:"name"`
	Description string `gorm:"size:255" json:"description"`
}
