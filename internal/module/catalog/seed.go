package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"gorm.io/gorm"

	"github.com/simp-lee/storeadmin/internal/domain"
	"github.com/simp-lee/storeadmin/internal/pkg"
)

var (
	seedUserNames = []string{
		"Amira Haddad", "Bruno Costa", "Chen Wei", "Dana Levi", "Elif Yilmaz",
		"Farah Khan", "Gustavo Ruiz", "Hana Sato", "Ivan Petrov", "Jonas Berg",
		"Kofi Mensah", "Lena Fischer",
	}
	seedStores = []struct{ name, slug string }{
		{"Northwind Outfitters", "northwind"},
		{"Lantern & Loom", "lantern-loom"},
		{"Cedar Kitchenware", "cedar-kitchen"},
		{"Harbor Electronics", "harbor-electronics"},
	}
	seedProductNames = []string{
		"Desk Lamp", "Wool Throw", "Chef Knife", "USB-C Hub", "Rain Jacket",
		"Cast Iron Pan", "Linen Napkins", "Trail Backpack", "Bluetooth Speaker",
		"Ceramic Mug", "Hiking Boots", "Cutting Board", "Noise Cancelling Headphones",
		"Cotton Apron",
	}
	seedRoles = []struct{ name, description string }{
		{"owner", "Full control of a store"},
		{"manager", "Manages catalog and staff"},
		{"editor", "Edits products"},
		{"viewer", "Read-only access"},
	}
	seedPermissionResources = []string{"users", "stores", "products", "roles"}
	seedPermissionActions   = []string{"view", "edit", "delete"}
)

// seedProductsPerStore gives the demo store list several pages at the default page size.
const seedProductsPerStore = 14

// Seed fills an empty catalog with demo data inside one transaction.
// It does nothing when any user already exists.
func Seed(ctx context.Context, db *gorm.DB, log *slog.Logger) error {
	if log == nil {
		log = slog.Default()
	}

	var existing int64
	if err := db.WithContext(ctx).Model(&domain.User{}).Count(&existing).Error; err != nil {
		return fmt.Errorf("count users: %w", err)
	}
	if existing > 0 {
		log.DebugContext(ctx, "catalog already seeded", slog.Int64("users", existing))
		return nil
	}

	var counts [5]int
	err := pkg.WithTx(ctx, db, func(tx *gorm.DB) error {
		users := make([]domain.User, 0, len(seedUserNames))
		for i, name := range seedUserNames {
			first := strings.ToLower(strings.Fields(name)[0])
			status := "active"
			if i%5 == 4 {
				status = "suspended"
			}
			users = append(users, domain.User{
				Name:   name,
				Email:  first + "@example.com",
				Status: status,
			})
		}
		if err := tx.Create(&users).Error; err != nil {
			return fmt.Errorf("seed users: %w", err)
		}

		stores := make([]domain.Store, 0, len(seedStores))
		for i, s := range seedStores {
			stores = append(stores, domain.Store{
				Name:    s.name,
				Slug:    s.slug,
				OwnerID: users[i].ID,
				Status:  "active",
			})
		}
		if err := tx.Create(&stores).Error; err != nil {
			return fmt.Errorf("seed stores: %w", err)
		}

		products := make([]domain.Product, 0, len(stores)*seedProductsPerStore)
		for si, store := range stores {
			for pi := range seedProductsPerStore {
				name := seedProductNames[(si+pi)%len(seedProductNames)]
				status := "active"
				if pi%7 == 6 {
					status = "draft"
				}
				products = append(products, domain.Product{
					StoreID: store.ID,
					Name:    name,
					SKU:     fmt.Sprintf("%s-%03d", strings.ToUpper(store.Slug[:3]), pi+1),
					Price:   int64(499 + 250*((si*seedProductsPerStore+pi)%17)),
					Stock:   (pi * 7) % 40,
					Status:  status,
				})
			}
		}
		if err := tx.CreateInBatches(&products, 50).Error; err != nil {
			return fmt.Errorf("seed products: %w", err)
		}

		roles := make([]domain.Role, 0, len(seedRoles))
		for _, r := range seedRoles {
			roles = append(roles, domain.Role{Name: r.name, Description: r.description})
		}
		if err := tx.Create(&roles).Error; err != nil {
			return fmt.Errorf("seed roles: %w", err)
		}

		perms := make([]domain.Permission, 0, len(seedPermissionResources)*len(seedPermissionActions))
		for _, res := range seedPermissionResources {
			for _, action := range seedPermissionActions {
				perms = append(perms, domain.Permission{
					Name:        res + "." + action,
					Description: fmt.Sprintf("Can %s %s", action, res),
				})
			}
		}
		if err := tx.Create(&perms).Error; err != nil {
			return fmt.Errorf("seed permissions: %w", err)
		}

		counts = [5]int{len(users), len(stores), len(products), len(roles), len(perms)}
		return nil
	})
	if err != nil {
		return err
	}

	log.InfoContext(ctx, "catalog seeded",
		slog.Int("users", counts[0]),
		slog.Int("stores", counts[1]),
		slog.Int("products", counts[2]),
		slog.Int("roles", counts[3]),
		slog.Int("permissions", counts[4]),
	)
	return nil
}
