package dashboard

import (
	"fmt"

	"github.com/simp-lee/storeadmin/internal/domain"
)

func renderUser(u domain.User) string {
	return fmt.Sprintf("%s <%s>", u.Name, u.Email)
}

func renderStore(s domain.Store) string {
	return fmt.Sprintf("%s (%s)", s.Name, s.Slug)
}

func renderProduct(p domain.Product) string {
	return fmt.Sprintf("%s · %s · %s", p.Name, p.SKU, formatPrice(p.Price))
}

func renderRole(r domain.Role) string {
	return r.Name
}

func renderPermission(p domain.Permission) string {
	return p.Name
}

// formatPrice prints minor units as a decimal amount.
func formatPrice(minor int64) string {
	sign := ""
	if minor < 0 {
		sign = "-"
		minor = -minor
	}
	return fmt.Sprintf("%s%d.%02d", sign, minor/100, minor%100)
}
