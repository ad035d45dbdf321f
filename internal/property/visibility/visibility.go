// Package visibility decides which listings an actor may see and applies
// the browse filters on top.
package visibility

import (
	"strconv"
	"strings"

	"rentmarket/internal/property/models"
	userModels "rentmarket/internal/user/models"
)

// Rule names the branch of the visibility policy that applies to an actor.
type Rule string

const (
	// RuleOwner: only the actor's own listings, any status.
	RuleOwner Rule = "owner"
	// RuleStaff: every listing, any status.
	RuleStaff Rule = "staff"
	// RulePublic: active listings only. Clients and guests.
	RulePublic Rule = "public"
)

// RuleFor picks the rule for actor; nil is a guest.
func RuleFor(actor *userModels.User) Rule {
	if actor == nil {
		return RulePublic
	}
	switch actor.Role {
	case userModels.RoleOwner:
		return RuleOwner
	case userModels.RoleAdmin, userModels.RoleSuperAdmin:
		return RuleStaff
	default:
		return RulePublic
	}
}

// CanSee applies the actor's rule to one listing.
func CanSee(p *models.Property, actor *userModels.User) bool {
	switch RuleFor(actor) {
	case RuleOwner:
		return p.OwnerID == actor.ID
	case RuleStaff:
		return true
	default:
		return p.Status == models.StatusActive
	}
}

// Criteria are the browse filters. Search matches title or location as a
// case-insensitive substring; MaxPrice is inclusive. Zero values match all.
type Criteria struct {
	Search   string
	MaxPrice *int64
}

func (c Criteria) Matches(p *models.Property) bool {
	if c.MaxPrice != nil && p.Price > *c.MaxPrice {
		return false
	}
	needle := strings.ToLower(strings.TrimSpace(c.Search))
	if needle == "" {
		return true
	}
	return strings.Contains(strings.ToLower(p.Title), needle) ||
		strings.Contains(strings.ToLower(p.Location), needle)
}

// Key identifies a filter result for pagination resets.
func (c Criteria) Key() string {
	key := strings.ToLower(strings.TrimSpace(c.Search))
	if c.MaxPrice != nil {
		key += "|" + strconv.FormatInt(*c.MaxPrice, 10)
	}
	return key
}

// Filter returns the listings actor may see that match c, in input order.
func Filter(props []*models.Property, c Criteria, actor *userModels.User) []*models.Property {
	out := make([]*models.Property, 0, len(props))
	for _, p := range props {
		if CanSee(p, actor) && c.Matches(p) {
			out = append(out, p)
		}
	}
	return out
}
