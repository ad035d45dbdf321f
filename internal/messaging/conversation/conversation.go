// Package conversation turns a flat message log into per-(property, partner)
// conversations as seen by one viewer.
package conversation

import (
	"slices"
	"time"

	"rentmarket/internal/messaging/models"
	propertyModels "rentmarket/internal/property/models"
	userModels "rentmarket/internal/user/models"
)

// Directory resolves listing and user ids in O(1).
type Directory struct {
	properties map[string]*propertyModels.Property
	users      map[string]*userModels.User
}

func NewDirectory(props []*propertyModels.Property, users []*userModels.User) Directory {
	d := Directory{
		properties: make(map[string]*propertyModels.Property, len(props)),
		users:      make(map[string]*userModels.User, len(users)),
	}
	for _, p := range props {
		d.properties[p.ID] = p
	}
	for _, u := range users {
		d.users[u.ID] = u
	}
	return d
}

func (d Directory) Property(id string) (*propertyModels.Property, bool) {
	p, ok := d.properties[id]
	return p, ok
}

func (d Directory) User(id string) (*userModels.User, bool) {
	u, ok := d.users[id]
	return u, ok
}

func (d Directory) resolve(key models.ConversationKey) (*propertyModels.Property, *userModels.User, bool) {
	p, ok := d.Property(key.PropertyID)
	if !ok {
		return nil, nil, false
	}
	u, ok := d.User(key.PartnerID)
	if !ok {
		return nil, nil, false
	}
	return p, u, true
}

// Aggregate groups messages into conversations, newest last message first.
//
// Messages that do not involve viewerID are ignored. A conversation whose
// listing or partner cannot be resolved is dropped silently. When initial is
// set and has no messages, a placeholder conversation stamped with now is
// added, provided both of its lookups resolve.
//
// Callers pass messages ordered by timestamp ascending, as
// MessageStore.ListByParticipant returns them. Conversations whose last
// messages share a timestamp keep the order in which their first message
// appears in that slice.
func Aggregate(viewerID string, messages []models.Message, dir Directory, initial *models.ConversationKey, now time.Time) []models.ConversationGroup {
	index := make(map[models.ConversationKey]int)
	groups := make([]models.ConversationGroup, 0)

	for _, m := range messages {
		if !m.Involves(viewerID) {
			continue
		}
		key := models.KeyFor(viewerID, m)
		if i, seen := index[key]; seen {
			if m.Timestamp.After(groups[i].LastMessage.Timestamp) {
				groups[i].LastMessage = m
			}
			continue
		}
		property, partner, ok := dir.resolve(key)
		if !ok {
			continue
		}
		index[key] = len(groups)
		groups = append(groups, models.ConversationGroup{
			Key:         key.String(),
			PropertyID:  key.PropertyID,
			PartnerID:   key.PartnerID,
			Property:    property,
			Partner:     partner,
			LastMessage: m,
		})
	}

	if initial != nil {
		if _, seen := index[*initial]; !seen {
			if property, partner, ok := dir.resolve(*initial); ok {
				groups = append(groups, placeholder(viewerID, *initial, property, partner, now))
			}
		}
	}

	slices.SortStableFunc(groups, func(a, b models.ConversationGroup) int {
		return b.LastMessage.Timestamp.Compare(a.LastMessage.Timestamp)
	})
	return groups
}

func placeholder(viewerID string, key models.ConversationKey, property *propertyModels.Property, partner *userModels.User, now time.Time) models.ConversationGroup {
	return models.ConversationGroup{
		Key:        key.String(),
		PropertyID: key.PropertyID,
		PartnerID:  key.PartnerID,
		Property:   property,
		Partner:    partner,
		LastMessage: models.Message{
			FromID:     viewerID,
			ToID:       key.PartnerID,
			PropertyID: key.PropertyID,
			Content:    models.PlaceholderContent,
			Timestamp:  now,
		},
		Placeholder: true,
	}
}

// Thread returns the messages between viewerID and key.PartnerID about
// key.PropertyID, oldest first. Equal timestamps keep log order.
func Thread(viewerID string, key models.ConversationKey, messages []models.Message) []models.Message {
	out := make([]models.Message, 0)
	for _, m := range messages {
		if m.PropertyID != key.PropertyID || !m.Involves(viewerID) {
			continue
		}
		if m.PartnerOf(viewerID) != key.PartnerID {
			continue
		}
		out = append(out, m)
	}
	slices.SortStableFunc(out, func(a, b models.Message) int {
		return a.Timestamp.Compare(b.Timestamp)
	})
	return out
}
