package models

import (
	"strings"
	"time"

	propertyModels "rentmarket/internal/property/models"
	userModels "rentmarket/internal/user/models"
	dErrors "rentmarket/pkg/domain-errors"
)

// PlaceholderContent marks the synthetic last message of a conversation
// that has no messages yet.
const PlaceholderContent = "new conversation"

const maxContentLength = 4000

// Message is one entry of the append-only message log.
type Message struct {
	ID         string    `json:"id"`
	FromID     string    `json:"from_id"`
	ToID       string    `json:"to_id"`
	PropertyID string    `json:"property_id"`
	Content    string    `json:"content"`
	Timestamp  time.Time `json:"timestamp"`
}

// Involves reports whether userID sent or received m.
func (m Message) Involves(userID string) bool {
	return m.FromID == userID || m.ToID == userID
}

// PartnerOf returns the other participant relative to viewerID.
func (m Message) PartnerOf(viewerID string) string {
	if m.FromID == viewerID {
		return m.ToID
	}
	return m.FromID
}

// ConversationKey identifies a conversation from a fixed viewer's side.
type ConversationKey struct {
	PropertyID string `json:"property_id"`
	PartnerID  string `json:"partner_id"`
}

// KeyFor derives the conversation key of m for viewerID.
func KeyFor(viewerID string, m Message) ConversationKey {
	return ConversationKey{PropertyID: m.PropertyID, PartnerID: m.PartnerOf(viewerID)}
}

// String renders the key as "<propertyID>-<partnerID>".
func (k ConversationKey) String() string {
	return k.PropertyID + "-" + k.PartnerID
}

// ConversationGroup is the derived summary of one conversation.
type ConversationGroup struct {
	Key         string                   `json:"key"`
	PropertyID  string                   `json:"property_id"`
	PartnerID   string                   `json:"partner_id"`
	Property    *propertyModels.Property `json:"property"`
	Partner     *userModels.User         `json:"partner"`
	LastMessage Message                  `json:"last_message"`
	Placeholder bool                     `json:"placeholder,omitempty"`
}

// SendRequest is the payload of POST /messages.
type SendRequest struct {
	ToID       string `json:"to_id"`
	PropertyID string `json:"property_id"`
	Content    string `json:"content"`
}

func (r *SendRequest) Normalize() {
	r.ToID = strings.TrimSpace(r.ToID)
	r.PropertyID = strings.TrimSpace(r.PropertyID)
	r.Content = strings.TrimSpace(r.Content)
}

func (r *SendRequest) Validate() error {
	switch {
	case r.ToID == "":
		return dErrors.New(dErrors.CodeValidation, "to_id is required")
	case r.PropertyID == "":
		return dErrors.New(dErrors.CodeValidation, "property_id is required")
	case r.Content == "":
		return dErrors.New(dErrors.CodeValidation, "content must not be empty")
	case len(r.Content) > maxContentLength:
		return dErrors.New(dErrors.CodeValidation, "content is too long")
	}
	return nil
}
