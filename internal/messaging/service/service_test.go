package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"

	"rentmarket/internal/messaging/models"
	"rentmarket/internal/messaging/store"
	"rentmarket/internal/platform/logger"
	"rentmarket/internal/platform/metrics"
	propertyModels "rentmarket/internal/property/models"
	propertyStore "rentmarket/internal/property/store"
	userModels "rentmarket/internal/user/models"
	userStore "rentmarket/internal/user/store"
	dErrors "rentmarket/pkg/domain-errors"
	"rentmarket/pkg/platform/audit"
	"rentmarket/pkg/requestcontext"
)

var (
	owner  = &userModels.User{ID: "own-1", Email: "own@example.com", Role: userModels.RoleOwner}
	client = &userModels.User{ID: "cli-1", Email: "cli@example.com", Role: userModels.RoleClient}
	other  = &userModels.User{ID: "cli-2", Email: "cli2@example.com", Role: userModels.RoleClient}
)

type MessagingServiceSuite struct {
	suite.Suite
	messages *store.InMemory
	props    *propertyStore.InMemory
	recorder *audit.Recorder
	metrics  *metrics.Metrics
	service  *Service
	ctx      context.Context
	base     time.Time
}

func TestMessagingServiceSuite(t *testing.T) {
	suite.Run(t, new(MessagingServiceSuite))
}

func (s *MessagingServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.base = time.Date(2026, 4, 10, 9, 0, 0, 0, time.UTC)

	users := userStore.NewInMemory()
	for _, u := range []*userModels.User{owner, client, other} {
		s.Require().NoError(users.Create(s.ctx, &userModels.User{ID: u.ID, Email: u.Email, Role: u.Role}))
	}
	s.props = propertyStore.NewInMemory()
	for _, p := range []*propertyModels.Property{
		{ID: "p1", OwnerID: owner.ID, Title: "Casa", Status: propertyModels.StatusActive},
		{ID: "p2", OwnerID: owner.ID, Title: "Apto", Status: propertyModels.StatusActive},
		{ID: "hidden", OwnerID: owner.ID, Title: "Suspensa", Status: propertyModels.StatusSuspended},
	} {
		s.Require().NoError(s.props.Create(s.ctx, p))
	}

	s.messages = store.NewInMemory()
	s.recorder = audit.NewRecorder()
	s.metrics = metrics.NewWithRegisterer(prometheus.NewRegistry())
	s.service = New(s.messages, users, s.props,
		WithLogger(logger.Discard()),
		WithMetrics(s.metrics),
		WithAuditPublisher(s.recorder),
	)
}

func (s *MessagingServiceSuite) sendAt(offset time.Duration, from *userModels.User, to, property, content string) *models.Message {
	ctx := requestcontext.WithTime(s.ctx, s.base.Add(offset))
	m, err := s.service.Send(ctx, from, &models.SendRequest{ToID: to, PropertyID: property, Content: content})
	s.Require().NoError(err)
	return m
}

func (s *MessagingServiceSuite) TestSend() {
	s.Run("stores the message with the request time", func() {
		m := s.sendAt(time.Minute, client, owner.ID, "p1", "  ainda disponível?  ")
		s.Equal(client.ID, m.FromID)
		s.Equal("ainda disponível?", m.Content)
		s.Equal(s.base.Add(time.Minute), m.Timestamp)
		s.NotEmpty(m.ID)
		s.Equal([]audit.Action{audit.ActionMessageSent}, s.recorder.Actions())
		s.Equal(float64(1), promtest.ToFloat64(s.metrics.MessagesSent))
	})

	cases := []struct {
		name  string
		actor *userModels.User
		req   models.SendRequest
		code  dErrors.Code
	}{
		{"guest", nil, models.SendRequest{ToID: owner.ID, PropertyID: "p1", Content: "oi"}, dErrors.CodeUnauthorized},
		{"blank content", client, models.SendRequest{ToID: owner.ID, PropertyID: "p1", Content: "   "}, dErrors.CodeValidation},
		{"self", client, models.SendRequest{ToID: client.ID, PropertyID: "p1", Content: "oi"}, dErrors.CodeValidation},
		{"unknown recipient", client, models.SendRequest{ToID: "ghost", PropertyID: "p1", Content: "oi"}, dErrors.CodeNotFound},
		{"unknown property", client, models.SendRequest{ToID: owner.ID, PropertyID: "nope", Content: "oi"}, dErrors.CodeNotFound},
		{"suspended property", client, models.SendRequest{ToID: owner.ID, PropertyID: "hidden", Content: "oi"}, dErrors.CodeNotFound},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			req := tc.req
			_, err := s.service.Send(s.ctx, tc.actor, &req)
			s.True(dErrors.HasCode(err, tc.code), "got %v", err)
		})
	}
}

func (s *MessagingServiceSuite) TestConversations() {
	s.sendAt(1*time.Minute, client, owner.ID, "p1", "primeira")
	s.sendAt(3*time.Minute, owner, client.ID, "p1", "resposta")
	s.sendAt(2*time.Minute, other, owner.ID, "p2", "outra conversa")

	s.Run("owner sees both conversations newest first", func() {
		groups, err := s.service.Conversations(s.ctx, owner, nil)
		s.Require().NoError(err)
		s.Require().Len(groups, 2)
		s.Equal("p1-cli-1", groups[0].Key)
		s.Equal("resposta", groups[0].LastMessage.Content)
		s.Equal("Casa", groups[0].Property.Title)
		s.Equal(client.ID, groups[0].Partner.ID)
		s.Equal("p2-cli-2", groups[1].Key)
	})

	s.Run("client opening a new conversation gets a placeholder", func() {
		now := s.base.Add(time.Hour)
		ctx := requestcontext.WithTime(s.ctx, now)
		groups, err := s.service.Conversations(ctx, client, &models.ConversationKey{PropertyID: "p2", PartnerID: owner.ID})
		s.Require().NoError(err)
		s.Require().Len(groups, 2)
		s.True(groups[0].Placeholder)
		s.Equal(models.PlaceholderContent, groups[0].LastMessage.Content)
		s.Equal(now, groups[0].LastMessage.Timestamp)
		s.Equal("p1-own-1", groups[1].Key)
	})

	s.Run("deleted listing drops the conversation", func() {
		s.Require().NoError(s.props.Delete(s.ctx, "p2"))
		groups, err := s.service.Conversations(s.ctx, owner, nil)
		s.Require().NoError(err)
		s.Require().Len(groups, 1)
		s.Equal("p1-cli-1", groups[0].Key)
	})

	s.Run("half an initial context is rejected", func() {
		_, err := s.service.Conversations(s.ctx, client, &models.ConversationKey{PropertyID: "p1"})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("guest", func() {
		_, err := s.service.Conversations(s.ctx, nil, nil)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})
}

func (s *MessagingServiceSuite) TestThread() {
	s.sendAt(2*time.Minute, owner, client.ID, "p1", "b")
	s.sendAt(1*time.Minute, client, owner.ID, "p1", "a")
	s.sendAt(3*time.Minute, client, owner.ID, "p2", "other listing")

	msgs, err := s.service.Thread(s.ctx, client, models.ConversationKey{PropertyID: "p1", PartnerID: owner.ID})
	s.Require().NoError(err)
	s.Require().Len(msgs, 2)
	s.Equal("a", msgs[0].Content)
	s.Equal("b", msgs[1].Content)
}

type failingMessages struct{ *store.InMemory }

func (failingMessages) ListByParticipant(context.Context, string) ([]models.Message, error) {
	return nil, errors.New("disk on fire")
}

func (s *MessagingServiceSuite) TestStoreFailureIsInternal() {
	svc := New(failingMessages{store.NewInMemory()}, userStore.NewInMemory(), s.props, WithLogger(logger.Discard()))
	_, err := svc.Conversations(s.ctx, client, nil)
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))
}
