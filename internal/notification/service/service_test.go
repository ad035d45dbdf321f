package service

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"

	"rentmarket/internal/notification/store"
	"rentmarket/internal/platform/logger"
	"rentmarket/internal/platform/metrics"
	propertyModels "rentmarket/internal/property/models"
	propertyStore "rentmarket/internal/property/store"
	userModels "rentmarket/internal/user/models"
	dErrors "rentmarket/pkg/domain-errors"
	"rentmarket/pkg/platform/audit"
	"rentmarket/pkg/requestcontext"
)

var (
	client = &userModels.User{ID: "cli-1", Role: userModels.RoleClient}
	owner  = &userModels.User{ID: "own-1", Role: userModels.RoleOwner}
)

type NotificationServiceSuite struct {
	suite.Suite
	recorder *audit.Recorder
	metrics  *metrics.Metrics
	service  *Service
	ctx      context.Context
	now      time.Time
}

func TestNotificationServiceSuite(t *testing.T) {
	suite.Run(t, new(NotificationServiceSuite))
}

func (s *NotificationServiceSuite) SetupTest() {
	s.now = time.Date(2026, 7, 1, 15, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)
	props := propertyStore.NewInMemory()
	s.Require().NoError(props.Create(s.ctx, &propertyModels.Property{ID: "p1", OwnerID: owner.ID, Title: "Loft", Status: propertyModels.StatusActive, IsOccupied: true}))
	s.Require().NoError(props.Create(s.ctx, &propertyModels.Property{ID: "hidden", OwnerID: owner.ID, Title: "Off", Status: propertyModels.StatusSuspended}))

	s.recorder = audit.NewRecorder()
	s.metrics = metrics.NewWithRegisterer(prometheus.NewRegistry())
	s.service = New(store.NewInMemory(), props,
		WithLogger(logger.Discard()),
		WithMetrics(s.metrics),
		WithAuditPublisher(s.recorder),
	)
}

func (s *NotificationServiceSuite) TestNotifyMe() {
	n, err := s.service.NotifyMe(s.ctx, client, "p1")
	s.Require().NoError(err)
	s.Equal(client.ID, n.UserID)
	s.Equal("p1", n.PropertyID)
	s.Contains(n.Message, "Loft")
	s.Equal(s.now.UnixMilli(), n.Timestamp.Millis())
	s.Equal(float64(1), promtest.ToFloat64(s.metrics.NotificationsCreated))
	s.Equal([]audit.Action{audit.ActionNotificationCreated}, s.recorder.Actions())

	list, err := s.service.List(s.ctx, client)
	s.Require().NoError(err)
	s.Require().Len(list, 1)
	s.False(list[0].Read)

	ownerList, err := s.service.List(s.ctx, owner)
	s.Require().NoError(err)
	s.Empty(ownerList)
}

func (s *NotificationServiceSuite) TestNotifyMeRejections() {
	_, err := s.service.NotifyMe(s.ctx, nil, "p1")
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))

	_, err = s.service.NotifyMe(s.ctx, client, "missing")
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

	_, err = s.service.NotifyMe(s.ctx, client, "hidden")
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *NotificationServiceSuite) TestMarkRead() {
	first, err := s.service.NotifyMe(s.ctx, client, "p1")
	s.Require().NoError(err)
	_, err = s.service.NotifyMe(s.ctx, client, "p1")
	s.Require().NoError(err)

	s.Require().NoError(s.service.MarkRead(s.ctx, client, first.ID))
	s.True(dErrors.HasCode(s.service.MarkRead(s.ctx, owner, first.ID), dErrors.CodeNotFound))

	changed, err := s.service.MarkAllRead(s.ctx, client)
	s.Require().NoError(err)
	s.Equal(1, changed)

	list, err := s.service.List(s.ctx, client)
	s.Require().NoError(err)
	for _, n := range list {
		s.True(n.Read)
	}
}
