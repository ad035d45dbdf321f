package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentmarket/internal/notification/models"
	"rentmarket/internal/notification/service"
	"rentmarket/internal/notification/store"
	"rentmarket/internal/platform/logger"
	propertyModels "rentmarket/internal/property/models"
	propertyStore "rentmarket/internal/property/store"
	userModels "rentmarket/internal/user/models"
	userService "rentmarket/internal/user/service"
	userStore "rentmarket/internal/user/store"
	"rentmarket/pkg/testutil"
)

func newRouter(t *testing.T) http.Handler {
	t.Helper()
	ctx := context.Background()
	users := userStore.NewInMemory()
	require.NoError(t, users.Create(ctx, &userModels.User{ID: "cli-1", Email: "cli-1@example.com", Role: userModels.RoleClient}))
	props := propertyStore.NewInMemory()
	require.NoError(t, props.Create(ctx, &propertyModels.Property{ID: "p1", OwnerID: "own-1", Title: "Kitnet", Status: propertyModels.StatusActive}))

	r := chi.NewRouter()
	New(
		service.New(store.NewInMemory(), props, service.WithLogger(logger.Discard())),
		userService.New(users, userService.WithLogger(logger.Discard())),
		logger.Discard(),
	).Register(r)
	return r
}

func as(req *http.Request, subject string) *http.Request {
	return testutil.WithIdentity(req, subject, subject+"@example.com")
}

func TestNotifyMeFlow(t *testing.T) {
	router := newRouter(t)

	rr := testutil.DoRequest(router, as(testutil.NewJSONRequest(t, http.MethodPost, "/properties/p1/notify", nil), "cli-1"))
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	created := testutil.UnmarshalResponse[models.Notification](t, rr)
	assert.Contains(t, created.Message, "Kitnet")

	rr = testutil.DoRequest(router, as(testutil.NewJSONRequest(t, http.MethodGet, "/notifications", nil), "cli-1"))
	require.Equal(t, http.StatusOK, rr.Code)
	list := testutil.UnmarshalResponse[listResponse](t, rr)
	require.Len(t, list.Notifications, 1)
	assert.Equal(t, 1, list.Unread)

	rr = testutil.DoRequest(router, as(testutil.NewJSONRequest(t, http.MethodPost, "/notifications/"+created.ID+"/read", nil), "cli-1"))
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = testutil.DoRequest(router, as(testutil.NewJSONRequest(t, http.MethodPost, "/notifications/read-all", nil), "cli-1"))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 0, testutil.UnmarshalResponse[markAllResponse](t, rr).Updated)
}

func TestNotificationErrors(t *testing.T) {
	router := newRouter(t)

	t.Run("unknown listing", func(t *testing.T) {
		rr := testutil.DoRequest(router, as(testutil.NewJSONRequest(t, http.MethodPost, "/properties/nope/notify", nil), "cli-1"))
		testutil.AssertStatusAndError(t, rr, http.StatusNotFound, "not_found")
	})

	t.Run("unknown notification", func(t *testing.T) {
		rr := testutil.DoRequest(router, as(testutil.NewJSONRequest(t, http.MethodPost, "/notifications/nope/read", nil), "cli-1"))
		testutil.AssertStatusAndError(t, rr, http.StatusNotFound, "not_found")
	})

	t.Run("guest", func(t *testing.T) {
		rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodGet, "/notifications", nil))
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}
