package service_test

import (
	"testing"

	"go-rackstock-ws/internal/model"
	"go-rackstock-ws/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotificationFeed_RoleAndUserTargeting(t *testing.T) {
	// GIVEN: A broadcast notice, an admin-only notice and a user-targeted one
	// WHEN: Different actors request their feed
	// THEN: Each sees exactly the notices addressed to them

	e := newEnv(t)
	admin := adminActor()
	keeper := keeperActor()
	keeperID := uuid.MustParse(keeper.ID)

	e.notifications.Publish(service.Notice{Title: "for everyone"})
	e.notifications.Publish(service.Notice{TargetRole: model.RoleAdmin, Title: "admins only"})
	e.notifications.Publish(service.Notice{TargetUsers: []uuid.UUID{keeperID}, Title: "just for kay"})

	titles := func(items []model.Notification) []string {
		out := make([]string, len(items))
		for i, n := range items {
			out[i] = n.Title
		}
		return out
	}

	adminFeed, err := e.notifications.Feed(admin, 50)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"for everyone", "admins only"}, titles(adminFeed))

	keeperFeed, err := e.notifications.Feed(keeper, 50)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"for everyone", "just for kay"}, titles(keeperFeed))

	managerFeed, err := e.notifications.Feed(managerActor(), 50)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"for everyone"}, titles(managerFeed))
}

func TestNotificationPublish_PersistsPayload(t *testing.T) {
	e := newEnv(t)

	e.notifications.Publish(service.Notice{
		TargetRole: model.RoleAdmin,
		Title:      "Stock movement recorded",
		Body:       "IN-DIR-20260101",
		Payload:    map[string]interface{}{"type": "stock_update"},
	})

	stored, err := e.notificationRepo.FindRecent(10)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, model.RoleAdmin, stored[0].TargetRole)
	assert.NotEmpty(t, stored[0].Payload)
	assert.NotEqual(t, uuid.Nil, stored[0].ID)
}
