package statemachine

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"miniapp-shop-api/models"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to models.OrderStatus
		actor    Actor
		ok       bool
	}{
		{models.StatusPending, models.StatusConfirmed, ActorPayment, true},
		{models.StatusPending, models.StatusConfirmed, ActorCourier, true},
		{models.StatusPending, models.StatusCancelled, ActorAdmin, true},
		{models.StatusPending, models.StatusCancelled, ActorCourier, false},
		{models.StatusConfirmed, models.StatusDelivering, ActorCourier, true},
		{models.StatusConfirmed, models.StatusDelivering, ActorPayment, false},
		{models.StatusDelivering, models.StatusCompleted, ActorCourier, true},
		{models.StatusDelivering, models.StatusConfirmed, ActorCourier, false},
		{models.StatusCompleted, models.StatusPending, ActorAdmin, false},
	}
	for _, tc := range cases {
		err := CanTransition(tc.from, tc.to, tc.actor)
		if tc.ok {
			assert.NoError(t, err, "%s -> %s by %s", tc.from, tc.to, tc.actor)
		} else {
			require.Error(t, err, "%s -> %s by %s", tc.from, tc.to, tc.actor)
			assert.True(t, errors.Is(err, ErrInvalidTransition))
		}
	}
}

func TestCanTransition_MessageListsTargets(t *testing.T) {
	err := CanTransition(models.StatusPending, models.StatusCompleted, ActorCourier)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CONFIRMED, CANCELLED")

	err = CanTransition(models.StatusCancelled, models.StatusPending, ActorAdmin)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "terminal state")
}

func TestTerminalStates(t *testing.T) {
	assert.True(t, IsTerminal(models.StatusCompleted))
	assert.True(t, IsTerminal(models.StatusCancelled))
	assert.False(t, IsTerminal(models.StatusPending))
	assert.Equal(t, []models.OrderStatus{models.StatusCompleted}, ValidTransitionsFrom(models.StatusDelivering))
}

func TestGetAllTransitions_ReturnsCopy(t *testing.T) {
	all := GetAllTransitions()
	require.NotEmpty(t, all)
	all[0].Actor = "nobody"
	assert.Equal(t, ActorAdmin, GetAllTransitions()[0].Actor)
}
