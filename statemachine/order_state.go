package statemachine

import (
	"errors"
	"fmt"
	"strings"

	"miniapp-shop-api/models"
)

// Actor names who drives a transition.
type Actor string

const (
	ActorAdmin   Actor = "admin"
	ActorCourier Actor = "courier"
	ActorPayment Actor = "payment"
)

// ErrInvalidTransition is wrapped by every CanTransition failure.
var ErrInvalidTransition = errors.New("invalid transition")

// Transition defines a valid state change and who can perform it
type Transition struct {
	From  models.OrderStatus `json:"from"`
	To    models.OrderStatus `json:"to"`
	Actor Actor              `json:"actor"`
}

// validTransitions is the authoritative state machine definition
var validTransitions = []Transition{
	// Staff or a payment confirmation accept the order
	{From: models.StatusPending, To: models.StatusConfirmed, Actor: ActorAdmin},
	{From: models.StatusPending, To: models.StatusConfirmed, Actor: ActorCourier},
	{From: models.StatusPending, To: models.StatusConfirmed, Actor: ActorPayment},
	{From: models.StatusPending, To: models.StatusCancelled, Actor: ActorAdmin},
	// Courier takes a confirmed order out
	{From: models.StatusConfirmed, To: models.StatusDelivering, Actor: ActorAdmin},
	{From: models.StatusConfirmed, To: models.StatusDelivering, Actor: ActorCourier},
	{From: models.StatusConfirmed, To: models.StatusCancelled, Actor: ActorAdmin},
	// Courier hands the order over
	{From: models.StatusDelivering, To: models.StatusCompleted, Actor: ActorAdmin},
	{From: models.StatusDelivering, To: models.StatusCompleted, Actor: ActorCourier},
}

// transitionKey is used to look up valid transitions quickly
type transitionKey struct {
	From  models.OrderStatus
	To    models.OrderStatus
	Actor Actor
}

var transitionMap = func() map[transitionKey]bool {
	m := make(map[transitionKey]bool)
	for _, t := range validTransitions {
		m[transitionKey{t.From, t.To, t.Actor}] = true
	}
	return m
}()

// ValidTransitionsFrom returns all valid next states from a given state
func ValidTransitionsFrom(status models.OrderStatus) []models.OrderStatus {
	var nexts []models.OrderStatus
	seen := map[models.OrderStatus]bool{}
	for _, t := range validTransitions {
		if t.From == status && !seen[t.To] {
			nexts = append(nexts, t.To)
			seen[t.To] = true
		}
	}
	return nexts
}

// Allowed reports whether actor may move an order from one state to another.
func Allowed(from, to models.OrderStatus, actor Actor) bool {
	return transitionMap[transitionKey{From: from, To: to, Actor: actor}]
}

// CanTransition checks if a given actor can move from one state to another
func CanTransition(from, to models.OrderStatus, actor Actor) error {
	if Allowed(from, to, actor) {
		return nil
	}
	return fmt.Errorf("%w: %s -> %s is not allowed for actor '%s'; valid transitions from %s are: %s",
		ErrInvalidTransition, from, to, actor, from, describeValidFrom(from))
}

// IsTerminal reports whether no transition leaves status.
func IsTerminal(status models.OrderStatus) bool {
	return len(ValidTransitionsFrom(status)) == 0
}

func describeValidFrom(status models.OrderStatus) string {
	nexts := ValidTransitionsFrom(status)
	if len(nexts) == 0 {
		return "none (terminal state)"
	}
	parts := make([]string, len(nexts))
	for i, s := range nexts {
		parts[i] = string(s)
	}
	return strings.Join(parts, ", ")
}

// GetAllTransitions returns the full state machine for documentation
func GetAllTransitions() []Transition {
	out := make([]Transition, len(validTransitions))
	copy(out, validTransitions)
	return out
}
