package weave

import (
	"github.com/akmonengine/weave/actor"
)

const (
	CONTACT_BEGIN EventType = iota
	CONTACT_STAY
	CONTACT_END
)

type EventType uint8

// Event interface - all events implement this
type Event interface {
	Type() EventType
}

// ContactBeginEvent is sent when a particle starts touching a body, or
// switches to a deeper one
type ContactBeginEvent struct {
	Particle ParticleID
	Body     *actor.RigidBody
}

func (e ContactBeginEvent) Type() EventType { return CONTACT_BEGIN }

type ContactStayEvent struct {
	Particle ParticleID
	Body     *actor.RigidBody
}

func (e ContactStayEvent) Type() EventType { return CONTACT_STAY }

type ContactEndEvent struct {
	Particle ParticleID
	Body     *actor.RigidBody
}

func (e ContactEndEvent) Type() EventType { return CONTACT_END }

// EventListener - callback for events
type EventListener func(event Event)

type contactPair struct {
	particle ParticleID
	body     *actor.RigidBody
}

// Events manager
type Events struct {
	// Listeners by event type
	listeners map[EventType][]EventListener

	// Event buffer to send at flush
	buffer []Event

	// Contact tracking for Begin/Stay/End detection, in particle order
	previous    []contactPair
	current     []contactPair
	currentSet  map[contactPair]bool
	previousSet map[contactPair]bool
}

func NewEvents() Events {
	return Events{
		listeners:   make(map[EventType][]EventListener),
		buffer:      make([]Event, 0, 64),
		currentSet:  make(map[contactPair]bool),
		previousSet: make(map[contactPair]bool),
	}
}

// Subscribe adds a listener for an event type
func (e *Events) Subscribe(eventType EventType, listener EventListener) {
	e.listeners[eventType] = append(e.listeners[eventType], listener)
}

// recordContact is called once per active contact after the refresh
func (e *Events) recordContact(id ParticleID, body *actor.RigidBody) {
	pair := contactPair{particle: id, body: body}
	e.current = append(e.current, pair)
	e.currentSet[pair] = true
}

// forget drops a removed particle so it never produces an End event
func (e *Events) forget(id ParticleID) {
	n := 0
	for _, pair := range e.previous {
		if pair.particle == id {
			delete(e.previousSet, pair)
			continue
		}
		e.previous[n] = pair
		n++
	}
	e.previous = e.previous[:n]
}

// processContactEvents compares current and previous pairs to detect
// Begin/Stay/End
func (e *Events) processContactEvents() {
	for _, pair := range e.current {
		if e.previousSet[pair] {
			e.buffer = append(e.buffer, ContactStayEvent{Particle: pair.particle, Body: pair.body})
		} else {
			e.buffer = append(e.buffer, ContactBeginEvent{Particle: pair.particle, Body: pair.body})
		}
	}

	for _, pair := range e.previous {
		if !e.currentSet[pair] {
			e.buffer = append(e.buffer, ContactEndEvent{Particle: pair.particle, Body: pair.body})
		}
	}

	// Swap for next step and clear current
	e.previous, e.current = e.current, e.previous[:0]
	e.previousSet, e.currentSet = e.currentSet, e.previousSet
	clear(e.currentSet)
}

// flush sends all buffered events and clears the buffer
func (e *Events) flush() {
	e.processContactEvents()

	for _, event := range e.buffer {
		if listeners, ok := e.listeners[event.Type()]; ok {
			for _, listener := range listeners {
				listener(event)
			}
		}
	}
	e.buffer = e.buffer[:0]
}
