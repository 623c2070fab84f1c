package chirashi

import "reflect"

// MaxEventTypes defines the maximum number of unique event types that can be
// registered in the EventBus. This value is fixed at 256.
const MaxEventTypes = 256

// EventBus is a lightweight publish/subscribe hub for world-level
// notifications (entity spawned, level loaded, and so on). Handlers run
// synchronously on the publisher's goroutine; the frame driver is the
// intended publisher.
type EventBus struct {
	eventTypeMap    map[reflect.Type]uint8
	handlers        [MaxEventTypes][]interface{}
	nextEventTypeID uint8
}

// Subscribe registers a handler for events of type T. The handler will be
// called whenever an event of type T is published.
func Subscribe[T any](bus *EventBus, handler func(T)) {
	t := reflect.TypeOf((*T)(nil)).Elem()
	id := bus.getEventTypeID(t)
	if cap(bus.handlers[id]) == 0 {
		bus.handlers[id] = make([]interface{}, 0, 4)
	}
	bus.handlers[id] = append(bus.handlers[id], handler)
}

// Publish sends an event of type T to all subscribed handlers, in
// subscription order.
func Publish[T any](bus *EventBus, event T) {
	t := reflect.TypeOf((*T)(nil)).Elem()
	if id, ok := bus.eventTypeMap[t]; ok {
		hs := bus.handlers[id]
		for _, h := range hs {
			h.(func(T))(event)
		}
	}
}

// ClearHandlers drops every subscription, keeping registered type IDs.
func (bus *EventBus) ClearHandlers() {
	for i := range bus.handlers {
		bus.handlers[i] = nil
	}
}

// getEventTypeID retrieves or assigns an ID for the event type.
func (bus *EventBus) getEventTypeID(t reflect.Type) uint8 {
	if bus.eventTypeMap == nil {
		bus.eventTypeMap = make(map[reflect.Type]uint8)
	}
	if id, ok := bus.eventTypeMap[t]; ok {
		return id
	}
	if len(bus.eventTypeMap) >= MaxEventTypes {
		panic("ecs: too many event types")
	}
	id := bus.nextEventTypeID
	bus.nextEventTypeID++
	bus.eventTypeMap[t] = id
	return id
}
