package events

import (
	"sync"
	"time"

	"github.com/cbodonnell/wagervault/pkg/custody"
)

// Event types
const (
	EventTypeGameCreated            = "game-created"
	EventTypeGameJoined             = "game-joined"
	EventTypeGameResolved           = "game-resolved"
	EventTypeDisputeOpened          = "dispute-opened"
	EventTypeAdminResolutionApplied = "admin-resolution-applied"
)

// Event is the envelope for every signal the platform emits.
type Event struct {
	Type      string      `json:"type"`
	GameID    int64       `json:"gameId"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

type GameCreated struct {
	Player1 string        `json:"player1"`
	Wager   int64         `json:"wager"`
	Asset   custody.Asset `json:"asset"`
}

type GameJoined struct {
	Player2 string `json:"player2"`
}

type GameResolved struct {
	Winner string `json:"winner"`
	Net    int64  `json:"net"`
	Fee    int64  `json:"fee"`
}

type DisputeOpened struct {
	Ref      string `json:"ref"`
	OpenedBy string `json:"openedBy"`
}

type AdminResolutionApplied struct {
	Admin  string `json:"admin"`
	Winner string `json:"winner"`
}

type EventHandler func(event Event)

// EventManager fans events out to registered handlers.
type EventManager struct {
	lock     sync.Mutex
	handlers map[int]EventHandler
	nextID   int
}

func NewEventManager() *EventManager {
	return &EventManager{
		handlers: make(map[int]EventHandler),
	}
}

// RegisterHandler registers a handler for events and returns its id.
// The handler will be called in a goroutine.
func (em *EventManager) RegisterHandler(handler EventHandler) int {
	em.lock.Lock()
	defer em.lock.Unlock()
	id := em.nextID
	em.nextID++
	em.handlers[id] = handler
	return id
}

// UnregisterHandler removes a previously registered handler.
func (em *EventManager) UnregisterHandler(id int) {
	em.lock.Lock()
	defer em.lock.Unlock()
	delete(em.handlers, id)
}

// Trigger triggers an event.
// All registered handlers will be called in their own goroutine.
func (em *EventManager) Trigger(event Event) {
	em.lock.Lock()
	defer em.lock.Unlock()
	for _, handler := range em.handlers {
		go handler(event)
	}
}
