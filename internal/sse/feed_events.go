package sse

import (
	"context"
	"sync"
	"time"
)

// FeedNotice tells a browser its feed was reloaded.
type FeedNotice struct {
	Trigger string    `json:"trigger"`
	Page    int       `json:"page"`
	Total   int       `json:"total"`
	Error   string    `json:"error,omitempty"`
	At      time.Time `json:"at"`
}

// FeedEventEmitter fans feed notices out to the SSE connections of each session.
type FeedEventEmitter struct {
	clients     map[string][]chan FeedNotice
	clientMutex sync.RWMutex
}

func NewFeedEventEmitter() *FeedEventEmitter {
	return &FeedEventEmitter{
		clients: make(map[string][]chan FeedNotice),
	}
}

// Subscribe registers a connection for sessionID. The channel is closed once ctx is done.
func (e *FeedEventEmitter) Subscribe(ctx context.Context, sessionID string) <-chan FeedNotice {
	clientChan := make(chan FeedNotice, 10)

	e.clientMutex.Lock()
	e.clients[sessionID] = append(e.clients[sessionID], clientChan)
	e.clientMutex.Unlock()

	go func() {
		<-ctx.Done()
		e.removeClient(sessionID, clientChan)
	}()

	return clientChan
}

// Emit delivers notice to every connection of sessionID and returns how many received it.
func (e *FeedEventEmitter) Emit(sessionID string, notice FeedNotice) int {
	e.clientMutex.RLock()
	defer e.clientMutex.RUnlock()

	delivered := 0
	for _, clientChan := range e.clients[sessionID] {
		// Non-blocking: a slow browser misses the notice rather than stalling the feed.
		select {
		case clientChan <- notice:
			delivered++
		default:
		}
	}
	return delivered
}

func (e *FeedEventEmitter) removeClient(sessionID string, clientChan chan FeedNotice) {
	e.clientMutex.Lock()
	defer e.clientMutex.Unlock()

	clients := e.clients[sessionID]
	for i, ch := range clients {
		if ch == clientChan {
			e.clients[sessionID] = append(clients[:i], clients[i+1:]...)
			close(clientChan)
			break
		}
	}

	if len(e.clients[sessionID]) == 0 {
		delete(e.clients, sessionID)
	}
}

// ClientCount returns the number of open connections for sessionID.
func (e *FeedEventEmitter) ClientCount(sessionID string) int {
	e.clientMutex.RLock()
	defer e.clientMutex.RUnlock()
	return len(e.clients[sessionID])
}
