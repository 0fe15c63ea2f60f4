package http

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/aretw0/funnel"
	"github.com/aretw0/funnel/internal/logging"
	"github.com/aretw0/funnel/pkg/domain"
	"github.com/aretw0/funnel/pkg/session"
)

// StreamManager fans state diffs out to SSE subscribers, per journey.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan<- string]struct{}
	logger      *slog.Logger
}

// NewStreamManager creates an empty StreamManager.
func NewStreamManager() *StreamManager {
	return &StreamManager{
		subscribers: make(map[string]map[chan<- string]struct{}),
		logger:      logging.NewNop(),
	}
}

// Subscribe registers a buffered channel for journeyID. The returned func
// unsubscribes and closes the channel.
func (sm *StreamManager) Subscribe(journeyID string) (chan string, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan string, 16)
	if _, ok := sm.subscribers[journeyID]; !ok {
		sm.subscribers[journeyID] = make(map[chan<- string]struct{})
	}
	sm.subscribers[journeyID][ch] = struct{}{}

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			sm.mu.Lock()
			defer sm.mu.Unlock()
			if subs, ok := sm.subscribers[journeyID]; ok {
				delete(subs, ch)
				if len(subs) == 0 {
					delete(sm.subscribers, journeyID)
				}
			}
			close(ch)
		})
	}
}

// Broadcast sends msg to every subscriber of journeyID. Slow clients drop messages.
func (sm *StreamManager) Broadcast(journeyID string, msg string) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	for ch := range sm.subscribers[journeyID] {
		select {
		case ch <- msg:
		default:
			sm.logger.Warn("sse client buffer full, dropping message", "journey_id", journeyID)
		}
	}
}

// broadcast streams the diff of every store write of j.
func (s *Server) broadcast(j *funnel.Journey) func() {
	return j.Store().Subscribe(func(c session.Change) {
		diff := domain.Diff(c.Prev, c.Next)
		if diff == nil || diff.IsEmpty() {
			return
		}
		data, err := json.Marshal(diff)
		if err != nil {
			s.logger.Warn("diff encode failed", "journey_id", c.Next.JourneyID, "err", err)
			return
		}
		s.streams.Broadcast(c.Next.JourneyID, string(data))
	})
}

// SubscribeEvents handles GET /journeys/{id}/events. The optional watch
// query parameter filters diffs by section: fields, history, status, typing.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	j, ok := s.lookup(w, r)
	if !ok {
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch, cancel := s.streams.Subscribe(j.ID())
	defer cancel()

	var watch []string
	if v := r.URL.Query().Get("watch"); v != "" {
		watch = strings.Split(v, ",")
	}

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()
	s.logger.Info("sse subscribed", "journey_id", j.ID())

	for {
		select {
		case <-r.Context().Done():
			s.logger.Info("sse client disconnected", "journey_id", j.ID())
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if len(watch) > 0 && !wanted(msg, watch) {
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

func wanted(msg string, watch []string) bool {
	var diff domain.StateDiff
	if err := json.Unmarshal([]byte(msg), &diff); err != nil {
		return true
	}
	for _, field := range watch {
		switch strings.TrimSpace(field) {
		case "fields":
			if len(diff.Fields) > 0 {
				return true
			}
		case "history":
			if diff.History != nil {
				return true
			}
		case "status":
			if diff.Status != nil || diff.CurrentStepID != nil {
				return true
			}
		case "typing":
			if diff.IsTyping != nil {
				return true
			}
		}
	}
	return false
}
