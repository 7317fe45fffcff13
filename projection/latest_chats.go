// Package projection builds local read models from observed events.
// Handles ordering and folding. Does not emit events or touch storage.
package projection

import (
	"context"
	"sync"

	"wachat/domain"
	"wachat/domain/event"
)

// ChatSummary is one line of the chat-list sidebar.
type ChatSummary struct {
	RoomID      domain.RoomID
	DisplayName string
	LastMessage string
	IsRead      bool
}

// LatestChats folds RoomCreated and LatestChatUpdate events into a
// most-recent-first list of conversations, one entry per room.
type LatestChats struct {
	mu    sync.Mutex
	order []domain.RoomID
	chats map[domain.RoomID]ChatSummary
}

func NewLatestChats() *LatestChats {
	return &LatestChats{chats: make(map[domain.RoomID]ChatSummary)}
}

func (l *LatestChats) Consume(_ context.Context, e event.DomainEvent) error {
	switch evt := e.(type) {
	case event.RoomCreated:
		l.upsert(ChatSummary{
			RoomID:      evt.ID,
			DisplayName: evt.DisplayName,
			LastMessage: evt.LastMessage,
			IsRead:      evt.IsRead,
		})
	case event.LatestChatUpdate:
		l.upsert(ChatSummary{
			RoomID:      evt.RoomID,
			DisplayName: evt.SenderName,
			LastMessage: evt.Content,
			IsRead:      false,
		})
	}
	return nil
}

// Chats returns a snapshot, most recently active room first.
func (l *LatestChats) Chats() []ChatSummary {
	l.mu.Lock()
	defer l.mu.Unlock()
	res := make([]ChatSummary, 0, len(l.order))
	for i := len(l.order) - 1; i >= 0; i-- {
		res = append(res, l.chats[l.order[i]])
	}
	return res
}

func (l *LatestChats) upsert(chat ChatSummary) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, seen := l.chats[chat.RoomID]; seen {
		for i, id := range l.order {
			if id == chat.RoomID {
				l.order = append(l.order[:i], l.order[i+1:]...)
				break
			}
		}
	}
	l.order = append(l.order, chat.RoomID)
	l.chats[chat.RoomID] = chat
}
