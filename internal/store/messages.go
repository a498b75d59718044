package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/xelns/xelns-web/internal/entity"
)

// MessageDateLayout is how a contact message's submission time is shown.
const MessageDateLayout = "2006-01-02 15:04:05"

// NewMessage holds the fields a visitor fills in on the contact form.
type NewMessage struct {
	Name    string
	Phone   string
	Email   string
	Content string
}

// Messages returns the contact messages, newest first.
func (s *Store) Messages(ctx context.Context) []entity.ContactMessage {
	return Get(ctx, s, entity.Messages.StorageKey(), []entity.ContactMessage{})
}

func (s *Store) SetMessages(ctx context.Context, v []entity.ContactMessage) error {
	return s.setEntity(ctx, entity.Messages, v)
}

// AddMessage stores a new unread message ahead of the existing ones.
func (s *Store) AddMessage(ctx context.Context, in NewMessage, now time.Time) (entity.ContactMessage, error) {
	msg := entity.ContactMessage{
		ID:      "msg_" + uuid.NewString(),
		Name:    in.Name,
		Phone:   in.Phone,
		Email:   in.Email,
		Content: in.Content,
		Date:    now.Format(MessageDateLayout),
	}
	list := append([]entity.ContactMessage{msg}, s.Messages(ctx)...)
	if err := s.SetMessages(ctx, list); err != nil {
		return entity.ContactMessage{}, err
	}
	return msg, nil
}

// DeleteMessage removes the message with id. Unknown ids are a no-op.
func (s *Store) DeleteMessage(ctx context.Context, id string) error {
	cur := s.Messages(ctx)
	out := cur[:0:0]
	for _, m := range cur {
		if m.ID != id {
			out = append(out, m)
		}
	}
	if len(out) == len(cur) {
		return nil
	}
	return s.SetMessages(ctx, out)
}

// MarkMessageRead flags the message with id as read.
func (s *Store) MarkMessageRead(ctx context.Context, id string) error {
	list := s.Messages(ctx)
	changed := false
	for i := range list {
		if list[i].ID == id && !list[i].Read {
			list[i].Read = true
			changed = true
		}
	}
	if !changed {
		return nil
	}
	return s.SetMessages(ctx, list)
}

// UnreadCount returns how many messages are still unread.
func (s *Store) UnreadCount(ctx context.Context) int {
	n := 0
	for _, m := range s.Messages(ctx) {
		if !m.Read {
			n++
		}
	}
	return n
}
