package message

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

type Service struct {
	repo     Repository
	resolver *Resolver
}

func NewService(repo Repository, resolver *Resolver) *Service {
	return &Service{repo: repo, resolver: resolver}
}

func (s *Service) Resolver() *Resolver {
	return s.resolver
}

// Record stores a message, truncating oversized bodies rather than failing
// the conversation transcript. Truncation lands on a rune boundary; Postgres
// rejects text with a split UTF-8 sequence.
func (s *Service) Record(ctx context.Context, msg *Message) error {
	msg.Body = strings.TrimSpace(msg.Body)
	if len(msg.Body) > MaxBodyLength {
		cut := MaxBodyLength
		for cut > 0 && !utf8.RuneStart(msg.Body[cut]) {
			cut--
		}
		msg.Body = msg.Body[:cut]
	}
	return s.repo.Create(ctx, msg)
}

// Thread loads a full conversation, resolves its display name and marks all
// unread inbound messages read: opening a thread means the operator has seen
// it.
func (s *Service) Thread(ctx context.Context, phone string) (*Thread, error) {
	msgs, err := s.repo.ListByPhone(ctx, phone)
	if err != nil {
		return nil, fmt.Errorf("load thread: %w", err)
	}

	name, err := s.resolver.DisplayName(ctx, phone)
	if err != nil {
		return nil, err
	}

	if err := s.repo.MarkInboundRead(ctx, phone, time.Now()); err != nil {
		return nil, err
	}

	return &Thread{
		CustomerPhone: phone,
		CustomerName:  name,
		Messages:      msgs,
	}, nil
}

// ListThreads returns the conversation list, filling names missing from the
// message trail with booking history.
func (s *Service) ListThreads(ctx context.Context) ([]ThreadSummary, error) {
	threads, err := s.repo.ListThreads(ctx)
	if err != nil {
		return nil, fmt.Errorf("list threads: %w", err)
	}

	for i := range threads {
		if threads[i].CustomerName != "" {
			continue
		}
		name, err := s.resolver.DisplayName(ctx, threads[i].CustomerPhone)
		if err != nil {
			return nil, err
		}
		threads[i].CustomerName = name
	}

	return threads, nil
}

// Rename sets or clears the customer name across a whole thread.
func (s *Service) Rename(ctx context.Context, phone, name string) error {
	return s.repo.SetThreadName(ctx, phone, strings.TrimSpace(name))
}
