package storage

import (
	"context"
	"errors"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), "sqlite", "file::memory:", true)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func strPtr(s string) *string { return &s }

func TestProfileLifecycle(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	p, err := s.CreateProfile(ctx, "Helper", "openai", "gpt-4o-mini", "be brief")
	if err != nil {
		t.Fatalf("create profile: %v", err)
	}
	if p.ID == "" || !p.CreatedAt.Equal(p.UpdatedAt) {
		t.Fatalf("unexpected created profile %+v", p)
	}

	got, err := s.GetProfile(ctx, p.ID)
	if err != nil {
		t.Fatalf("get profile: %v", err)
	}
	if got.Name != "Helper" || got.SystemPrompt != "be brief" || !got.CreatedAt.Equal(p.CreatedAt) {
		t.Fatalf("unexpected profile %+v", got)
	}

	updated, err := s.UpdateProfile(ctx, p.ID, ProfilePatch{SystemPrompt: strPtr("be verbose")})
	if err != nil {
		t.Fatalf("update profile: %v", err)
	}
	if updated.SystemPrompt != "be verbose" || updated.Name != "Helper" || updated.Provider != "openai" {
		t.Fatalf("partial update changed the wrong fields: %+v", updated)
	}
	if !updated.UpdatedAt.After(p.UpdatedAt) {
		t.Fatalf("expected updated_at to advance, got %v -> %v", p.UpdatedAt, updated.UpdatedAt)
	}

	same, err := s.UpdateProfile(ctx, p.ID, ProfilePatch{})
	if err != nil {
		t.Fatalf("empty update: %v", err)
	}
	if !same.UpdatedAt.Equal(updated.UpdatedAt) {
		t.Fatalf("empty patch must not touch updated_at")
	}

	if err := s.DeleteProfile(ctx, p.ID); err != nil {
		t.Fatalf("delete profile: %v", err)
	}
	if _, err := s.GetProfile(ctx, p.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if err := s.DeleteProfile(ctx, p.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
	if _, err := s.UpdateProfile(ctx, p.ID, ProfilePatch{Name: strPtr("x")}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound updating deleted profile, got %v", err)
	}
}

func TestDeleteProfileLeavesChatReference(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	p, err := s.CreateProfile(ctx, "Helper", "openai", "gpt-4o", "")
	if err != nil {
		t.Fatalf("create profile: %v", err)
	}
	c, err := s.CreateChat(ctx, strPtr("talk"), &p.ID)
	if err != nil {
		t.Fatalf("create chat: %v", err)
	}
	if err := s.DeleteProfile(ctx, p.ID); err != nil {
		t.Fatalf("delete profile: %v", err)
	}
	got, err := s.GetChat(ctx, c.ID)
	if err != nil {
		t.Fatalf("get chat: %v", err)
	}
	if got.ModelProfileID == nil || *got.ModelProfileID != p.ID {
		t.Fatalf("expected dangling profile reference to survive, got %+v", got.ModelProfileID)
	}
}

func TestChatPatch(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	c, err := s.CreateChat(ctx, nil, nil)
	if err != nil {
		t.Fatalf("create chat: %v", err)
	}
	if c.Title != nil || c.ModelProfileID != nil {
		t.Fatalf("expected null title and profile, got %+v", c)
	}

	if _, err := s.UpdateChat(ctx, c.ID, ChatPatch{}); !errors.Is(err, ErrEmptyPatch) {
		t.Fatalf("expected ErrEmptyPatch, got %v", err)
	}

	updated, err := s.UpdateChat(ctx, c.ID, ChatPatch{Title: strPtr("renamed")})
	if err != nil {
		t.Fatalf("update chat: %v", err)
	}
	if updated.Title == nil || *updated.Title != "renamed" || updated.ModelProfileID != nil {
		t.Fatalf("unexpected patched chat %+v", updated)
	}
	if !updated.UpdatedAt.After(c.UpdatedAt) {
		t.Fatalf("expected updated_at to advance")
	}

	if _, err := s.UpdateChat(ctx, "00000000-0000-0000-0000-000000000000", ChatPatch{Title: strPtr("x")}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAppendMessageTouchesChat(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	older, err := s.CreateChat(ctx, strPtr("older"), nil)
	if err != nil {
		t.Fatalf("create chat: %v", err)
	}
	newer, err := s.CreateChat(ctx, strPtr("newer"), nil)
	if err != nil {
		t.Fatalf("create chat: %v", err)
	}

	m, err := s.AppendMessage(ctx, older.ID, RoleUser, "hello")
	if err != nil {
		t.Fatalf("append message: %v", err)
	}

	got, err := s.GetChat(ctx, older.ID)
	if err != nil {
		t.Fatalf("get chat: %v", err)
	}
	if !got.UpdatedAt.Equal(m.CreatedAt) {
		t.Fatalf("expected chat updated_at %v to equal message created_at %v", got.UpdatedAt, m.CreatedAt)
	}

	chats, err := s.ListChats(ctx)
	if err != nil {
		t.Fatalf("list chats: %v", err)
	}
	if len(chats) != 2 || chats[0].ID != older.ID || chats[1].ID != newer.ID {
		t.Fatalf("expected most recently active chat first, got %+v", chats)
	}

	if _, err := s.AppendMessage(ctx, "00000000-0000-0000-0000-000000000000", RoleUser, "x"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound appending to missing chat, got %v", err)
	}
}

func TestTrailingMessagesOldestFirst(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	c, err := s.CreateChat(ctx, nil, nil)
	if err != nil {
		t.Fatalf("create chat: %v", err)
	}
	for _, content := range []string{"m1", "m2", "m3"} {
		if _, err := s.AppendMessage(ctx, c.ID, RoleUser, content); err != nil {
			t.Fatalf("append %s: %v", content, err)
		}
	}

	tail, err := s.TrailingMessages(ctx, c.ID, 2)
	if err != nil {
		t.Fatalf("trailing messages: %v", err)
	}
	if len(tail) != 2 || tail[0].Content != "m2" || tail[1].Content != "m3" {
		t.Fatalf("expected [m2 m3], got %+v", tail)
	}

	all, err := s.ListMessages(ctx, c.ID, 100)
	if err != nil {
		t.Fatalf("list messages: %v", err)
	}
	if len(all) != 3 || all[0].Content != "m1" || all[2].Content != "m3" {
		t.Fatalf("expected [m1 m2 m3], got %+v", all)
	}

	again, err := s.ListMessages(ctx, c.ID, 100)
	if err != nil {
		t.Fatalf("list messages again: %v", err)
	}
	for i := range all {
		if all[i].ID != again[i].ID || all[i].Content != again[i].Content || !all[i].CreatedAt.Equal(again[i].CreatedAt) {
			t.Fatalf("repeated read differs at %d: %+v vs %+v", i, all[i], again[i])
		}
	}
}

func TestClockStrictlyIncreasing(t *testing.T) {
	c := &clock{}
	prev := c.Now()
	for i := 0; i < 1000; i++ {
		next := c.Now()
		if !next.After(prev) {
			t.Fatalf("clock went backwards or stalled: %v -> %v", prev, next)
		}
		if next.Sub(next.Truncate(time.Microsecond)) != 0 {
			t.Fatalf("expected microsecond precision, got %v", next)
		}
		prev = next
	}
}
