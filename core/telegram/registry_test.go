package telegram

import (
	"testing"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/meetupbot/core/telegram/commands"
)

func markerHandler(hits *[]string, name string) tele.HandlerFunc {
	return func(c tele.Context) error {
		*hits = append(*hits, name)
		return nil
	}
}

func TestResolveCallbackExactBeatsPrefix(t *testing.T) {
	var hits []string
	reg := NewRegistry()
	if err := reg.RegisterCallback("schedule", markerHandler(&hits, "schedule")); err != nil {
		t.Fatalf("RegisterCallback: %v", err)
	}
	if err := reg.RegisterPrefix("schedule", func(c tele.Context, id int64) error {
		hits = append(hits, "prefix")
		return nil
	}); err != nil {
		t.Fatalf("RegisterPrefix: %v", err)
	}

	h, ok := reg.ResolveCallback("schedule")
	if !ok {
		t.Fatal("expected match")
	}
	if err := h(nil); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if len(hits) != 1 || hits[0] != "schedule" {
		t.Fatalf("hits = %v, want exact route", hits)
	}
}

func TestResolveCallbackPrefixParsesID(t *testing.T) {
	reg := NewRegistry()
	var gotID int64
	if err := reg.RegisterPrefix("report_", func(c tele.Context, id int64) error {
		gotID = id
		return nil
	}); err != nil {
		t.Fatalf("RegisterPrefix: %v", err)
	}

	h, ok := reg.ResolveCallback("report_42")
	if !ok {
		t.Fatal("expected prefix match")
	}
	if err := h(nil); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if gotID != 42 {
		t.Fatalf("id = %d, want 42", gotID)
	}
}

func TestResolveCallbackRejectsBadIDs(t *testing.T) {
	reg := NewRegistry()
	_ = reg.RegisterPrefix("ask_", func(c tele.Context, id int64) error { return nil })

	for _, token := range []string{"ask_", "ask_abc", "ask_0", "ask_-3", "ask_1x"} {
		if _, ok := reg.ResolveCallback(token); ok {
			t.Fatalf("token %q should not resolve", token)
		}
	}
}

func TestResolveCallbackRegistrationOrder(t *testing.T) {
	var hits []string
	reg := NewRegistry()
	_ = reg.RegisterPrefix("ask_", func(c tele.Context, id int64) error {
		hits = append(hits, "ask")
		return nil
	})
	_ = reg.RegisterPrefix("ask", func(c tele.Context, id int64) error {
		hits = append(hits, "ask-short")
		return nil
	})

	h, ok := reg.ResolveCallback("ask_7")
	if !ok {
		t.Fatal("expected match")
	}
	_ = h(nil)
	if len(hits) != 1 || hits[0] != "ask" {
		t.Fatalf("hits = %v, want first registered prefix", hits)
	}
}

func TestResolveCallbackUnknownToken(t *testing.T) {
	reg := NewRegistry()
	_ = reg.RegisterCallback("donate", func(c tele.Context) error { return nil })
	if _, ok := reg.ResolveCallback("xyz_999"); ok {
		t.Fatal("unknown token should not resolve")
	}
}

func TestRegisterCallbackDuplicate(t *testing.T) {
	reg := NewRegistry()
	h := func(c tele.Context) error { return nil }
	if err := reg.RegisterCallback("meetup", h); err != nil {
		t.Fatalf("first registration: %v", err)
	}
	if err := reg.RegisterCallback("meetup", h); err == nil {
		t.Fatal("duplicate registration should fail")
	}
}

func TestLookupCommandAliases(t *testing.T) {
	reg := NewRegistry()
	reg.RegisterCommand("/start", commands.Command{
		Handler:     func(c tele.Context) error { return nil },
		Description: "main menu",
		Aliases:     []string{"menu"},
	})

	if _, _, ok := reg.LookupCommand("/start"); !ok {
		t.Fatal("expected /start to resolve")
	}
	if key, _, ok := reg.LookupCommand("menu"); !ok || key != "/start" {
		t.Fatalf("alias lookup = %q ok=%v", key, ok)
	}
	if _, _, ok := reg.LookupCommand("/missing"); ok {
		t.Fatal("unexpected command resolution")
	}
}
