package discord

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/zulandar/planboard/internal/telegraph"
)

// Compile-time interface compliance check.
var _ telegraph.Adapter = (*Adapter)(nil)

// --- Mock Discord session ---

type mockSession struct {
	mu           sync.Mutex
	closeCalled  bool
	meErr        error
	closeErr     error
	sentMessages []sentMessage
	sendErr      error
	sendFn       func() error
}

type sentMessage struct {
	channelID string
	data      *discordgo.MessageSend
}

func newMockSession() *mockSession {
	return &mockSession{}
}

func (m *mockSession) Me() (*discordgo.User, error) {
	if m.meErr != nil {
		return nil, m.meErr
	}
	return &discordgo.User{ID: "BOT_1", Bot: true}, nil
}

func (m *mockSession) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closeCalled = true
	return m.closeErr
}

func (m *mockSession) ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sendFn != nil {
		if err := m.sendFn(); err != nil {
			return nil, err
		}
	}
	if m.sendErr != nil {
		return nil, m.sendErr
	}
	m.sentMessages = append(m.sentMessages, sentMessage{channelID: channelID, data: data})
	return &discordgo.Message{ID: "msg-123"}, nil
}

func (m *mockSession) sentCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sentMessages)
}

func (m *mockSession) lastSent() sentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sentMessages[len(m.sentMessages)-1]
}

// newTestAdapter returns a connected adapter over a mock session.
func newTestAdapter(t *testing.T) (*Adapter, *mockSession) {
	t.Helper()
	sess := newMockSession()
	a, err := New(AdapterOpts{Session: sess, ChannelID: "CH_DEFAULT"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	a.baseBackoff = time.Millisecond
	a.maxBackoff = 5 * time.Millisecond
	if err := a.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	return a, sess
}

func rateLimited() error {
	return &discordgo.RESTError{Response: &http.Response{StatusCode: http.StatusTooManyRequests}}
}

// --- New tests ---

func TestNew_RequiresBotToken(t *testing.T) {
	_, err := New(AdapterOpts{})
	if err == nil {
		t.Fatal("expected error for missing bot token")
	}
	if !strings.Contains(err.Error(), "bot token is required") {
		t.Errorf("error = %q", err.Error())
	}
}

func TestNew_WithBotToken(t *testing.T) {
	a, err := New(AdapterOpts{BotToken: "token", ChannelID: "CH1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.channelID != "CH1" {
		t.Errorf("channelID = %q, want CH1", a.channelID)
	}
}

// --- Connect tests ---

func TestConnect_Success(t *testing.T) {
	a, _ := newTestAdapter(t)
	if a.BotUserID() != "BOT_1" {
		t.Errorf("BotUserID = %q, want BOT_1", a.BotUserID())
	}
}

func TestConnect_VerifyError(t *testing.T) {
	sess := newMockSession()
	sess.meErr = fmt.Errorf("401 unauthorized")
	a, _ := New(AdapterOpts{Session: sess})

	err := a.Connect(context.Background())
	if err == nil {
		t.Fatal("expected verify error")
	}
	if !strings.Contains(err.Error(), "verify token") {
		t.Errorf("error = %q, want verify token", err.Error())
	}
}

func TestConnect_AlreadyClosed(t *testing.T) {
	a, _ := newTestAdapter(t)
	a.Close()
	if err := a.Connect(context.Background()); err == nil {
		t.Fatal("expected error for closed adapter")
	}
}

func TestConnect_Idempotent(t *testing.T) {
	a, _ := newTestAdapter(t)
	if err := a.Connect(context.Background()); err != nil {
		t.Fatalf("second connect should not error: %v", err)
	}
}

// --- Send tests ---

func TestSend_SimpleText(t *testing.T) {
	a, sess := newTestAdapter(t)

	err := a.Send(context.Background(), telegraph.OutboundMessage{ChannelID: "CH1", Text: "hello"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sess.sentCount() != 1 {
		t.Fatalf("sent = %d, want 1", sess.sentCount())
	}
	last := sess.lastSent()
	if last.channelID != "CH1" {
		t.Errorf("channel = %q, want CH1", last.channelID)
	}
	if last.data.Content != "hello" {
		t.Errorf("content = %q, want hello", last.data.Content)
	}
}

func TestSend_DefaultChannel(t *testing.T) {
	a, sess := newTestAdapter(t)
	if err := a.Send(context.Background(), telegraph.OutboundMessage{Text: "hi"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := sess.lastSent().channelID; got != "CH_DEFAULT" {
		t.Errorf("channel = %q, want CH_DEFAULT", got)
	}
}

func TestSend_NoChannel(t *testing.T) {
	a, _ := New(AdapterOpts{Session: newMockSession()})
	a.Connect(context.Background())
	if err := a.Send(context.Background(), telegraph.OutboundMessage{Text: "x"}); err == nil {
		t.Fatal("expected error for no channel")
	}
}

func TestSend_WithEvents(t *testing.T) {
	a, sess := newTestAdapter(t)

	err := a.Send(context.Background(), telegraph.OutboundMessage{
		Events: []telegraph.FormattedEvent{
			{Title: "Sprint 1 completed", Body: "Setup", Color: "#36a64f"},
			{Title: "Ticket T-4 blocked", Color: "#ff9800"},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n := len(sess.lastSent().data.Embeds); n != 2 {
		t.Errorf("embeds = %d, want 2", n)
	}
}

func TestSend_NotConnected(t *testing.T) {
	a, _ := New(AdapterOpts{Session: newMockSession()})
	if err := a.Send(context.Background(), telegraph.OutboundMessage{ChannelID: "CH1", Text: "x"}); err == nil {
		t.Fatal("expected error for not connected")
	}
}

func TestSend_PostError(t *testing.T) {
	a, sess := newTestAdapter(t)
	sess.sendErr = fmt.Errorf("missing access")

	err := a.Send(context.Background(), telegraph.OutboundMessage{ChannelID: "CH1", Text: "x"})
	if err == nil {
		t.Fatal("expected send error")
	}
	if !strings.Contains(err.Error(), "send message") {
		t.Errorf("error = %q, want send message prefix", err.Error())
	}
}

func TestSend_RetriesOnRateLimit(t *testing.T) {
	a, sess := newTestAdapter(t)
	calls := 0
	sess.sendFn = func() error {
		calls++
		if calls == 1 {
			return rateLimited()
		}
		return nil
	}

	if err := a.Send(context.Background(), telegraph.OutboundMessage{ChannelID: "CH1", Text: "x"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sess.sentCount() != 1 {
		t.Errorf("sent = %d, want 1", sess.sentCount())
	}
}

// --- Close tests ---

func TestClose_Success(t *testing.T) {
	a, sess := newTestAdapter(t)
	if err := a.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !sess.closeCalled {
		t.Error("session Close should be called")
	}
}

func TestClose_Idempotent(t *testing.T) {
	a, _ := newTestAdapter(t)
	a.Close()
	if err := a.Close(); err != nil {
		t.Fatalf("second close should not error: %v", err)
	}
}

// --- Formatting tests ---

func TestBuildMessageSend_TextOnly(t *testing.T) {
	data := buildMessageSend(telegraph.OutboundMessage{Text: "hello"})
	if data.Content != "hello" {
		t.Errorf("content = %q", data.Content)
	}
	if len(data.Embeds) != 0 {
		t.Errorf("embeds = %d, want 0", len(data.Embeds))
	}
}

func TestEventToEmbed(t *testing.T) {
	evt := telegraph.FormattedEvent{
		Title: "Ticket T-1 completed",
		Body:  "Repo scaffold",
		Color: "#36a64f",
		Fields: []telegraph.Field{
			{Name: "Ticket", Value: "T-1", Short: true},
			{Name: "Owner", Value: "devops", Short: false},
		},
	}
	embed := eventToEmbed(evt)
	if embed.Title != "Ticket T-1 completed" {
		t.Errorf("title = %q", embed.Title)
	}
	if embed.Description != "Repo scaffold" {
		t.Errorf("description = %q", embed.Description)
	}
	if embed.Color != 0x36a64f {
		t.Errorf("color = %x, want 36a64f", embed.Color)
	}
	if len(embed.Fields) != 2 {
		t.Fatalf("fields = %d, want 2", len(embed.Fields))
	}
	if !embed.Fields[0].Inline || embed.Fields[1].Inline {
		t.Error("inline flags should follow Short")
	}
}

func TestEventToEmbed_NoColor(t *testing.T) {
	embed := eventToEmbed(telegraph.FormattedEvent{Title: "x"})
	if embed.Color != 0 {
		t.Errorf("color = %d, want 0", embed.Color)
	}
}

func TestParseHexColor(t *testing.T) {
	tests := []struct {
		hex  string
		want int
	}{
		{"#36a64f", 0x36a64f},
		{"36A64F", 0x36a64f},
		{"#e53935", 0xe53935},
		{"", 0},
	}
	for _, tt := range tests {
		if got := parseHexColor(tt.hex); got != tt.want {
			t.Errorf("parseHexColor(%q) = %x, want %x", tt.hex, got, tt.want)
		}
	}
}

// --- retryOnRateLimit tests ---

func TestRetryOnRateLimit_NonRateLimitError(t *testing.T) {
	a, _ := newTestAdapter(t)
	calls := 0
	err := a.retryOnRateLimit(context.Background(), func() error {
		calls++
		return fmt.Errorf("boom")
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestRetryOnRateLimit_RetriesAndSucceeds(t *testing.T) {
	a, _ := newTestAdapter(t)
	calls := 0
	err := a.retryOnRateLimit(context.Background(), func() error {
		calls++
		if calls < 3 {
			return rateLimited()
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestRetryOnRateLimit_ExhaustsRetries(t *testing.T) {
	a, _ := newTestAdapter(t)
	calls := 0
	err := a.retryOnRateLimit(context.Background(), func() error {
		calls++
		return rateLimited()
	})
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if calls != maxRetries+1 {
		t.Errorf("expected %d calls, got %d", maxRetries+1, calls)
	}
}

func TestRetryOnRateLimit_RespectsContext(t *testing.T) {
	a, _ := newTestAdapter(t)
	a.baseBackoff = time.Second
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := a.retryOnRateLimit(ctx, func() error {
		calls++
		return rateLimited()
	})
	if err != context.Canceled {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}
