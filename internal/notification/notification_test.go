package notification

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/congo-pay/atm/internal/logging"
)

func TestInboxDrain(t *testing.T) {
	inbox := NewInbox(2)
	fixed := time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)
	inbox.now = func() time.Time { return fixed }
	ctx := context.Background()

	for _, body := range []string{"first", "second", "third"} {
		if err := inbox.Send(ctx, Message{Kind: KindTransferReceived, Destination: "bob01", Body: body}); err != nil {
			t.Fatalf("send: %v", err)
		}
	}

	got := inbox.Drain("bob01")
	if len(got) != 2 || got[0].Body != "second" || got[1].Body != "third" {
		t.Fatalf("expected the two newest messages, got %+v", got)
	}
	if !got[0].SentAt.Equal(fixed) {
		t.Fatalf("expected SentAt to be stamped, got %v", got[0].SentAt)
	}
	if again := inbox.Drain("bob01"); len(again) != 0 {
		t.Fatalf("drain must empty the inbox, got %+v", again)
	}
	if other := inbox.Drain("alice"); len(other) != 0 {
		t.Fatalf("destinations must be independent, got %+v", other)
	}
}

func TestInboxRejectsMissingDestination(t *testing.T) {
	if err := NewInbox(0).Send(context.Background(), Message{Body: "x"}); err == nil {
		t.Fatal("expected error without destination")
	}
}

type failingNotifier struct{}

func (failingNotifier) Send(context.Context, Message) error { return errors.New("down") }

func TestFanout(t *testing.T) {
	inbox := NewInbox(10)
	f := Fanout{NewLoggerNotifier(logging.Discard()), failingNotifier{}, inbox}

	err := f.Send(context.Background(), Message{Kind: KindLoginLockout, Destination: "alice", Body: "locked"})
	if err == nil {
		t.Fatal("expected the failing notifier's error")
	}
	got := f.Drain("alice")
	if len(got) != 1 || got[0].Kind != KindLoginLockout {
		t.Fatalf("inbox must still receive the message, got %+v", got)
	}
}
