package notification

import (
	"context"
	"testing"
)

func TestInboxStoresAndLists(t *testing.T) {
	inbox := NewInbox(nil)
	ctx := context.Background()

	msgs := []Message{
		{Kind: KindTransferCompleted, Recipient: "bob", Sender: "alice", Body: "first"},
		{Kind: KindTransferCompleted, Recipient: "bob", Sender: "alice", Body: "second"},
		{Kind: KindTransferCompleted, Recipient: "carol", Sender: "alice", Body: "other"},
	}
	for _, m := range msgs {
		if err := inbox.Send(ctx, m); err != nil {
			t.Fatalf("send: %v", err)
		}
	}

	got := inbox.ListForRecipient("bob")
	if len(got) != 2 {
		t.Fatalf("expected 2 notifications for bob, got %d", len(got))
	}
	for _, r := range got {
		if r.IsRead {
			t.Fatal("new notifications start unread")
		}
	}
}

func TestInboxMarkRead(t *testing.T) {
	inbox := NewInbox(nil)
	if err := inbox.Send(context.Background(), Message{Recipient: "bob"}); err != nil {
		t.Fatalf("send: %v", err)
	}

	id := inbox.ListForRecipient("bob")[0].ID
	if !inbox.MarkRead(id) {
		t.Fatal("mark read should succeed")
	}
	if !inbox.ListForRecipient("bob")[0].IsRead {
		t.Fatal("notification should be read")
	}
	if inbox.MarkRead("missing") {
		t.Fatal("unknown id should report false")
	}
}
