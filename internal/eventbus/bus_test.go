package eventbus

import (
	"context"
	"testing"

	"taskmgr/pkg/logx"
)

func TestPublishDeliversInSubscriptionOrder(t *testing.T) {
	t.Parallel()
	b := New[int]("test", logx.Nop())

	var order []string
	b.Subscribe(func(_ context.Context, _ int) { order = append(order, "first") })
	b.Subscribe(func(_ context.Context, _ int) { order = append(order, "second") })
	b.Subscribe(func(_ context.Context, _ int) { order = append(order, "third") })

	b.Publish(context.Background(), 1)

	want := []string{"first", "second", "third"}
	if len(order) != len(want) {
		t.Fatalf("delivered to %d subscribers, want %d", len(order), len(want))
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("delivery order = %v, want %v", order, want)
		}
	}
}

func TestPublishIsSynchronous(t *testing.T) {
	t.Parallel()
	b := New[string]("test", logx.Nop())

	done := false
	b.Subscribe(func(_ context.Context, _ string) { done = true })

	b.Publish(context.Background(), "e")
	if !done {
		t.Fatal("Publish returned before the subscriber ran")
	}
}

func TestPanickingSubscriberDoesNotBlockOthers(t *testing.T) {
	t.Parallel()
	b := New[int]("test", logx.Nop())

	var after int
	b.Subscribe(func(_ context.Context, _ int) { panic("boom") })
	b.Subscribe(func(_ context.Context, v int) { after = v })

	b.Publish(context.Background(), 42)
	if after != 42 {
		t.Fatalf("subscriber after the panic did not run, after = %d", after)
	}
}

func TestPublishWithNoSubscribers(t *testing.T) {
	t.Parallel()
	b := New[int]("test", logx.Nop())
	b.Publish(context.Background(), 7) // must not panic or block
}

func TestNilSubscriberIgnored(t *testing.T) {
	t.Parallel()
	b := New[int]("test", logx.Nop())
	b.Subscribe(nil)
	b.Publish(context.Background(), 1)
}
