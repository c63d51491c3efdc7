package eventbus

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

type started struct{ Name string }
type stopped struct{}

func TestPublishWithoutBus(t *testing.T) {
	Use(nil)
	called := false
	unsubscribe := Subscribe(func(context.Context, started) { called = true })
	Publish(context.Background(), started{})
	unsubscribe()
	require.False(t, called)
}

func TestPublishByType(t *testing.T) {
	Use(New())
	t.Cleanup(func() { Use(nil) })

	var got []string
	defer Subscribe(func(_ context.Context, e started) { got = append(got, "a:"+e.Name) })()
	defer Subscribe(func(_ context.Context, e started) { got = append(got, "b:"+e.Name) })()
	defer Subscribe(func(context.Context, stopped) { got = append(got, "stopped") })()

	Publish(context.Background(), started{Name: "x"})
	Publish(context.Background(), stopped{})
	require.Equal(t, []string{"a:x", "b:x", "stopped"}, got)
}

func TestUnsubscribeRemovesOnlyItsHandler(t *testing.T) {
	Use(New())
	t.Cleanup(func() { Use(nil) })

	var got []string
	handler := func(name string) Handler[started] {
		return func(context.Context, started) { got = append(got, name) }
	}
	first := Subscribe(handler("first"))
	second := Subscribe(handler("second"))
	defer second()

	first()
	first()
	Publish(context.Background(), started{})
	require.Equal(t, []string{"second"}, got)
}

func TestUnsubscribeDuringPublish(t *testing.T) {
	Use(New())
	t.Cleanup(func() { Use(nil) })

	calls := 0
	var unsubscribe func()
	unsubscribe = Subscribe(func(context.Context, started) {
		calls++
		unsubscribe()
	})
	Publish(context.Background(), started{})
	Publish(context.Background(), started{})
	require.Equal(t, 1, calls)
}
