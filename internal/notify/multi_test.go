package notify_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rkhanna/amulwatch/internal/notify"
)

type stubChannel struct {
	name string
	err  error
	sent int
}

func (s *stubChannel) Name() string { return s.name }

func (s *stubChannel) Send(context.Context, notify.Alert) error {
	s.sent++
	return s.err
}

func TestMulti_DispatchFansOut(t *testing.T) {
	t.Parallel()

	a := &stubChannel{name: "a"}
	b := &stubChannel{name: "b"}
	m := notify.NewMulti(nil, a, b)

	delivered := m.Dispatch(context.Background(), notify.Alert{Subject: "s", Body: "b"})
	assert.Equal(t, 2, delivered)
	assert.Equal(t, 1, a.sent)
	assert.Equal(t, 1, b.sent)
}

func TestMulti_FailureDoesNotStopOthers(t *testing.T) {
	t.Parallel()

	broken := &stubChannel{name: "broken", err: errors.New("down")}
	healthy := &stubChannel{name: "healthy"}
	m := notify.NewMulti(nil, broken, healthy)

	delivered := m.Dispatch(context.Background(), notify.Alert{Subject: "s", Body: "b"})
	assert.Equal(t, 1, delivered)
	assert.Equal(t, 1, healthy.sent)
}

func TestMulti_Len(t *testing.T) {
	t.Parallel()

	assert.Zero(t, notify.NewMulti(nil).Len())
	assert.Equal(t, 2, notify.NewMulti(nil, &stubChannel{name: "a"}, &stubChannel{name: "b"}).Len())
}
