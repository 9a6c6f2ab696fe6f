package dbus

import (
	"context"
	"errors"
	"testing"

	"github.com/godbus/dbus/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCaller struct {
	method string
	args   []any
	call   *dbus.Call
}

func (f *fakeCaller) CallWithContext(_ context.Context, method string, _ dbus.Flags, args ...any) *dbus.Call {
	f.method = method
	f.args = args
	return f.call
}

func TestNotifier_Notify(t *testing.T) {
	caller := &fakeCaller{call: &dbus.Call{Body: []any{uint32(42)}}}
	n := NewNotifierWithCaller(caller, nil)

	id, err := n.Notify(context.Background(), &Notification{
		Summary:       "Running low",
		Body:          "5-hour window at 92%",
		Urgency:       UrgencyCritical,
		ExpireTimeout: -1,
	})
	require.NoError(t, err)
	assert.Equal(t, uint32(42), id)

	assert.Equal(t, "org.freedesktop.Notifications.Notify", caller.method)
	require.Len(t, caller.args, 8)
	assert.Equal(t, "tokentray", caller.args[0])
	assert.Equal(t, uint32(0), caller.args[1])
	assert.Equal(t, "Running low", caller.args[3])
	assert.Equal(t, "5-hour window at 92%", caller.args[4])
	assert.Equal(t, []string{}, caller.args[5])
	assert.Equal(t, int32(-1), caller.args[7])
}

func TestNotifier_NotifyError(t *testing.T) {
	caller := &fakeCaller{call: &dbus.Call{Err: errors.New("no daemon")}}
	n := NewNotifierWithCaller(caller, nil)

	_, err := n.Notify(context.Background(), &Notification{Summary: "x"})
	assert.ErrorContains(t, err, "no daemon")
}

func TestNotifier_Close(t *testing.T) {
	caller := &fakeCaller{call: &dbus.Call{}}
	n := NewNotifierWithCaller(caller, nil)

	require.NoError(t, n.Close(context.Background(), 5))
	assert.Equal(t, "org.freedesktop.Notifications.CloseNotification", caller.method)
	assert.Equal(t, []any{uint32(5)}, caller.args)
}
