package notifications

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/godbus/dbus/v5"
)

const (
	notifyDest   = "org.freedesktop.Notifications"
	notifyPath   = dbus.ObjectPath("/org/freedesktop/Notifications")
	notifyMethod = "org.freedesktop.Notifications.Notify"
)

// busCaller performs one Notify method call. It is swapped in tests.
type busCaller func(ctx context.Context, args ...any) error

type desktopSink struct {
	appName  string
	expireMS int32
	timeout  time.Duration
	call     busCaller
}

// NewDesktop returns a sink using the freedesktop notification service on the
// session bus. expireMS of -1 lets the server choose the timeout and is clamped
// to the int32 range the bus expects. requestTimeout bounds each bus call in
// seconds.
func NewDesktop(appName string, expireMS, requestTimeout int) Sink {
	if expireMS > math.MaxInt32 {
		expireMS = math.MaxInt32
	}
	timeout := time.Duration(requestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &desktopSink{
		appName:  strings.TrimSpace(appName),
		expireMS: int32(expireMS),
		timeout:  timeout,
		call:     sessionBusCall,
	}
}

func (d *desktopSink) Notify(ctx context.Context, msg Message) error {
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}
	err := d.call(ctx,
		d.appName,
		uint32(0),
		msg.Icon,
		msg.Title,
		msg.Body,
		[]string{},
		map[string]dbus.Variant{},
		d.expireMS,
	)
	if err != nil {
		return fmt.Errorf("desktop notification: %w", err)
	}
	return nil
}

// sessionBusCall opens a private session bus connection per message. The
// daemon can outlive the desktop session's bus, so no connection is cached.
func sessionBusCall(ctx context.Context, args ...any) error {
	conn, err := dbus.ConnectSessionBus(dbus.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("connect session bus: %w", err)
	}
	defer conn.Close()

	call := conn.Object(notifyDest, notifyPath).CallWithContext(ctx, notifyMethod, 0, args...)
	return call.Err
}

// DesktopAvailable reports whether the session bus is reachable and a
// notification server currently owns the freedesktop name.
func DesktopAvailable(ctx context.Context) error {
	conn, err := dbus.ConnectSessionBus(dbus.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("connect session bus: %w", err)
	}
	defer conn.Close()

	var owned bool
	if err := conn.BusObject().CallWithContext(ctx, "org.freedesktop.DBus.NameHasOwner", 0, notifyDest).Store(&owned); err != nil {
		return fmt.Errorf("query %s owner: %w", notifyDest, err)
	}
	if !owned {
		return fmt.Errorf("no notification server owns %s", notifyDest)
	}
	return nil
}
