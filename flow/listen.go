package flow

import (
	"context"
	"fmt"
	"net"

	"github.com/obscopilot/twitchauth"
)

// listenCallbackPort binds the role's fixed local port. If the plain bind fails --
// typically because a previous process crashed while its listener socket was still
// lingering -- a second attempt is made with SO_REUSEADDR set, matching the
// forced-rebind behavior users rely on after an unclean shutdown. If that also
// fails the port is genuinely held by another process and the login can't proceed.
func listenCallbackPort(ctx context.Context, port int) (net.Listener, error) {
	addr := fmt.Sprintf("localhost:%d", port)

	ln, err := net.Listen("tcp", addr)
	if err == nil {
		return ln, nil
	}

	lc := net.ListenConfig{Control: setReuseAddr}
	ln, rebindErr := lc.Listen(ctx, "tcp", addr)
	if rebindErr != nil {
		return nil, twitchauth.WrapError(rebindErr, twitchauth.KindPortConflict,
			"port %d is already in use and could not be reclaimed; restart the application or wait for the previous login to finish", port)
	}
	return ln, nil
}
