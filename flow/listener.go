package flow

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"

	"github.com/gorilla/mux"

	"github.com/obscopilot/twitchauth"
)

// callbackResult is the single value a listener delivers to the coordinator: an
// authorization code plus the echoed state, or the error Twitch reported in the
// redirect. The state is opaque here; the coordinator performs the authoritative
// validation against the state token registry.
type callbackResult struct {
	code  string
	state string
	err   error
}

// CallbackListener owns the role's local callback port for the lifetime of
// exactly one login session. The first redirect that carries a code or an error
// resolves the listener; any requests after that (duplicate browser loads,
// favicon fetches) are still answered with a static page but never re-trigger
// completion.
type CallbackListener struct {
	port   int
	logger *slog.Logger

	server   *http.Server
	ln       net.Listener
	addr     string
	resolved sync.Once
	done     chan callbackResult
}

func NewCallbackListener(port int, logger *slog.Logger) *CallbackListener {
	if logger == nil {
		logger = slog.Default()
	}
	l := &CallbackListener{
		port:   port,
		logger: logger,
		done:   make(chan callbackResult, 1),
	}

	r := mux.NewRouter()
	r.Path(twitchauth.CallbackPath).Methods(http.MethodGet).HandlerFunc(l.handleCallback)
	r.PathPrefix("/").HandlerFunc(l.handleOther)
	l.server = &http.Server{Handler: r}
	return l
}

// Start binds the callback port and begins serving in a background goroutine. A
// bind failure after the forced-rebind attempt surfaces as a port-conflict error.
func (l *CallbackListener) Start(ctx context.Context) error {
	ln, err := listenCallbackPort(ctx, l.port)
	if err != nil {
		return err
	}
	l.ln = ln
	l.addr = ln.Addr().String()
	l.logger.Info("callback listener started", "addr", l.addr)

	go func() {
		if err := l.server.Serve(ln); err != nil && err != http.ErrServerClosed {
			l.logger.Error("callback listener terminated unexpectedly", "error", err)
			l.resolve(callbackResult{err: twitchauth.WrapError(err, twitchauth.KindNetworkError, "callback listener failed")})
		}
	}()
	return nil
}

// Addr returns the address the listener is actually bound to. It differs from the
// configured port only in tests, which bind port 0.
func (l *CallbackListener) Addr() string {
	return l.addr
}

// Done returns the channel on which the single completion value is delivered.
func (l *CallbackListener) Done() <-chan callbackResult {
	return l.done
}

// Stop shuts the listener down and releases the port. It is safe to call on
// every exit path, including before the first redirect has arrived.
func (l *CallbackListener) Stop(ctx context.Context) {
	if err := l.server.Shutdown(ctx); err != nil {
		l.logger.Warn("error shutting down callback listener", "error", err)
	}
	// Shutdown only closes listeners that the Serve goroutine has already
	// registered with the server; closing the retained listener directly
	// releases the port even when Stop runs before Serve gets scheduled
	if l.ln != nil {
		if err := l.ln.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			l.logger.Warn("error closing callback port", "error", err)
		}
	}
}

func (l *CallbackListener) handleCallback(res http.ResponseWriter, req *http.Request) {
	q := req.URL.Query()

	if errCode := q.Get("error"); errCode != "" {
		description := q.Get("error_description")
		l.logger.Error("twitch reported an authorization error", "error", errCode, "description", description)
		l.resolve(callbackResult{err: providerError(errCode, description)})
		servePage(res, failurePage)
		return
	}

	if code := q.Get("code"); code != "" {
		l.logger.Info("received authorization code", "state_present", q.Get("state") != "")
		l.resolve(callbackResult{code: code, state: q.Get("state")})
		servePage(res, successPage)
		return
	}

	// A callback request with neither code nor error is browser noise; keep
	// waiting for the real redirect
	servePage(res, waitingPage)
}

func (l *CallbackListener) handleOther(res http.ResponseWriter, req *http.Request) {
	servePage(res, waitingPage)
}

// resolve delivers the completion value; the first writer wins and later calls
// are no-ops.
func (l *CallbackListener) resolve(result callbackResult) {
	l.resolved.Do(func() {
		l.done <- result
	})
}

// providerError maps the error carried in a redirect to a structured error, with
// extra guidance for the redirect_mismatch case since its fix (an exactly-matching
// registered redirect URL) is not obvious from Twitch's message.
func providerError(code string, description string) error {
	message := code
	if description != "" {
		message = code + ": " + description
	}
	if code == "redirect_mismatch" {
		message += " (the redirect URI must exactly match the one registered in the Twitch developer console)"
	}
	return twitchauth.NewError(twitchauth.KindProviderError, "twitch authorization failed: %s", message)
}
