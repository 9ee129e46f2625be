package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
)

// CallbackFlow is the part of the auth service the callback handler drives.
// Implemented by [auth.Service].
type CallbackFlow interface {
	HandleCallback(ctx context.Context, code string) bool
	Err() string
	Authenticated() bool
}

// CallbackResult contains the outcome of one OAuth redirect callback.
type CallbackResult struct {
	err error
}

func (r CallbackResult) Error() error {
	return r.err
}

// CallbackHandler handles the OAuth redirect for the PKCE authorization-code
// flow. Implements the Handler interface for registration with a Router.
//
// The flow carries no state parameter; integrity comes from the PKCE
// verifier the auth service stored when login began.
type CallbackHandler struct {
	flow        CallbackFlow
	resultChan  chan CallbackResult
	once        sync.Once
	callbackHit bool
	mu          sync.Mutex
}

// NewCallbackHandler creates a callback handler driving the given flow.
func NewCallbackHandler(flow CallbackFlow) *CallbackHandler {
	return &CallbackHandler{
		flow:       flow,
		resultChan: make(chan CallbackResult, 1),
	}
}

// Routes returns the HTTP routes this handler serves.
func (h *CallbackHandler) Routes() []string {
	return []string{"/callback"}
}

// ServeHTTP handles the OAuth callback request.
//
// Extracts the authorization code, runs the code-for-token exchange through
// the auth service, and sends the result through the result channel.
func (h *CallbackHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Only handle callback once
	h.mu.Lock()
	if h.callbackHit {
		h.mu.Unlock()
		http.Error(w, "Callback already processed", http.StatusBadRequest)
		return
	}
	h.callbackHit = true
	h.mu.Unlock()

	code := r.URL.Query().Get("code")
	if code == "" {
		errParam := r.URL.Query().Get("error")
		errDesc := r.URL.Query().Get("error_description")
		err := fmt.Errorf("authorization failed: %s - %s", errParam, errDesc)
		h.Send(CallbackResult{err: err})
		http.Error(w, "Authorization failed", http.StatusBadRequest)
		return
	}

	if ok := h.flow.HandleCallback(r.Context(), code); !ok {
		msg := h.flow.Err()
		if msg == "" {
			msg = "token exchange failed"
		}
		h.Send(CallbackResult{err: fmt.Errorf("token exchange failed: %s", msg)})
		http.Error(w, "Token exchange failed", http.StatusInternalServerError)
		return
	}

	h.Send(CallbackResult{})

	w.Header().Set("Content-Type", "text/html")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, `
<!DOCTYPE html>
<html>
<head>
    <title>Authorization Successful</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
               display: flex; align-items: center; justify-content: center; height: 100vh;
               margin: 0; background: #f5f5f5; }
        .container { text-align: center; background: white; padding: 2rem;
                     border-radius: 8px; box-shadow: 0 2px 4px rgba(0,0,0,0.1); }
        h1 { color: #1DB954; margin: 0 0 1rem 0; }
        p { color: #666; margin: 0; }
    </style>
</head>
<body>
    <div class="container">
        <h1>✓ Authorization Successful</h1>
        <p>You can close this window and return to the terminal.</p>
    </div>
</body>
</html>
`)
}

// Send sends the callback result through the channel (only once).
func (h *CallbackHandler) Send(result CallbackResult) {
	h.once.Do(func() {
		h.resultChan <- result
		close(h.resultChan)
	})
}

// Result returns the result channel for receiving flow completion.
//
// Channel will receive exactly one result and then be closed.
func (h *CallbackHandler) Result() <-chan CallbackResult {
	return h.resultChan
}

// StatusHandler serves the root view of the callback listener with the
// current authentication state.
type StatusHandler struct {
	flow CallbackFlow
}

// NewStatusHandler creates the root status handler.
func NewStatusHandler(flow CallbackFlow) *StatusHandler {
	return &StatusHandler{flow: flow}
}

// Routes returns the HTTP routes this handler serves.
func (h *StatusHandler) Routes() []string {
	return []string{"/"}
}

func (h *StatusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	state := "Waiting for authorization..."
	if h.flow.Authenticated() {
		state = "Authenticated. You can close this window."
	}

	w.Header().Set("Content-Type", "text/html")
	fmt.Fprintf(w, "<!DOCTYPE html><html><body><h1>sceneset</h1><p>%s</p></body></html>", state)
}
