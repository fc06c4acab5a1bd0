package core

import "context"

// Upstream is the boundary to the external managed inference service.
// Implementations open exactly one streaming session per call.
type Upstream interface {
	// StreamChat opens a streaming session for the given request.
	// The request has already been validated and defaulted. A returned
	// error means no session was opened.
	StreamChat(ctx context.Context, req *ChatRequest) (TokenStream, error)

	// Name identifies the backend in logs and metrics.
	Name() string
}

// TokenStream is a cancellable handle over a lazy, finite,
// non-restartable sequence of generated text chunks. The caller drives
// iteration with Recv and may call Close at any time to release the
// upstream session.
type TokenStream interface {
	// Recv blocks until the next text chunk is available. It returns
	// io.EOF when the upstream signals clean completion, or another
	// error (typically a *RelayError) on failure. After any error,
	// Recv must not be called again.
	Recv() (string, error)

	// Close releases the upstream session. Safe to call more than once
	// and concurrently with a blocked Recv.
	Close() error
}
