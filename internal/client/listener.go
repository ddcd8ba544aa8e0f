package client

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/immxrtalbeast/liveclass/internal/domain"
)

// Listener applies realtime events to State. It does not reconnect; when
// the socket drops the poller alone keeps the state correct.
type Listener struct {
	url    string
	header http.Header
	state  *State
	dialer *websocket.Dialer
	log    *slog.Logger
}

func NewListener(baseURL string, sessionID uuid.UUID, who domain.Identity, state *State, log *slog.Logger) *Listener {
	if log == nil {
		log = slog.Default()
	}
	url := strings.TrimRight(baseURL, "/") + "/api/sessions/" + sessionID.String() + "/ws"
	switch {
	case strings.HasPrefix(url, "https://"):
		url = "wss://" + strings.TrimPrefix(url, "https://")
	case strings.HasPrefix(url, "http://"):
		url = "ws://" + strings.TrimPrefix(url, "http://")
	}

	header := http.Header{}
	setIdentity(header, who)

	return &Listener{
		url:    url,
		header: header,
		state:  state,
		dialer: websocket.DefaultDialer,
		log:    log.With(slog.String("component", "listener"), slog.String("session_id", sessionID.String())),
	}
}

// Run reads events until the connection fails or ctx is done.
func (l *Listener) Run(ctx context.Context) error {
	conn, _, err := l.dialer.DialContext(ctx, l.url, l.header)
	if err != nil {
		return err
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() {
		_ = conn.Close()
	})
	defer stop()

	for {
		var event domain.Event
		if err := conn.ReadJSON(&event); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}

		if l.state.ApplyEvent(event) {
			l.log.Debug("event applied", slog.String("type", string(event.Type)))
		}
		if event.Type == domain.EventError {
			l.log.Warn("command rejected", slog.Any("payload", event.Payload))
		}
		if event.Type == domain.EventSessionEnded {
			return nil
		}
	}
}
