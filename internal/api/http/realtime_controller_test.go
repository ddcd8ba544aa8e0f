package http_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	httpapi "github.com/immxrtalbeast/liveclass/internal/api/http"
	"github.com/immxrtalbeast/liveclass/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dial(t *testing.T, srv *httptest.Server, sessionID uuid.UUID, who domain.Identity) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/sessions/" + sessionID.String() + "/ws"
	header := http.Header{}
	header.Set(httpapi.HeaderUserID, who.UserID)
	header.Set(httpapi.HeaderUserName, who.Name)
	header.Set(httpapi.HeaderUserRole, who.Role)
	conn, resp, err := websocket.DefaultDialer.Dial(url, header)
	if conn != nil {
		t.Cleanup(func() { _ = conn.Close() })
	}
	return conn, resp, err
}

// readUntil skips events until one of type typ arrives.
func readUntil(t *testing.T, conn *websocket.Conn, typ domain.EventType) domain.Event {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		var event domain.Event
		require.NoError(t, conn.ReadJSON(&event))
		if event.Type == typ {
			return event
		}
	}
}

func TestRealtimeCommandsAndEvents(t *testing.T) {
	s := newTestServer(t)
	srv := httptest.NewServer(s.router)
	defer srv.Close()

	ctx := context.Background()
	session, err := s.svc.StartSession(ctx, "class-1", teacher, "Algebra", nil)
	require.NoError(t, err)
	_, _, err = s.svc.JoinSession(ctx, session.ID, ann, domain.RoleAudience)
	require.NoError(t, err)

	student, _, err := dial(t, srv, session.ID, ann)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return s.hub.GroupSize(session.ID) == 1 }, 2*time.Second, 10*time.Millisecond)
	host, _, err := dial(t, srv, session.ID, teacher)
	require.NoError(t, err)

	connected := readUntil(t, student, domain.EventUserJoined)
	assert.Equal(t, teacher.UserID, connected.ActorID)
	assert.Equal(t, "connected", connected.Payload["reason"])

	require.NoError(t, host.WriteJSON(domain.Command{Type: domain.CommandMuteStudent, TargetID: ann.UserID}))
	muted := readUntil(t, student, domain.EventMuteStudent)
	assert.Equal(t, ann.UserID, muted.TargetID)
	assert.Equal(t, teacher.UserID, muted.ActorID)
	assert.Equal(t, session.ID.String(), muted.SessionID)

	require.NoError(t, student.WriteJSON(domain.Command{Type: domain.CommandMuteAll}))
	failure := readUntil(t, student, domain.EventError)
	assert.Equal(t, "forbidden", failure.Payload["kind"])
	assert.Equal(t, "only the teacher can perform this action", failure.Payload["message"])

	require.NoError(t, student.WriteJSON(domain.Command{Type: domain.CommandChat, Message: "hi all"}))
	chat := readUntil(t, host, domain.EventChatMessage)
	for chat.ActorID != ann.UserID {
		chat = readUntil(t, host, domain.EventChatMessage)
	}
	msg, ok := chat.Payload["message"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "hi all", msg["message"])

	require.NoError(t, student.Close())
	left := readUntil(t, host, domain.EventUserLeft)
	assert.Equal(t, ann.UserID, left.ActorID)
	assert.Equal(t, "disconnected", left.Payload["reason"])

	view, err := s.svc.GetSessionView(ctx, session.ID)
	require.NoError(t, err)
	assert.True(t, view.Participant(ann.UserID).IsAttending(), "a dropped socket does not leave the session")
}

func TestRealtimeRejectsStrangers(t *testing.T) {
	s := newTestServer(t)
	srv := httptest.NewServer(s.router)
	defer srv.Close()

	session, err := s.svc.StartSession(context.Background(), "class-1", teacher, "Algebra", nil)
	require.NoError(t, err)

	_, resp, err := dial(t, srv, session.ID, bob)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	_, resp, err = dial(t, srv, uuid.New(), teacher)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
