package client_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	httpapi "github.com/immxrtalbeast/liveclass/internal/api/http"
	"github.com/immxrtalbeast/liveclass/internal/api/http/converter"
	"github.com/immxrtalbeast/liveclass/internal/client"
	"github.com/immxrtalbeast/liveclass/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPFetcher(t *testing.T) {
	known := uuid.New()
	who := domain.Identity{UserID: self, Name: "Ann", Role: "student"}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get(httpapi.HeaderUserID) != self {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		switch r.URL.Path {
		case "/api/sessions/" + known.String():
			_ = json.NewEncoder(w).Encode(map[string]any{
				"session": converter.SessionResponse{ID: known, IsActive: true, Participants: []converter.ParticipantResponse{audience(self, true, false, false)}},
			})
		case "/api/sessions/" + uuid.Nil.String():
			w.WriteHeader(http.StatusInternalServerError)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	fetcher := client.NewHTTPFetcher(srv.URL+"/", who, nil)
	ctx := context.Background()

	v, err := fetcher.FetchSession(ctx, known)
	require.NoError(t, err)
	assert.Equal(t, known, v.ID)
	assert.True(t, v.IsActive)
	require.Len(t, v.Participants, 1)
	assert.True(t, v.Participants[0].IsMuted)

	_, err = fetcher.FetchSession(ctx, uuid.New())
	assert.ErrorIs(t, err, client.ErrSessionGone)

	_, err = fetcher.FetchSession(ctx, uuid.Nil)
	require.Error(t, err)
	assert.NotErrorIs(t, err, client.ErrSessionGone)
}
