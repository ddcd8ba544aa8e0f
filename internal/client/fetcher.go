package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	httpapi "github.com/immxrtalbeast/liveclass/internal/api/http"
	"github.com/immxrtalbeast/liveclass/internal/api/http/converter"
	"github.com/immxrtalbeast/liveclass/internal/domain"
)

// ErrSessionGone is returned when the coordinator does not know the session.
var ErrSessionGone = errors.New("session not found")

// Fetcher loads the authoritative view of a session.
type Fetcher interface {
	FetchSession(ctx context.Context, sessionID uuid.UUID) (*converter.SessionResponse, error)
}

type HTTPFetcher struct {
	baseURL string
	who     domain.Identity
	client  *http.Client
}

func NewHTTPFetcher(baseURL string, who domain.Identity, client *http.Client) *HTTPFetcher {
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	return &HTTPFetcher{
		baseURL: strings.TrimRight(baseURL, "/"),
		who:     who,
		client:  client,
	}
}

func (f *HTTPFetcher) FetchSession(ctx context.Context, sessionID uuid.UUID) (*converter.SessionResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.baseURL+"/api/sessions/"+sessionID.String(), nil)
	if err != nil {
		return nil, err
	}
	setIdentity(req.Header, f.who)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrSessionGone
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("fetch session: unexpected status %d", resp.StatusCode)
	}

	var body struct {
		Session converter.SessionResponse `json:"session"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("fetch session: decode: %w", err)
	}
	return &body.Session, nil
}

func setIdentity(h http.Header, who domain.Identity) {
	h.Set(httpapi.HeaderUserID, who.UserID)
	h.Set(httpapi.HeaderUserName, who.Name)
	h.Set(httpapi.HeaderUserRole, who.Role)
}
