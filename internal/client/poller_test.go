package client_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/immxrtalbeast/liveclass/internal/api/http/converter"
	"github.com/immxrtalbeast/liveclass/internal/client"
	"github.com/immxrtalbeast/liveclass/internal/client/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestPollOnceStopsOnEndedSession(t *testing.T) {
	ctrl := gomock.NewController(t)
	fetcher := mocks.NewMockFetcher(ctrl)
	sessionID := uuid.New()
	state := client.NewState(self, nil, discardLogger())
	poller := client.NewPoller(sessionID, fetcher, state, time.Second, 3, discardLogger())

	fetcher.EXPECT().FetchSession(gomock.Any(), sessionID).Return(view(true, audience(self, true, false, false)), nil)
	stop, err := poller.PollOnce(context.Background())
	require.NoError(t, err)
	assert.False(t, stop)
	assert.True(t, state.Active())

	fetcher.EXPECT().FetchSession(gomock.Any(), sessionID).Return(view(false), nil)
	stop, err = poller.PollOnce(context.Background())
	require.NoError(t, err)
	assert.True(t, stop)
	assert.False(t, state.Active())
}

func TestPollOnceCountsOnlyConsecutiveNotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	fetcher := mocks.NewMockFetcher(ctrl)
	sessionID := uuid.New()
	poller := client.NewPoller(sessionID, fetcher, client.NewState(self, nil, discardLogger()), time.Second, 3, discardLogger())

	gone := fetcher.EXPECT().FetchSession(gomock.Any(), sessionID).Return(nil, client.ErrSessionGone)
	gomock.InOrder(
		gone.Times(2),
		fetcher.EXPECT().FetchSession(gomock.Any(), sessionID).Return(nil, errors.New("connection refused")),
		fetcher.EXPECT().FetchSession(gomock.Any(), sessionID).Return(nil, client.ErrSessionGone).Times(3),
	)

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		stop, err := poller.PollOnce(ctx)
		require.NoError(t, err)
		require.False(t, stop, "poll %d", i)
	}

	stop, err := poller.PollOnce(ctx)
	assert.True(t, stop)
	assert.ErrorIs(t, err, client.ErrSessionGone)
}

func TestPollerRunStopsAfterNotFoundStreak(t *testing.T) {
	ctrl := gomock.NewController(t)
	fetcher := mocks.NewMockFetcher(ctrl)
	sessionID := uuid.New()
	poller := client.NewPoller(sessionID, fetcher, client.NewState(self, nil, discardLogger()), 5*time.Millisecond, 3, discardLogger())

	fetcher.EXPECT().FetchSession(gomock.Any(), sessionID).Return(nil, client.ErrSessionGone).Times(3)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	assert.ErrorIs(t, poller.Run(ctx), client.ErrSessionGone)
}

func TestPollerSkipsTicksWhilePollInFlight(t *testing.T) {
	ctrl := gomock.NewController(t)
	fetcher := mocks.NewMockFetcher(ctrl)
	sessionID := uuid.New()
	poller := client.NewPoller(sessionID, fetcher, client.NewState(self, nil, discardLogger()), 5*time.Millisecond, 3, discardLogger())

	var calls atomic.Int32
	release := make(chan struct{})
	fetcher.EXPECT().FetchSession(gomock.Any(), sessionID).DoAndReturn(
		func(ctx context.Context, _ uuid.UUID) (*converter.SessionResponse, error) {
			calls.Add(1)
			<-release
			return view(false), nil
		},
	).AnyTimes()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	result := make(chan error, 1)
	go func() { result <- poller.Run(ctx) }()

	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())

	close(release)
	select {
	case err := <-result:
		assert.NoError(t, err)
	case <-ctx.Done():
		t.Fatal("poller did not stop after the session ended")
	}
	assert.Equal(t, int32(1), calls.Load())
}

func TestPollerRunConvergesMissedMute(t *testing.T) {
	ctrl := gomock.NewController(t)
	fetcher := mocks.NewMockFetcher(ctrl)
	audio := mocks.NewMockAudioPublisher(ctrl)
	sessionID := uuid.New()
	state := client.NewState(self, audio, discardLogger())
	poller := client.NewPoller(sessionID, fetcher, state, 5*time.Millisecond, 3, discardLogger())

	gomock.InOrder(
		fetcher.EXPECT().FetchSession(gomock.Any(), sessionID).Return(view(true, audience(self, false, true, false)), nil),
		audio.EXPECT().SetAudioEnabled(true).Return(nil),
		fetcher.EXPECT().FetchSession(gomock.Any(), sessionID).Return(view(true, audience(self, true, true, false)), nil),
		audio.EXPECT().SetAudioEnabled(false).Return(nil),
		fetcher.EXPECT().FetchSession(gomock.Any(), sessionID).Return(view(false), nil),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, poller.Run(ctx))
	assert.True(t, state.Snapshot().Muted)
}
