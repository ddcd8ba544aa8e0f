package client_test

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/immxrtalbeast/liveclass/internal/api/http/converter"
	"github.com/immxrtalbeast/liveclass/internal/client"
	"github.com/immxrtalbeast/liveclass/internal/client/mocks"
	"github.com/immxrtalbeast/liveclass/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

const (
	self  = "student-1"
	other = "student-2"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func view(active bool, participants ...converter.ParticipantResponse) *converter.SessionResponse {
	return &converter.SessionResponse{
		ID:           uuid.New(),
		IsActive:     active,
		Participants: participants,
	}
}

func audience(userID string, muted, permitted, hand bool) converter.ParticipantResponse {
	return converter.ParticipantResponse{
		UserID:                userID,
		Role:                  domain.RoleAudience,
		IsMuted:               muted,
		HasSpeakingPermission: permitted,
		IsHandRaised:          hand,
	}
}

func TestReconcileAdoptsServerMuteState(t *testing.T) {
	ctrl := gomock.NewController(t)
	audio := mocks.NewMockAudioPublisher(ctrl)
	state := client.NewState(self, audio, discardLogger())

	audio.EXPECT().SetAudioEnabled(true).Return(nil)
	diff := state.Reconcile(view(true, audience(self, false, true, false), audience(other, true, false, true)))
	assert.Equal(t, client.Diff{Muted: true, Permission: true}, diff)

	diff = state.Reconcile(view(true, audience(self, false, true, false)))
	assert.Equal(t, client.Diff{}, diff)

	audio.EXPECT().SetAudioEnabled(false).Return(nil)
	diff = state.Reconcile(view(true, audience(self, true, false, true)))
	assert.Equal(t, client.Diff{Muted: true, Permission: true, Hand: true}, diff)

	snap := state.Snapshot()
	assert.True(t, snap.Muted)
	assert.False(t, snap.HasSpeakingPermission)
	assert.True(t, snap.HandRaised)
	assert.Len(t, snap.Participants, 1)
}

func TestReconcileReplacesParticipantsAndChat(t *testing.T) {
	state := client.NewState(self, nil, discardLogger())

	v := view(true, audience(self, true, false, false), audience(other, true, false, false))
	v.Chat = []converter.ChatMessageResponse{{Message: "hello"}}
	state.Reconcile(v)

	snap := state.Snapshot()
	require.Len(t, snap.Participants, 2)
	require.Len(t, snap.Chat, 1)

	state.Reconcile(view(true, audience(self, true, false, false)))
	snap = state.Snapshot()
	assert.Len(t, snap.Participants, 1)
	assert.Empty(t, snap.Chat)
}

func TestReconcileRetriesFailedAudioChange(t *testing.T) {
	ctrl := gomock.NewController(t)
	audio := mocks.NewMockAudioPublisher(ctrl)
	state := client.NewState(self, audio, discardLogger())

	gomock.InOrder(
		audio.EXPECT().SetAudioEnabled(true).Return(errors.New("track busy")),
		audio.EXPECT().SetAudioEnabled(true).Return(nil),
	)

	diff := state.Reconcile(view(true, audience(self, false, true, false)))
	assert.False(t, diff.Muted)
	assert.True(t, state.Snapshot().Muted)

	diff = state.Reconcile(view(true, audience(self, false, true, false)))
	assert.True(t, diff.Muted)
	assert.False(t, state.Snapshot().Muted)
}

func TestApplyEventIsConditional(t *testing.T) {
	ctrl := gomock.NewController(t)
	audio := mocks.NewMockAudioPublisher(ctrl)
	state := client.NewState(self, audio, discardLogger())
	state.Reconcile(view(true, audience(self, true, false, false)))

	assert.False(t, state.ApplyEvent(domain.Event{Type: domain.EventUnmuteStudent, TargetID: other}))
	assert.False(t, state.ApplyEvent(domain.Event{Type: domain.EventUnmuteAll}), "unmute-all needs permission")

	audio.EXPECT().SetAudioEnabled(true).Return(nil)
	assert.True(t, state.ApplyEvent(domain.Event{Type: domain.EventUnmuteStudent, TargetID: self}))

	audio.EXPECT().SetAudioEnabled(false).Return(nil)
	assert.True(t, state.ApplyEvent(domain.Event{Type: domain.EventMuteAll}))

	assert.True(t, state.ApplyEvent(domain.Event{
		Type:     domain.EventParticipantUpdated,
		TargetID: self,
		Payload: map[string]any{"participant": map[string]any{
			"is_muted":                true,
			"has_speaking_permission": true,
			"is_hand_raised":          false,
		}},
	}))
	assert.True(t, state.Snapshot().HasSpeakingPermission)

	audio.EXPECT().SetAudioEnabled(true).Return(nil)
	assert.True(t, state.ApplyEvent(domain.Event{Type: domain.EventUnmuteAll}))

	assert.True(t, state.ApplyEvent(domain.Event{Type: domain.EventSessionEnded}))
	assert.False(t, state.Active())
}

func TestApplyEventHostIgnoresBulkMute(t *testing.T) {
	ctrl := gomock.NewController(t)
	audio := mocks.NewMockAudioPublisher(ctrl)
	state := client.NewState("teacher-1", audio, discardLogger())

	audio.EXPECT().SetAudioEnabled(true).Return(nil)
	state.Reconcile(view(true, converter.ParticipantResponse{
		UserID:                "teacher-1",
		Role:                  domain.RoleHost,
		HasSpeakingPermission: true,
	}))

	assert.False(t, state.ApplyEvent(domain.Event{Type: domain.EventMuteAll}))
	assert.False(t, state.Snapshot().Muted)
}
