package repository_test

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/immxrtalbeast/liveclass/internal/domain"
	"github.com/immxrtalbeast/liveclass/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	teacher = domain.Identity{UserID: "teacher-1", Name: "Ms. Smith", Role: "teacher"}
	ann     = domain.Identity{UserID: "student-1", Name: "Ann", Role: "student"}
	bob     = domain.Identity{UserID: "student-2", Name: "Bob", Role: "student"}
	t0      = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
)

func newSQLiteRepository(t *testing.T) repository.SessionRepository {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(repository.Models()...))
	return repository.NewPostgresSessionRepository(db)
}

// forEachRepository runs fn against every SessionRepository implementation.
func forEachRepository(t *testing.T, fn func(t *testing.T, repo repository.SessionRepository)) {
	t.Run("memory", func(t *testing.T) {
		fn(t, repository.NewInMemorySessionRepository())
	})
	t.Run("gorm", func(t *testing.T) {
		fn(t, newSQLiteRepository(t))
	})
}

func startSession(t *testing.T, repo repository.SessionRepository, classID string, settings domain.Settings) *domain.Session {
	t.Helper()
	s := domain.NewSession(classID, teacher, "Algebra", settings, t0)
	require.NoError(t, repo.Create(context.Background(), s))
	return s
}

func join(t *testing.T, repo repository.SessionRepository, id uuid.UUID, who domain.Identity) *domain.Change {
	t.Helper()
	c, err := repo.Apply(context.Background(), id, who.UserID, domain.Join(who, domain.RoleAudience, t0.Add(time.Minute)))
	require.NoError(t, err)
	return c
}

func TestCreateAndGet(t *testing.T) {
	forEachRepository(t, func(t *testing.T, repo repository.SessionRepository) {
		ctx := context.Background()
		s := startSession(t, repo, "class-1", domain.Settings{AllowSelfUnmute: true, AutoMuteNewStudents: true})

		got, err := repo.GetByID(ctx, s.ID)
		require.NoError(t, err)
		assert.Equal(t, "class-1", got.ClassID)
		assert.Equal(t, s.ChannelID, got.ChannelID)
		assert.True(t, got.IsActive)
		assert.True(t, got.Settings.AllowSelfUnmute)
		require.Len(t, got.Participants, 1)
		assert.Equal(t, domain.RoleHost, got.Participants[0].Role)
		assert.True(t, got.Participants[0].HasSpeakingPermission)

		active, err := repo.GetActiveByClass(ctx, "class-1")
		require.NoError(t, err)
		assert.Equal(t, s.ID, active.ID)

		list, err := repo.ListActive(ctx)
		require.NoError(t, err)
		assert.Len(t, list, 1)

		_, err = repo.GetByID(ctx, uuid.New())
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})
}

func TestOneActiveSessionPerClass(t *testing.T) {
	forEachRepository(t, func(t *testing.T, repo repository.SessionRepository) {
		ctx := context.Background()
		first := startSession(t, repo, "class-1", domain.Settings{})

		second := domain.NewSession("class-1", teacher, "Again", domain.Settings{}, t0)
		err := repo.Create(ctx, second)
		assert.ErrorIs(t, err, domain.ErrActiveSessionExists)
		assert.ErrorIs(t, err, domain.ErrConflict)

		stored, err := repo.GetByID(ctx, first.ID)
		require.NoError(t, err)
		assert.True(t, stored.IsActive)
		assert.Len(t, stored.Participants, 1)

		_, err = repo.ApplySession(ctx, first.ID, domain.End(teacher.UserID, t0.Add(time.Hour)))
		require.NoError(t, err)

		third := domain.NewSession("class-1", teacher, "Next day", domain.Settings{}, t0.Add(24*time.Hour))
		require.NoError(t, repo.Create(ctx, third))
	})
}

func TestJoinDoesNotDuplicate(t *testing.T) {
	forEachRepository(t, func(t *testing.T, repo repository.SessionRepository) {
		ctx := context.Background()
		s := startSession(t, repo, "class-1", domain.Settings{AutoMuteNewStudents: true})

		c := join(t, repo, s.ID, ann)
		assert.True(t, c.Created)
		assert.True(t, c.Participant.IsMuted)

		_, err := repo.Apply(ctx, s.ID, ann.UserID, domain.Leave(t0.Add(10*time.Minute)))
		require.NoError(t, err)

		c = join(t, repo, s.ID, ann)
		assert.False(t, c.Created)

		got, err := repo.GetByID(ctx, s.ID)
		require.NoError(t, err)
		require.Len(t, got.Participants, 2)
		rejoined := got.Participant(ann.UserID)
		require.NotNil(t, rejoined)
		assert.Nil(t, rejoined.LeftAt)
		assert.Equal(t, 9*time.Minute, rejoined.TotalTimeSpent)
	})
}

func TestConcurrentJoinCreatesOneParticipant(t *testing.T) {
	forEachRepository(t, func(t *testing.T, repo repository.SessionRepository) {
		ctx := context.Background()
		s := startSession(t, repo, "class-1", domain.Settings{AutoMuteNewStudents: true})

		const joiners = 8
		var (
			wg      sync.WaitGroup
			created atomic.Int32
		)
		errs := make(chan error, joiners)
		for i := 0; i < joiners; i++ {
			i := i
			wg.Add(1)
			go func() {
				defer wg.Done()
				c, err := repo.Apply(ctx, s.ID, ann.UserID, domain.Join(ann, domain.RoleAudience, t0.Add(time.Duration(i+1)*time.Second)))
				if err == nil && c.Created {
					created.Add(1)
				}
				errs <- err
			}()
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			require.NoError(t, err)
		}

		assert.Equal(t, int32(1), created.Load())
		got, err := repo.GetByID(ctx, s.ID)
		require.NoError(t, err)
		require.Len(t, got.Participants, 2)
		assert.NotNil(t, got.Participant(ann.UserID))
	})
}

func TestPermissionRequestLifecycle(t *testing.T) {
	forEachRepository(t, func(t *testing.T, repo repository.SessionRepository) {
		ctx := context.Background()
		s := startSession(t, repo, "class-1", domain.Settings{AutoMuteNewStudents: true})
		join(t, repo, s.ID, ann)

		_, err := repo.Apply(ctx, s.ID, ann.UserID, domain.RequestSpeaking(t0.Add(2*time.Minute)))
		require.NoError(t, err)

		_, err = repo.Apply(ctx, s.ID, ann.UserID, domain.RequestSpeaking(t0.Add(3*time.Minute)))
		assert.ErrorIs(t, err, domain.ErrRequestPending)

		got, err := repo.GetByID(ctx, s.ID)
		require.NoError(t, err)
		require.Len(t, got.PendingRequests(), 1)
		assert.Equal(t, ann.UserID, got.PendingRequests()[0].StudentID)

		_, err = repo.Apply(ctx, s.ID, ann.UserID, domain.GrantSpeaking(teacher.UserID, t0.Add(4*time.Minute)))
		require.NoError(t, err)

		got, err = repo.GetByID(ctx, s.ID)
		require.NoError(t, err)
		assert.Empty(t, got.PendingRequests())
		require.Len(t, got.Requests, 1)
		assert.Equal(t, domain.RequestApproved, got.Requests[0].Status)
		assert.Equal(t, teacher.UserID, got.Requests[0].HandledBy)
		require.NotNil(t, got.Requests[0].HandledAt)

		p := got.Participant(ann.UserID)
		assert.False(t, p.IsMuted)
		assert.True(t, p.HasSpeakingPermission)
		assert.False(t, p.PermissionRequested)

		var granted *domain.ChatMessage
		for _, m := range got.Chat {
			if m.Type == domain.MessagePermissionGranted {
				granted = m
			}
		}
		require.NotNil(t, granted)
		require.NotNil(t, granted.Metadata)
		assert.Equal(t, ann.UserID, granted.Metadata.TargetID)
		assert.Equal(t, "grant", granted.Metadata.Action)
	})
}

func TestSessionTransitions(t *testing.T) {
	forEachRepository(t, func(t *testing.T, repo repository.SessionRepository) {
		ctx := context.Background()
		s := startSession(t, repo, "class-1", domain.Settings{AllowSelfUnmute: true})
		join(t, repo, s.ID, ann)
		join(t, repo, s.ID, bob)
		_, err := repo.Apply(ctx, s.ID, ann.UserID, domain.GrantSpeaking(teacher.UserID, t0))
		require.NoError(t, err)

		updated, err := repo.ApplySession(ctx, s.ID, domain.MuteAll(teacher.UserID, t0))
		require.NoError(t, err)
		for _, p := range updated.Participants {
			assert.Equal(t, !p.IsHost(), p.IsMuted, p.UserID)
		}

		updated, err = repo.ApplySession(ctx, s.ID, domain.UnmuteAll(teacher.UserID, t0))
		require.NoError(t, err)
		assert.False(t, updated.Participant(ann.UserID).IsMuted)
		assert.True(t, updated.Participant(bob.UserID).IsMuted)

		_, err = repo.ApplySession(ctx, s.ID, domain.MuteAll(bob.UserID, t0))
		assert.ErrorIs(t, err, domain.ErrNotTeacher)

		updated, err = repo.ApplySession(ctx, s.ID, domain.UpdateSettings(teacher.UserID, domain.Settings{AllowSelfUnmute: false}, t0))
		require.NoError(t, err)
		assert.False(t, updated.Settings.AllowSelfUnmute)

		ended, err := repo.ApplySession(ctx, s.ID, domain.End(teacher.UserID, t0.Add(time.Hour)))
		require.NoError(t, err)
		assert.False(t, ended.IsActive)
		require.NotNil(t, ended.EndTime)

		stored, err := repo.GetByID(ctx, s.ID)
		require.NoError(t, err)
		assert.False(t, stored.IsActive)
		for _, p := range stored.Participants {
			assert.False(t, p.IsAttending(), p.UserID)
		}

		_, err = repo.GetActiveByClass(ctx, "class-1")
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)

		_, err = repo.Apply(ctx, s.ID, ann.UserID, domain.PostChat("hello", t0.Add(2*time.Hour)))
		assert.ErrorIs(t, err, domain.ErrSessionEnded)
	})
}

func TestApplyUnknownParticipant(t *testing.T) {
	forEachRepository(t, func(t *testing.T, repo repository.SessionRepository) {
		ctx := context.Background()
		s := startSession(t, repo, "class-1", domain.Settings{})

		_, err := repo.Apply(ctx, s.ID, "ghost", domain.SelfMute())
		assert.ErrorIs(t, err, domain.ErrParticipantNotFound)

		_, err = repo.Apply(ctx, uuid.New(), ann.UserID, domain.SelfMute())
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})
}
