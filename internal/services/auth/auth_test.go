package auth

import (
	"context"
	"sync"
	"testing"
	"time"

	"cineflix/proj/internal/lib/logger"
	"cineflix/proj/internal/mails"
	"cineflix/proj/internal/repositories"
	"cineflix/proj/internal/storage"
	"cineflix/proj/internal/storage/memory"
	"cineflix/proj/internal/storage/storagetest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sentMail struct {
	to   string
	tmpl string
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
}

func (m *fakeMailer) Send(recipient, tmpl string, _ any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMail{recipient, tmpl})
	return nil
}

type inlineExecutor struct{}

func (inlineExecutor) Add(task func()) bool {
	task()
	return true
}

func newTestService(t *testing.T) (*AuthService, *repositories.Repositories, storage.Store, *fakeMailer) {
	t.Helper()
	store := memory.New()
	repos := repositories.New(logger.Discard(), store, repositories.Options{WriteRetries: 3})
	require.NoError(t, repos.Seed(context.Background(), logger.Discard()))
	mailer := &fakeMailer{}
	svc := New(logger.Discard(), repos.Users, repos.Session, mailer, inlineExecutor{})
	svc.now = func() time.Time { return time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC) }
	return svc, repos, store, mailer
}

func TestSignup(t *testing.T) {
	ctx := context.Background()
	svc, repos, _, mailer := newTestService(t)

	user, err := svc.Signup(ctx, "Ana", "ana@mail.com", "123456")
	require.NoError(t, err)
	assert.NotZero(t, user.ID)
	assert.Nil(t, user.PlanID)
	assert.Equal(t, 2024, user.CreatedAt.Year())
	assert.Equal(t, []sentMail{{"ana@mail.com", mails.TmplWelcome}}, mailer.sent)

	_, err = svc.Current(ctx)
	assert.ErrorIs(t, err, ErrNotAuthenticated, "signup does not sign in")

	_, err = svc.Signup(ctx, "Other", "ana@mail.com", "abcdef")
	assert.ErrorIs(t, err, ErrEmailTaken)
	users, err := repos.Users.FindAll(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestLoginLogout(t *testing.T) {
	ctx := context.Background()
	svc, _, store, _ := newTestService(t)
	_, err := svc.Signup(ctx, "Ana", "ana@mail.com", "123456")
	require.NoError(t, err)

	tests := []struct {
		name     string
		email    string
		password string
		wantErr  error
	}{
		{"wrong password", "ana@mail.com", "654321", ErrInvalidCredentials},
		{"unknown email", "bob@mail.com", "123456", ErrInvalidCredentials},
		{"email case differs", "ANA@mail.com", "123456", ErrInvalidCredentials},
		{"match", "ana@mail.com", "123456", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, err := svc.Login(ctx, tt.email, tt.password)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "Ana", user.Name)
		})
	}

	current, err := svc.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ana@mail.com", current.Email)

	require.NoError(t, svc.Logout(ctx))
	_, err = store.Get(ctx, storage.KeyCurrentUser)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = svc.Current(ctx)
	assert.ErrorIs(t, err, ErrNotAuthenticated)
}

func TestFailedLoginKeepsSession(t *testing.T) {
	ctx := context.Background()
	svc, _, _, _ := newTestService(t)
	_, err := svc.Signup(ctx, "Ana", "ana@mail.com", "123456")
	require.NoError(t, err)
	_, err = svc.Login(ctx, "ana@mail.com", "123456")
	require.NoError(t, err)

	_, err = svc.Login(ctx, "ana@mail.com", "nope")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	current, err := svc.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Ana", current.Name)
}

func TestRefresh(t *testing.T) {
	ctx := context.Background()
	svc, repos, _, _ := newTestService(t)
	user, err := svc.Signup(ctx, "Ana", "ana@mail.com", "123456")
	require.NoError(t, err)
	_, err = svc.Login(ctx, "ana@mail.com", "123456")
	require.NoError(t, err)

	name := "Ana Maria"
	_, err = repos.Users.Update(ctx, user.ID, repositories.UserPatch{Name: &name})
	require.NoError(t, err)
	refreshed, err := svc.Refresh(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Ana Maria", refreshed.Name)

	require.NoError(t, repos.Users.DeleteByID(ctx, user.ID))
	_, err = svc.Refresh(ctx)
	assert.ErrorIs(t, err, ErrNotAuthenticated)
	_, err = svc.Current(ctx)
	assert.ErrorIs(t, err, ErrNotAuthenticated)
}

func TestSignupWriteContention(t *testing.T) {
	ctx := context.Background()
	store := storagetest.NewFlakyStore(memory.New())
	repos := repositories.New(logger.Discard(), store, repositories.Options{WriteRetries: 1})
	require.NoError(t, repos.Seed(ctx, logger.Discard()))
	mailer := &fakeMailer{}
	svc := New(logger.Discard(), repos.Users, repos.Session, mailer, inlineExecutor{})

	store.ConflictSet(storage.KeyUsers)
	_, err := svc.Signup(ctx, "Ana", "ana@mail.com", "123456")
	assert.ErrorIs(t, err, storage.ErrConflict)
	assert.NotErrorIs(t, err, ErrEmailTaken)
	assert.Empty(t, mailer.sent)
}
