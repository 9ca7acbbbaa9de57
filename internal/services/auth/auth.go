package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"cineflix/proj/internal/domain/models"
	"cineflix/proj/internal/mails"
	"cineflix/proj/internal/storage"
)

type MailProvider interface {
	Send(recipient string, tmplName string, tmplData any) error
}

type TaskExecutor interface {
	Add(task func()) bool
}

type UsersStorage interface {
	FindByID(ctx context.Context, id int64) (models.User, error)
	FindByEmail(ctx context.Context, email string) (models.User, error)
	Insert(ctx context.Context, user models.User) (models.User, error)
}

type SessionStorage interface {
	Load(ctx context.Context) (models.User, bool, error)
	Save(ctx context.Context, user models.User) error
	Clear(ctx context.Context) error
}

type AuthService struct {
	log          *slog.Logger
	users        UsersStorage
	session      SessionStorage
	mailer       MailProvider
	taskExecutor TaskExecutor
	now          func() time.Time
}

func New(
	log *slog.Logger,
	users UsersStorage,
	session SessionStorage,
	mailer MailProvider,
	taskExecutor TaskExecutor,
) *AuthService {
	return &AuthService{
		log:          log,
		users:        users,
		session:      session,
		mailer:       mailer,
		taskExecutor: taskExecutor,
		now:          time.Now,
	}
}

// Login signs the user in when email and password match a stored user
// exactly. The matched user becomes the current session.
func (a *AuthService) Login(ctx context.Context, email, password string) (models.User, error) {
	const op = "auth.AuthService.Login"
	log := a.log.With("op", op, "email", email)
	user, err := a.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			log.Info("unknown email")
			return models.User{}, ErrInvalidCredentials
		}
		log.Error("Error loading user", "errMsg", err.Error())
		return models.User{}, err
	}
	if user.Password != password {
		log.Info("password mismatch")
		return models.User{}, ErrInvalidCredentials
	}
	if err := a.session.Save(ctx, user); err != nil {
		log.Error("Error saving session", "errMsg", err.Error())
		return models.User{}, err
	}
	return user, nil
}

func (a *AuthService) Logout(ctx context.Context) error {
	const op = "auth.AuthService.Logout"
	if err := a.session.Clear(ctx); err != nil {
		a.log.Error("Error clearing session", "op", op, "errMsg", err.Error())
		return err
	}
	return nil
}

// Current returns the signed-in user, or ErrNotAuthenticated.
func (a *AuthService) Current(ctx context.Context) (models.User, error) {
	user, ok, err := a.session.Load(ctx)
	if err != nil {
		return models.User{}, err
	}
	if !ok {
		return models.User{}, ErrNotAuthenticated
	}
	return user, nil
}

// Refresh reloads the session copy from the users collection. A session
// whose user no longer exists is cleared.
func (a *AuthService) Refresh(ctx context.Context) (models.User, error) {
	const op = "auth.AuthService.Refresh"
	log := a.log.With("op", op)
	current, err := a.Current(ctx)
	if err != nil {
		return models.User{}, err
	}
	user, err := a.users.FindByID(ctx, current.ID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			log.Info("session user was deleted, signing out", "user_id", current.ID)
			if err := a.session.Clear(ctx); err != nil {
				return models.User{}, err
			}
			return models.User{}, ErrNotAuthenticated
		}
		return models.User{}, err
	}
	if err := a.session.Save(ctx, user); err != nil {
		return models.User{}, err
	}
	return user, nil
}

// Signup creates a user without a plan. It does not sign the user in.
func (a *AuthService) Signup(ctx context.Context, name, email, password string) (models.User, error) {
	const op = "auth.AuthService.Signup"
	log := a.log.With("op", op, "email", email)
	if _, err := a.users.FindByEmail(ctx, email); err == nil {
		log.Info("email already registered")
		return models.User{}, ErrEmailTaken
	} else if !errors.Is(err, storage.ErrNotFound) {
		log.Error("Error checking email", "errMsg", err.Error())
		return models.User{}, err
	}
	user, err := a.users.Insert(ctx, models.User{
		Name:      name,
		Email:     email,
		Password:  password,
		CreatedAt: a.now().UTC(),
	})
	if err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			log.Info("email registered concurrently")
			return models.User{}, ErrEmailTaken
		}
		log.Error("Error inserting user", "errMsg", err.Error())
		return models.User{}, err
	}
	a.sendLater(user.Email, mails.TmplWelcome, map[string]any{"Name": user.Name, "Email": user.Email})
	return user, nil
}

func (a *AuthService) sendLater(recipient, tmpl string, data any) {
	if a.mailer == nil || a.taskExecutor == nil {
		return
	}
	a.taskExecutor.Add(func() {
		if err := a.mailer.Send(recipient, tmpl, data); err != nil {
			a.log.Error("Error sending email", "template", tmpl, "errMsg", err.Error())
		}
	})
}
