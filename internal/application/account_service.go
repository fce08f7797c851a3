package application

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/testskool/backend/internal/domain/account"
	"github.com/testskool/backend/internal/domain/entity"
	repo "github.com/testskool/backend/internal/domain/repository"
	"github.com/testskool/backend/pkg/helpers"
	"github.com/testskool/backend/pkg/mailer"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountNotFound    = errors.New("account not found")
	ErrMediaUnavailable   = errors.New("media storage not configured")
)

// Publisher abstracts the queue the welcome mail goes through.
type Publisher interface {
	PublishJSON(ctx context.Context, body any) error
}

type Service struct {
	Accounts repo.AccountRepository
	Subjects repo.SubjectRepository
	JWT      *helpers.JWTManager
	Media    repo.MediaStorage
	Redis    *redis.Client
	Logger   *logrus.Logger
	Pub      Publisher
	MailOn   bool
}

func NewService(accounts repo.AccountRepository, subjects repo.SubjectRepository, jwt *helpers.JWTManager, media repo.MediaStorage, rdb *redis.Client, logger *logrus.Logger, pub Publisher, mailOn bool) *Service {
	return &Service{
		Accounts: accounts,
		Subjects: subjects,
		JWT:      jwt,
		Media:    media,
		Redis:    rdb,
		Logger:   logger,
		Pub:      pub,
		MailOn:   mailOn,
	}
}

type TokenPair struct {
	AccessToken        string
	AccessTokenExpiry  time.Time
	RefreshToken       string
	RefreshTokenExpiry time.Time
}

func sessionKey(accountID string) string {
	return "account:session:" + accountID
}

func nowRFC3339() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

// Register validates the registration input against the rule pipeline
// and persists the account with its subject associations. Validation
// fully precedes persistence; a rejected registration never mutates
// stored state.
func (s *Service) Register(ctx context.Context, in account.RegisterInput) (*entity.Account, account.FieldErrors, error) {
	facts := account.RegisterFacts{}

	if in.Username != "" {
		taken, err := s.Accounts.UsernameExists(ctx, in.Username)
		if err != nil {
			return nil, nil, err
		}
		facts.UsernameTaken = taken
	}
	if len(in.Subject) > 0 {
		resolved, err := s.Subjects.GetByNames(ctx, in.Subject)
		if err != nil {
			return nil, nil, err
		}
		facts.ResolvedSubjects = resolved
	}

	if errs := account.ValidateRegister(in, facts); errs.Any() {
		return nil, errs, nil
	}

	hash, err := helpers.HashPassword(in.Password)
	if err != nil {
		return nil, nil, err
	}

	a := &entity.Account{
		Username:  in.Username,
		Password:  hash,
		Email:     strings.TrimSpace(in.Email),
		IsTeacher: in.IsTeacher.Value,
		IsStudent: !in.IsTeacher.Value,
	}

	var subjectIDs []int64
	if a.IsTeacher {
		for _, sub := range facts.ResolvedSubjects {
			subjectIDs = append(subjectIDs, sub.ID)
		}
		a.Subjects = facts.ResolvedSubjects
	}

	if err := s.Accounts.Create(ctx, a, subjectIDs); err != nil {
		return nil, nil, err
	}

	s.sendWelcome(ctx, a)
	return a, nil, nil
}

func (s *Service) sendWelcome(ctx context.Context, a *entity.Account) {
	if !s.MailOn || s.Pub == nil || a.Email == "" {
		return
	}
	job := mailer.WelcomeJob(a.Email, a.Username)
	if err := s.Pub.PublishJSON(ctx, job); err != nil && s.Logger != nil {
		s.Logger.WithError(err).WithField("account_id", a.ID).Warn("welcome mail enqueue failed")
	}
}

// Authenticate validates username/password and returns the account
// without issuing tokens.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*entity.Account, error) {
	a, err := s.Accounts.GetByUsername(ctx, username)
	if err != nil || a == nil {
		return nil, ErrInvalidCredentials
	}
	if !helpers.CompareHashAndPassword(a.Password, password) {
		return nil, ErrInvalidCredentials
	}
	return a, nil
}

// IssueTokens generates access/refresh tokens and records a session in Redis.
func (s *Service) IssueTokens(ctx context.Context, a *entity.Account) (TokenPair, error) {
	sid := uuid.NewString()
	access, aexp, err := s.JWT.GenerateAccessToken(a.ID, sid)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, rexp, err := s.JWT.GenerateRefreshToken(a.ID, sid)
	if err != nil {
		return TokenPair{}, err
	}

	if s.Redis != nil {
		key := sessionKey(a.ID)
		pipe := s.Redis.Pipeline()
		pipe.HSet(ctx, key, map[string]any{
			"account_id": a.ID,
			"username":   a.Username,
			"sid":        sid,
			"logged_in":  true,
			"created_at": nowRFC3339(),
		})
		pipe.Expire(ctx, key, 24*time.Hour)
		if _, rErr := pipe.Exec(ctx); rErr != nil && s.Logger != nil {
			s.Logger.WithError(rErr).WithField("key", key).Warn("redis pipeline failed")
		}
	}

	return TokenPair{AccessToken: access, AccessTokenExpiry: aexp, RefreshToken: refresh, RefreshTokenExpiry: rexp}, nil
}

func (s *Service) Login(ctx context.Context, username, password string) (*entity.Account, TokenPair, error) {
	a, err := s.Authenticate(ctx, username, password)
	if err != nil {
		return nil, TokenPair{}, err
	}
	pair, err := s.IssueTokens(ctx, a)
	if err != nil {
		return nil, TokenPair{}, err
	}
	return a, pair, nil
}

// Refresh rotates the session id and both tokens. A refresh token
// whose session id no longer matches the stored session is rejected.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (TokenPair, string, error) {
	claims, err := s.JWT.ParseRefreshToken(refreshToken)
	if err != nil {
		return TokenPair{}, "", ErrInvalidCredentials
	}
	a, err := s.Accounts.GetByID(ctx, claims.UserID)
	if err != nil || a == nil {
		return TokenPair{}, "", ErrInvalidCredentials
	}
	if s.Redis != nil {
		key := sessionKey(a.ID)
		data, rErr := s.Redis.HGetAll(ctx, key).Result()
		if rErr != nil || len(data) == 0 || data["sid"] != claims.SessionID {
			return TokenPair{}, "", ErrInvalidCredentials
		}
	}

	sid := uuid.NewString()
	access, aexp, err := s.JWT.GenerateAccessToken(a.ID, sid)
	if err != nil {
		return TokenPair{}, "", err
	}
	refresh, rexp, err := s.JWT.GenerateRefreshToken(a.ID, sid)
	if err != nil {
		return TokenPair{}, "", err
	}
	if s.Redis != nil {
		key := sessionKey(a.ID)
		pipe := s.Redis.Pipeline()
		pipe.HSet(ctx, key, map[string]any{
			"sid":        sid,
			"updated_at": nowRFC3339(),
		})
		pipe.Expire(ctx, key, 24*time.Hour)
		_, _ = pipe.Exec(ctx)
	}
	return TokenPair{AccessToken: access, AccessTokenExpiry: aexp, RefreshToken: refresh, RefreshTokenExpiry: rexp}, a.ID, nil
}

// GetProfile returns the caller's own account with subjects loaded.
func (s *Service) GetProfile(ctx context.Context, accountID string) (*entity.Account, error) {
	a, err := s.Accounts.GetByID(ctx, accountID)
	if err != nil || a == nil {
		return nil, ErrAccountNotFound
	}
	return a, nil
}

// UpdateProfile applies a sparse update. All rules run before any
// mutation; when a new picture is part of the update, the new object
// is stored before the old one is removed so a late failure never
// leaves the account with neither.
func (s *Service) UpdateProfile(ctx context.Context, accountID string, in account.UpdateInput) (*entity.Account, account.FieldErrors, error) {
	a, err := s.Accounts.GetByID(ctx, accountID)
	if err != nil || a == nil {
		return nil, nil, ErrAccountNotFound
	}

	facts := account.UpdateFacts{
		Account: a,
		VerifyPassword: func(plain string) bool {
			return helpers.CompareHashAndPassword(a.Password, plain)
		},
	}
	if in.Subject.Present && len(in.Subject.Value) > 0 {
		resolved, err := s.Subjects.GetByNames(ctx, in.Subject.Value)
		if err != nil {
			return nil, nil, err
		}
		facts.ResolvedSubjects = resolved
	}

	if errs := account.ValidateUpdate(in, facts); errs.Any() {
		return nil, errs, nil
	}

	if in.FirstName.Present {
		a.FirstName = in.FirstName.Value
	}
	if in.LastName.Present {
		a.LastName = in.LastName.Value
	}
	if in.About.Present {
		a.About = in.About.Value
	}
	if in.WantsPasswordChange() {
		hash, err := helpers.HashPassword(in.Password.Value)
		if err != nil {
			return nil, nil, err
		}
		a.Password = hash
	}

	oldPicture := ""
	if in.Picture != nil {
		newPath, err := s.storePicture(ctx, in.Picture)
		if err != nil {
			return nil, nil, err
		}
		oldPicture = a.ProfilePicture
		a.ProfilePicture = newPath
	}

	var subjectIDs []int64
	if in.Subject.Present {
		for _, sub := range facts.ResolvedSubjects {
			subjectIDs = append(subjectIDs, sub.ID)
		}
	}
	if err := s.Accounts.Update(ctx, a, subjectIDs, in.Subject.Present); err != nil {
		return nil, nil, err
	}
	if in.Subject.Present {
		a.Subjects = facts.ResolvedSubjects
	}

	// Old object goes only after the new one is committed.
	s.deletePicture(ctx, oldPicture)
	s.touchSession(ctx, a)
	return a, nil, nil
}

func (s *Service) storePicture(ctx context.Context, p *account.PictureUpload) (string, error) {
	if s.Media == nil {
		return "", ErrMediaUnavailable
	}
	objectPath := "profile-pictures/" + uuid.NewString() + account.PictureExt(p.Data)
	if _, err := s.Media.Save(ctx, objectPath, account.PictureContentType(p.Data), bytes.NewReader(p.Data)); err != nil {
		return "", err
	}
	return objectPath, nil
}

func (s *Service) deletePicture(ctx context.Context, objectPath string) {
	if objectPath == "" || s.Media == nil {
		return
	}
	if err := s.Media.Delete(ctx, objectPath); err != nil && s.Logger != nil {
		s.Logger.WithError(err).WithField("object", objectPath).Warn("old picture delete failed")
	}
}

func (s *Service) touchSession(ctx context.Context, a *entity.Account) {
	if s.Redis == nil {
		return
	}
	key := sessionKey(a.ID)
	pipe := s.Redis.Pipeline()
	pipe.HSet(ctx, key, map[string]any{
		"username":   a.Username,
		"updated_at": nowRFC3339(),
	})
	if ttl, err := s.Redis.TTL(ctx, key).Result(); err == nil && ttl > 0 {
		pipe.Expire(ctx, key, ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil && s.Logger != nil {
		s.Logger.WithError(err).WithField("key", key).Warn("redis pipeline failed")
	}
}

// DeleteAccount verifies the caller's password and removes the account
// together with its stored picture and session. A wrong password
// performs no mutation at all.
func (s *Service) DeleteAccount(ctx context.Context, accountID, password string) (account.FieldErrors, error) {
	a, err := s.Accounts.GetByID(ctx, accountID)
	if err != nil || a == nil {
		return nil, ErrAccountNotFound
	}
	if !helpers.CompareHashAndPassword(a.Password, password) {
		errs := account.FieldErrors{}
		errs.Add("password", account.Message(account.IncorrectPassword))
		return errs, nil
	}

	s.deletePicture(ctx, a.ProfilePicture)
	if err := s.Accounts.Delete(ctx, a.ID); err != nil {
		return nil, err
	}
	if s.Redis != nil {
		if err := s.Redis.Del(ctx, sessionKey(a.ID)).Err(); err != nil && s.Logger != nil {
			s.Logger.WithError(err).WithField("account_id", a.ID).Warn("session delete failed")
		}
	}
	return nil, nil
}

// ListSubjects returns every subject ordered by name. An empty catalog
// is a valid result, not an error.
func (s *Service) ListSubjects(ctx context.Context) ([]entity.Subject, error) {
	return s.Subjects.List(ctx)
}
