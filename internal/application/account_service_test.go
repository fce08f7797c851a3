package application

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/testskool/backend/internal/domain/account"
	"github.com/testskool/backend/internal/domain/entity"
	"github.com/testskool/backend/pkg/helpers"
	"github.com/testskool/backend/pkg/mailer"
)

type memAccountRepo struct {
	accounts   map[string]*entity.Account
	subjects   map[string][]int64
	catalog    map[int64]entity.Subject
	failUpdate bool
}

func newMemAccountRepo(catalog map[int64]entity.Subject) *memAccountRepo {
	return &memAccountRepo{
		accounts: map[string]*entity.Account{},
		subjects: map[string][]int64{},
		catalog:  catalog,
	}
}

func (r *memAccountRepo) Create(_ context.Context, a *entity.Account, subjectIDs []int64) error {
	a.ID = uuid.NewString()
	a.DateJoined = time.Now()
	cp := *a
	r.accounts[a.ID] = &cp
	r.subjects[a.ID] = subjectIDs
	return nil
}

func (r *memAccountRepo) GetByID(_ context.Context, id string) (*entity.Account, error) {
	a, ok := r.accounts[id]
	if !ok {
		return nil, nil
	}
	cp := *a
	cp.Subjects = r.subjectsOf(id)
	return &cp, nil
}

func (r *memAccountRepo) GetByUsername(_ context.Context, username string) (*entity.Account, error) {
	for id, a := range r.accounts {
		if a.Username == username {
			cp := *a
			cp.Subjects = r.subjectsOf(id)
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memAccountRepo) UsernameExists(ctx context.Context, username string) (bool, error) {
	a, err := r.GetByUsername(ctx, username)
	return a != nil, err
}

func (r *memAccountRepo) Update(_ context.Context, a *entity.Account, subjectIDs []int64, replaceSubjects bool) error {
	if r.failUpdate {
		return errors.New("update refused")
	}
	cp := *a
	r.accounts[a.ID] = &cp
	if replaceSubjects {
		r.subjects[a.ID] = subjectIDs
	}
	return nil
}

func (r *memAccountRepo) Delete(_ context.Context, id string) error {
	delete(r.accounts, id)
	delete(r.subjects, id)
	return nil
}

func (r *memAccountRepo) subjectsOf(id string) []entity.Subject {
	var out []entity.Subject
	for _, sid := range r.subjects[id] {
		out = append(out, r.catalog[sid])
	}
	return out
}

type memSubjectRepo struct {
	rows []entity.Subject
}

func (r *memSubjectRepo) List(_ context.Context) ([]entity.Subject, error) {
	return r.rows, nil
}

func (r *memSubjectRepo) GetByNames(_ context.Context, names []string) ([]entity.Subject, error) {
	want := map[string]bool{}
	for _, n := range names {
		want[n] = true
	}
	var out []entity.Subject
	for _, s := range r.rows {
		if want[s.Name] {
			out = append(out, s)
		}
	}
	return out, nil
}

type memMedia struct {
	objects map[string][]byte
	deleted []string
}

func newMemMedia() *memMedia {
	return &memMedia{objects: map[string][]byte{}}
}

func (m *memMedia) Save(_ context.Context, objectPath, _ string, r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	m.objects[objectPath] = data
	return "https://storage.test/" + objectPath, nil
}

func (m *memMedia) Delete(_ context.Context, objectPath string) error {
	delete(m.objects, objectPath)
	m.deleted = append(m.deleted, objectPath)
	return nil
}

type memPublisher struct {
	jobs []mailer.EmailJob
}

func (p *memPublisher) PublishJSON(_ context.Context, body any) error {
	p.jobs = append(p.jobs, body.(mailer.EmailJob))
	return nil
}

func testCatalog() (map[int64]entity.Subject, *memSubjectRepo) {
	rows := []entity.Subject{
		{ID: 1, Name: "Art"},
		{ID: 2, Name: "Math"},
		{ID: 3, Name: "Music"},
	}
	catalog := map[int64]entity.Subject{}
	for _, s := range rows {
		catalog[s.ID] = s
	}
	return catalog, &memSubjectRepo{rows: rows}
}

func newTestService(t *testing.T) (*Service, *memAccountRepo, *memMedia) {
	t.Helper()
	catalog, subjects := testCatalog()
	accounts := newMemAccountRepo(catalog)
	media := newMemMedia()
	jwtMgr := helpers.NewJWTManager("access-secret", "refresh-secret", time.Minute, time.Hour)
	return NewService(accounts, subjects, jwtMgr, media, nil, nil, nil, false), accounts, media
}

func registerStudent(t *testing.T, svc *Service, username, password string) *entity.Account {
	t.Helper()
	a, errs, err := svc.Register(context.Background(), account.RegisterInput{
		Username:  username,
		Password:  password,
		Confirm:   password,
		IsTeacher: account.Bool(false),
	})
	require.NoError(t, err)
	require.False(t, errs.Any(), "unexpected field errors: %v", errs)
	return a
}

func smallPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{G: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestRegisterTeacherPersistsSubjects(t *testing.T) {
	svc, repo, _ := newTestService(t)

	a, errs, err := svc.Register(context.Background(), account.RegisterInput{
		Username:  "teach",
		Password:  "goodpassword",
		Confirm:   "goodpassword",
		IsTeacher: account.Bool(true),
		Subject:   []string{"Math", "Art"},
	})
	require.NoError(t, err)
	require.False(t, errs.Any())
	require.NotEmpty(t, a.ID)
	assert.True(t, a.IsTeacher)
	assert.False(t, a.IsStudent)

	stored, err := repo.GetByID(context.Background(), a.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Art", "Math"}, stored.SubjectNames())
	// The stored password is a hash, never the plain text.
	assert.NotEqual(t, "goodpassword", stored.Password)
	assert.True(t, helpers.CompareHashAndPassword(stored.Password, "goodpassword"))
}

func TestRegisterDuplicateUsername(t *testing.T) {
	svc, _, _ := newTestService(t)
	registerStudent(t, svc, "alice", "goodpassword")

	_, errs, err := svc.Register(context.Background(), account.RegisterInput{
		Username:  "alice",
		Password:  "goodpassword",
		Confirm:   "goodpassword",
		IsTeacher: account.Bool(false),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"A user with that username already exists."}, errs["username"])
}

func TestRegisterInvalidDoesNotPersist(t *testing.T) {
	svc, repo, _ := newTestService(t)

	_, errs, err := svc.Register(context.Background(), account.RegisterInput{
		Username:  "bob",
		Password:  "short",
		Confirm:   "short",
		IsTeacher: account.Bool(false),
	})
	require.NoError(t, err)
	assert.True(t, errs.Any())
	assert.Empty(t, repo.accounts)
}

func TestRegisterEnqueuesWelcomeMail(t *testing.T) {
	svc, _, _ := newTestService(t)
	pub := &memPublisher{}
	svc.Pub = pub
	svc.MailOn = true

	_, errs, err := svc.Register(context.Background(), account.RegisterInput{
		Username:  "alice",
		Password:  "goodpassword",
		Confirm:   "goodpassword",
		Email:     "alice@example.com",
		IsTeacher: account.Bool(false),
	})
	require.NoError(t, err)
	require.False(t, errs.Any())
	require.Len(t, pub.jobs, 1)
	assert.Equal(t, "alice@example.com", pub.jobs[0].To)
	assert.Contains(t, pub.jobs[0].Text, "alice")

	// No email, no mail.
	_, errs, err = svc.Register(context.Background(), account.RegisterInput{
		Username:  "bob",
		Password:  "goodpassword",
		Confirm:   "goodpassword",
		IsTeacher: account.Bool(false),
	})
	require.NoError(t, err)
	require.False(t, errs.Any())
	assert.Len(t, pub.jobs, 1)
}

func TestRegisterPersistsEmail(t *testing.T) {
	svc, repo, _ := newTestService(t)

	a, errs, err := svc.Register(context.Background(), account.RegisterInput{
		Username:  "alice",
		Password:  "goodpassword",
		Confirm:   "goodpassword",
		Email:     "  alice@example.com  ",
		IsTeacher: account.Bool(false),
	})
	require.NoError(t, err)
	require.False(t, errs.Any())

	stored, err := repo.GetByID(context.Background(), a.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", stored.Email)
}

func TestLoginAndRefresh(t *testing.T) {
	svc, _, _ := newTestService(t)
	a := registerStudent(t, svc, "alice", "goodpassword")

	got, pair, err := svc.Login(context.Background(), "alice", "goodpassword")
	require.NoError(t, err)
	assert.Equal(t, a.ID, got.ID)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)

	claims, err := svc.JWT.ParseAccessToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, a.ID, claims.UserID)

	newPair, accountID, err := svc.Refresh(context.Background(), pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, a.ID, accountID)
	assert.NotEmpty(t, newPair.AccessToken)
}

func TestLoginWrongPassword(t *testing.T) {
	svc, _, _ := newTestService(t)
	registerStudent(t, svc, "alice", "goodpassword")

	_, _, err := svc.Login(context.Background(), "alice", "wrongpassword")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = svc.Login(context.Background(), "nobody", "goodpassword")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	svc, _, _ := newTestService(t)
	a := registerStudent(t, svc, "alice", "goodpassword")

	pair, err := svc.IssueTokens(context.Background(), a)
	require.NoError(t, err)

	// Signed with the access secret, so the refresh parser must reject it.
	_, _, err = svc.Refresh(context.Background(), pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestUpdateProfileNames(t *testing.T) {
	svc, _, _ := newTestService(t)
	a := registerStudent(t, svc, "alice", "goodpassword")

	updated, errs, err := svc.UpdateProfile(context.Background(), a.ID, account.UpdateInput{
		FirstName: account.Set("Alice"),
		LastName:  account.Set("Smith"),
		About:     account.Set("Hi there"),
	})
	require.NoError(t, err)
	require.False(t, errs.Any())
	assert.Equal(t, "Alice", updated.FirstName)
	assert.Equal(t, "Smith", updated.LastName)
	assert.Equal(t, "Hi there", updated.About)
}

func TestUpdateProfilePasswordChange(t *testing.T) {
	svc, _, _ := newTestService(t)
	a := registerStudent(t, svc, "alice", "goodpassword")

	_, errs, err := svc.UpdateProfile(context.Background(), a.ID, account.UpdateInput{
		OldPassword:     account.Set("goodpassword"),
		Password:        account.Set("bettersecret"),
		ConfirmPassword: account.Set("bettersecret"),
	})
	require.NoError(t, err)
	require.False(t, errs.Any())

	_, _, err = svc.Login(context.Background(), "alice", "goodpassword")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, _, err = svc.Login(context.Background(), "alice", "bettersecret")
	assert.NoError(t, err)
}

func TestUpdateProfileIncompletePasswordTrio(t *testing.T) {
	svc, _, _ := newTestService(t)
	a := registerStudent(t, svc, "alice", "goodpassword")

	_, errs, err := svc.UpdateProfile(context.Background(), a.ID, account.UpdateInput{
		Password: account.Set("bettersecret"),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Please fill all fields to change your password."}, errs["confirm_password"])

	// The stored password did not change.
	_, _, err = svc.Login(context.Background(), "alice", "goodpassword")
	assert.NoError(t, err)
}

func TestUpdateProfileSubjectReplacement(t *testing.T) {
	svc, repo, _ := newTestService(t)

	a, errs, err := svc.Register(context.Background(), account.RegisterInput{
		Username:  "teach",
		Password:  "goodpassword",
		Confirm:   "goodpassword",
		IsTeacher: account.Bool(true),
		Subject:   []string{"Math"},
	})
	require.NoError(t, err)
	require.False(t, errs.Any())

	updated, errs, err := svc.UpdateProfile(context.Background(), a.ID, account.UpdateInput{
		Subject: account.Set([]string{"Art", "Music"}),
	})
	require.NoError(t, err)
	require.False(t, errs.Any())
	assert.ElementsMatch(t, []string{"Art", "Music"}, updated.SubjectNames())

	stored, err := repo.GetByID(context.Background(), a.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Art", "Music"}, stored.SubjectNames())
}

func TestUpdateProfileFailureLeavesNothingApplied(t *testing.T) {
	svc, repo, _ := newTestService(t)

	a, errs, err := svc.Register(context.Background(), account.RegisterInput{
		Username:  "teach",
		Password:  "goodpassword",
		Confirm:   "goodpassword",
		IsTeacher: account.Bool(true),
		Subject:   []string{"Math"},
	})
	require.NoError(t, err)
	require.False(t, errs.Any())

	repo.failUpdate = true
	_, _, err = svc.UpdateProfile(context.Background(), a.ID, account.UpdateInput{
		FirstName: account.Set("Changed"),
		Subject:   account.Set([]string{"Art", "Music"}),
	})
	require.Error(t, err)

	// Row change and subject swap travel together; neither half landed.
	stored, err := repo.GetByID(context.Background(), a.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.FirstName)
	assert.Equal(t, []string{"Math"}, stored.SubjectNames())
}

func TestUpdateProfileUnknownSubject(t *testing.T) {
	svc, _, _ := newTestService(t)

	a, errs, err := svc.Register(context.Background(), account.RegisterInput{
		Username:  "teach",
		Password:  "goodpassword",
		Confirm:   "goodpassword",
		IsTeacher: account.Bool(true),
		Subject:   []string{"Math"},
	})
	require.NoError(t, err)
	require.False(t, errs.Any())

	_, errs, err = svc.UpdateProfile(context.Background(), a.ID, account.UpdateInput{
		Subject: account.Set([]string{"Alchemy"}),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Object with name=Alchemy does not exist."}, errs["subject"])
}

func TestUpdateProfilePictureReplacesOld(t *testing.T) {
	svc, _, media := newTestService(t)
	a := registerStudent(t, svc, "alice", "goodpassword")

	pic := smallPNG(t)
	first, errs, err := svc.UpdateProfile(context.Background(), a.ID, account.UpdateInput{
		Picture: &account.PictureUpload{Filename: "me.png", Data: pic},
	})
	require.NoError(t, err)
	require.False(t, errs.Any())
	require.NotEmpty(t, first.ProfilePicture)
	assert.Contains(t, media.objects, first.ProfilePicture)
	assert.Empty(t, media.deleted)

	second, errs, err := svc.UpdateProfile(context.Background(), a.ID, account.UpdateInput{
		Picture: &account.PictureUpload{Filename: "me2.png", Data: pic},
	})
	require.NoError(t, err)
	require.False(t, errs.Any())
	assert.NotEqual(t, first.ProfilePicture, second.ProfilePicture)
	assert.Contains(t, media.objects, second.ProfilePicture)
	assert.NotContains(t, media.objects, first.ProfilePicture)
	assert.Equal(t, []string{first.ProfilePicture}, media.deleted)
}

func TestUpdateProfileBadPictureStoresNothing(t *testing.T) {
	svc, _, media := newTestService(t)
	a := registerStudent(t, svc, "alice", "goodpassword")

	_, errs, err := svc.UpdateProfile(context.Background(), a.ID, account.UpdateInput{
		Picture: &account.PictureUpload{Filename: "notes.txt", Data: []byte("plain text, not pixels")},
	})
	require.NoError(t, err)
	assert.True(t, errs.Has("profile_picture"))
	assert.Empty(t, media.objects)
}

func TestDeleteAccountWrongPassword(t *testing.T) {
	svc, repo, _ := newTestService(t)
	a := registerStudent(t, svc, "alice", "goodpassword")

	errs, err := svc.DeleteAccount(context.Background(), a.ID, "wrongpassword")
	require.NoError(t, err)
	assert.Equal(t, []string{"Incorrect password."}, errs["password"])
	assert.Contains(t, repo.accounts, a.ID)
}

func TestDeleteAccountRemovesPicture(t *testing.T) {
	svc, repo, media := newTestService(t)
	a := registerStudent(t, svc, "alice", "goodpassword")

	updated, errs, err := svc.UpdateProfile(context.Background(), a.ID, account.UpdateInput{
		Picture: &account.PictureUpload{Filename: "me.png", Data: smallPNG(t)},
	})
	require.NoError(t, err)
	require.False(t, errs.Any())

	errs, err = svc.DeleteAccount(context.Background(), a.ID, "goodpassword")
	require.NoError(t, err)
	assert.False(t, errs.Any())
	assert.NotContains(t, repo.accounts, a.ID)
	assert.NotContains(t, media.objects, updated.ProfilePicture)
}

func TestListSubjects(t *testing.T) {
	svc, _, _ := newTestService(t)

	subjects, err := svc.ListSubjects(context.Background())
	require.NoError(t, err)
	require.Len(t, subjects, 3)
	assert.Equal(t, "Art", subjects[0].Name)
	assert.Equal(t, "Math", subjects[1].Name)
	assert.Equal(t, "Music", subjects[2].Name)
}
