package feature

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Tom21-xd/Uceva-sub002/internal/api"
	"github.com/Tom21-xd/Uceva-sub002/internal/importer"
	"github.com/Tom21-xd/Uceva-sub002/internal/models"
	"github.com/Tom21-xd/Uceva-sub002/internal/session"
	"github.com/Tom21-xd/Uceva-sub002/internal/state"
)

type fakeFeed struct {
	items   []models.Publication
	reactFn func(id int) error
}

func (f *fakeFeed) List(context.Context) ([]models.Publication, error) { return f.items, nil }

func (f *fakeFeed) Create(_ context.Context, req models.PublicationRequest) (models.Publication, error) {
	return models.Publication{ID: 99, Title: req.Title, Category: req.Category, CreatedAt: time.Now()}, nil
}

func (f *fakeFeed) React(_ context.Context, id int) error {
	if f.reactFn != nil {
		return f.reactFn(id)
	}
	return nil
}

func (f *fakeFeed) Save(context.Context, int) error { return nil }

func TestPublications_OrderingAndCategory(t *testing.T) {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	src := &fakeFeed{items: []models.Publication{
		{ID: 1, Category: "Noticia", CreatedAt: base},
		{ID: 2, Category: "Alerta", CreatedAt: base.Add(time.Hour)},
		{ID: 3, Category: "Noticia", CreatedAt: base.Add(2 * time.Hour)},
		{ID: 4, Category: "Alerta", Pinned: true, CreatedAt: base},
	}}
	p := NewPublications(context.Background(), src, zap.NewNop())
	defer p.Dispose()
	require.NoError(t, p.Refresh(context.Background()))

	ids := func() []int {
		var out []int
		for _, pub := range p.State().Visible {
			out = append(out, pub.ID)
		}
		return out
	}
	assert.Equal(t, []int{4, 3, 2, 1}, ids())
	assert.Equal(t, 1, p.State().Feed.Data[0].ID, "feed keeps backend order")

	p.SetCategory("Noticia")
	assert.Equal(t, []int{3, 1}, ids())

	err := p.Create(context.Background(), models.PublicationRequest{Title: "", Category: "Chisme"})
	var verrs ValidationErrors
	require.True(t, errors.As(err, &verrs))
	assert.Contains(t, verrs, "titulo")
	assert.Contains(t, verrs, "categoria")

	require.NoError(t, p.Create(context.Background(), models.PublicationRequest{Title: "Jornada", Body: "Fumigación", Category: "Noticia"}))
	assert.Equal(t, []int{99, 3, 1}, ids())
}

func TestPublications_Toggles(t *testing.T) {
	src := &fakeFeed{items: []models.Publication{{ID: 1, Category: "Noticia", Reactions: 2}}}
	p := NewPublications(context.Background(), src, zap.NewNop())
	defer p.Dispose()
	require.NoError(t, p.Refresh(context.Background()))

	require.NoError(t, p.ToggleReaction(context.Background(), 1))
	pub := p.State().Feed.Data[0]
	assert.True(t, pub.ReactedByMe)
	assert.Equal(t, 3, pub.Reactions)

	require.NoError(t, p.ToggleSave(context.Background(), 1))
	assert.Equal(t, 1, p.State().Feed.Data[0].Saves)

	src.reactFn = func(int) error { return &api.APIError{StatusCode: 403} }
	require.Error(t, p.ToggleReaction(context.Background(), 1))
	assert.Equal(t, 3, p.State().Feed.Data[0].Reactions)
	assert.Contains(t, p.State().ActionErr, "permisos")
}

type fakeQuiz struct {
	submitted []models.SubmitAttemptRequest
	passed    bool
	issued    int
	bare      bool // Start omits the question list
	asked     []int
}

func (f *fakeQuiz) questions() []models.QuizQuestion {
	return []models.QuizQuestion{
		{ID: 1, Answers: []models.QuizAnswer{{ID: 10}, {ID: 11}}},
		{ID: 2, Answers: []models.QuizAnswer{{ID: 20}, {ID: 21}}},
	}
}

func (f *fakeQuiz) Start(_ context.Context, quizID int) (models.QuizAttempt, error) {
	a := models.QuizAttempt{ID: 11, QuizID: quizID}
	if !f.bare {
		a.Questions = f.questions()
	}
	return a, nil
}

func (f *fakeQuiz) Questions(_ context.Context, attemptID int) ([]models.QuizQuestion, error) {
	f.asked = append(f.asked, attemptID)
	return f.questions(), nil
}

func (f *fakeQuiz) Submit(_ context.Context, req models.SubmitAttemptRequest) (models.AttemptResult, error) {
	f.submitted = append(f.submitted, req)
	return models.AttemptResult{AttemptID: req.AttemptID, Correct: 2, Total: 2, Score: 100, Passed: f.passed}, nil
}

func (f *fakeQuiz) IssueCertificate(_ context.Context, attemptID int) (models.Certificate, error) {
	f.issued++
	return models.Certificate{ID: 1, AttemptID: attemptID, Code: "CERT-1"}, nil
}

func TestQuiz_StartFetchesMissingQuestions(t *testing.T) {
	src := &fakeQuiz{bare: true}
	q := NewQuiz(context.Background(), src, zap.NewNop())
	defer q.Dispose()

	require.NoError(t, q.Start(context.Background(), 3))
	assert.Equal(t, []int{11}, src.asked)
	assert.Len(t, q.State().Attempt.Data.Questions, 2)
	require.NoError(t, q.Select(2, 21))

	src.bare = false
	require.NoError(t, q.Start(context.Background(), 3))
	assert.Equal(t, []int{11}, src.asked, "complete attempts need no second request")
}

func TestQuiz_Flow(t *testing.T) {
	src := &fakeQuiz{passed: true}
	q := NewQuiz(context.Background(), src, zap.NewNop())
	defer q.Dispose()

	assert.ErrorIs(t, q.Select(1, 10), ErrNoAttempt)
	_, err := q.Submit(context.Background())
	assert.ErrorIs(t, err, ErrNoAttempt)

	require.NoError(t, q.Start(context.Background(), 3))
	assert.Error(t, q.Select(1, 20), "answer of another question")
	require.NoError(t, q.Select(1, 11))
	assert.Equal(t, []int{2}, q.Unanswered())

	_, err = q.Submit(context.Background())
	var verrs ValidationErrors
	require.True(t, errors.As(err, &verrs))
	assert.Contains(t, verrs, "2")
	assert.Empty(t, src.submitted)

	require.NoError(t, q.Select(2, 20))
	res, err := q.Submit(context.Background())
	require.NoError(t, err)
	assert.True(t, res.Passed)
	require.Len(t, src.submitted, 1)
	assert.Equal(t, []models.SubmittedAnswer{{QuestionID: 1, AnswerID: 11}, {QuestionID: 2, AnswerID: 20}}, src.submitted[0].Answers)
	assert.Equal(t, "CERT-1", q.State().Certificate.Data.Code)

	require.NoError(t, q.Start(context.Background(), 3))
	assert.Empty(t, q.State().Selected)
	assert.Equal(t, state.Idle, q.State().Certificate.Status)
}

func TestQuiz_FailedAttemptRequestsNoCertificate(t *testing.T) {
	src := &fakeQuiz{}
	q := NewQuiz(context.Background(), src, zap.NewNop())
	defer q.Dispose()
	require.NoError(t, q.Start(context.Background(), 3))
	require.NoError(t, q.Select(1, 10))
	require.NoError(t, q.Select(2, 21))
	_, err := q.Submit(context.Background())
	require.NoError(t, err)
	assert.Zero(t, src.issued)
}

type fakePermissions struct{ calls int }

func (f *fakePermissions) Mine(context.Context) ([]models.Permission, error) {
	f.calls++
	return []models.Permission{{Code: models.PermCaseCreate}, {Code: models.PermCaseView}}, nil
}

func TestPermissions_FetchedOncePerSession(t *testing.T) {
	store := session.NewStore(session.NewMemoryKV(), "t:", zap.NewNop())
	src := &fakePermissions{}

	p := NewPermissions(context.Background(), src, store, zap.NewNop())
	defer p.Dispose()
	assert.False(t, p.Can(models.PermCaseCreate))

	require.NoError(t, p.Ensure(context.Background()))
	require.NoError(t, p.Ensure(context.Background()))
	assert.Equal(t, 1, src.calls)
	assert.True(t, p.Can(models.PermCaseCreate))
	assert.False(t, p.Can("case_create"))
	assert.False(t, p.Can(models.PermCaseImport))

	// a second holder in the same session reads the cache
	p2 := NewPermissions(context.Background(), src, store, zap.NewNop())
	defer p2.Dispose()
	require.NoError(t, p2.Ensure(context.Background()))
	assert.Equal(t, 1, src.calls)
	assert.Equal(t, []string{models.PermCaseCreate, models.PermCaseView}, p2.Codes())

	// a new login drops the cache
	require.NoError(t, store.SaveLogin(context.Background(), models.LoginResponse{Token: "t"}))
	p3 := NewPermissions(context.Background(), src, store, zap.NewNop())
	defer p3.Dispose()
	require.NoError(t, p3.Ensure(context.Background()))
	assert.Equal(t, 2, src.calls)
}

type fakeMe struct{ user models.User }

func (f fakeMe) Me(context.Context) (models.User, error) { return f.user, nil }

func TestProfile_DerivesAgeGroup(t *testing.T) {
	birth := time.Date(2011, 6, 15, 0, 0, 0, 0, time.UTC)
	p := NewProfile(context.Background(), fakeMe{models.User{ID: 1, BirthDate: &birth}}, zap.NewNop())
	defer p.Dispose()
	p.now = func() time.Time { return time.Date(2025, 6, 14, 0, 0, 0, 0, time.UTC) }

	require.NoError(t, p.Refresh(context.Background()))
	assert.Equal(t, 13, p.State().Age)
	assert.Equal(t, models.AgeGroupChild, p.State().AgeGroup)

	p2 := NewProfile(context.Background(), fakeMe{models.User{ID: 2}}, zap.NewNop())
	defer p2.Dispose()
	require.NoError(t, p2.Refresh(context.Background()))
	assert.Equal(t, -1, p2.State().Age)
	assert.Equal(t, models.AgeGroupUnknown, p2.State().AgeGroup)
}

type fakeInbox struct{ marked []int }

func (f *fakeInbox) List(context.Context) ([]models.Notification, error) {
	return []models.Notification{{ID: 1}, {ID: 2, Read: true}, {ID: 3}}, nil
}

func (f *fakeInbox) MarkRead(_ context.Context, id int) error {
	f.marked = append(f.marked, id)
	return nil
}

func (f *fakeInbox) MarkAllRead(context.Context) error { return nil }

func TestNotifications_UnreadCount(t *testing.T) {
	src := &fakeInbox{}
	n := NewNotifications(context.Background(), src, zap.NewNop())
	defer n.Dispose()

	require.NoError(t, n.Refresh(context.Background()))
	assert.Equal(t, 2, n.State().Unread)

	n.Push(models.Notification{ID: 4, Type: models.EventNewCase})
	assert.Equal(t, 3, n.State().Unread)
	assert.Equal(t, 4, n.State().Items.Data[0].ID)

	require.NoError(t, n.MarkRead(context.Background(), 1))
	assert.Equal(t, []int{1}, src.marked)
	assert.Equal(t, 2, n.State().Unread)

	require.NoError(t, n.MarkAllRead(context.Background()))
	assert.Zero(t, n.State().Unread)
}

type fakeLogin struct{ err error }

func (f fakeLogin) Login(_ context.Context, req models.LoginRequest) (models.LoginResponse, error) {
	if f.err != nil {
		return models.LoginResponse{}, f.err
	}
	return models.LoginResponse{Token: "jwt", RefreshToken: "rt", User: models.User{ID: 5, Email: req.Email, RoleName: "Medico"}}, nil
}

func TestAuth_LoginPersistsSession(t *testing.T) {
	store := session.NewStore(session.NewMemoryKV(), "t:", zap.NewNop())
	a := NewAuth(context.Background(), fakeLogin{}, store, zap.NewNop())
	defer a.Dispose()

	_, err := a.Login(context.Background(), "no-es-correo", "")
	var verrs ValidationErrors
	require.True(t, errors.As(err, &verrs))
	assert.Len(t, verrs, 2)

	u, err := a.Login(context.Background(), " ana@example.org ", "x")
	require.NoError(t, err)
	assert.Equal(t, "ana@example.org", u.Email)
	assert.Equal(t, "jwt", store.AccessToken())
	role, err := store.Role(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Medico", role)

	require.NoError(t, a.Logout(context.Background()))
	assert.Equal(t, "", store.AccessToken())
	assert.Equal(t, state.Idle, a.State().User.Status)
}

func TestAuth_RejectedCredentials(t *testing.T) {
	store := session.NewStore(session.NewMemoryKV(), "t:", zap.NewNop())
	a := NewAuth(context.Background(), fakeLogin{err: &api.APIError{StatusCode: 400, Message: "Credenciales inválidas"}}, store, zap.NewNop())
	defer a.Dispose()

	_, err := a.Login(context.Background(), "ana@example.org", "mala")
	require.Error(t, err)
	assert.Equal(t, "Credenciales inválidas", a.State().User.Err)
	assert.Equal(t, "", store.AccessToken())
}

type fakeRunner struct {
	mapping importer.Mapping
}

func (f *fakeRunner) Run(_ context.Context, _ string, t *importer.Table, m importer.Mapping) (models.ImportResult, error) {
	f.mapping = m
	return models.ImportResult{Total: len(t.Rows), Succeeded: len(t.Rows)}, nil
}

func TestImportFlow_DetectAdjustSubmit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "casos.csv")
	require.NoError(t, os.WriteFile(path, []byte("Año;Edad;Columna X\n2024;30;Norte\n2024;12;Sur\n"), 0o600))

	runner := &fakeRunner{}
	f := NewImportFlow(context.Background(), runner, 1, zap.NewNop())
	defer f.Dispose()

	_, err := f.Submit(context.Background())
	assert.ErrorIs(t, err, ErrNoFile)

	require.NoError(t, f.Open(path))
	s := f.State()
	assert.Equal(t, "casos.csv", s.FileName)
	assert.Equal(t, importer.Mapping{importer.FieldYear: "Año", importer.FieldAge: "Edad"}, s.Mapping)
	assert.Len(t, s.Preview, 1)

	f.Override(importer.FieldNeighbor, "Columna X")
	res, err := f.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, res.Succeeded)
	assert.Equal(t, "Columna X", runner.mapping[importer.FieldNeighbor])

	assert.Error(t, f.Open(filepath.Join(t.TempDir(), "nope.pdf")))
	assert.NotEmpty(t, f.State().OpenErr)
}
