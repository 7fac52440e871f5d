package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/kevinaaaquil/ontimenews/backend/models"
	"github.com/kevinaaaquil/ontimenews/backend/service"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// memStore is an in-memory stand-in for the Mongo store.
type memStore struct {
	mu         sync.Mutex
	users      []models.User
	articles   []models.Article
	publishers []models.Publisher
	notices    []models.NotificationLog
	// err, when set, is returned by every call.
	err error
}

func (m *memStore) UserByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	for i := range m.users {
		if strings.EqualFold(m.users[i].Email, email) {
			u := m.users[i]
			return &u, nil
		}
	}
	return nil, nil
}

func (m *memStore) UserByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	for i := range m.users {
		if m.users[i].ID == id {
			u := m.users[i]
			return &u, nil
		}
	}
	return nil, nil
}

func (m *memStore) ListUsers(context.Context) ([]models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return append([]models.User(nil), m.users...), nil
}

func (m *memStore) RegisterUser(_ context.Context, user *models.User) (*primitive.ObjectID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	for _, u := range m.users {
		if strings.EqualFold(u.Email, user.Email) {
			return nil, nil
		}
	}
	u := *user
	u.ID = primitive.NewObjectID()
	u.Email = strings.ToLower(u.Email)
	u.Role = models.RoleUser
	u.CreatedAt = time.Now()
	m.users = append(m.users, u)
	return &u.ID, nil
}

func (m *memStore) PromoteUser(_ context.Context, id primitive.ObjectID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return false, m.err
	}
	for i := range m.users {
		if m.users[i].ID == id {
			m.users[i].Role = models.RoleAdmin
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) InsertArticle(_ context.Context, article *models.Article) (primitive.ObjectID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return primitive.NilObjectID, m.err
	}
	article.ID = primitive.NewObjectID()
	article.Status = models.StatusPending
	article.CreatedAt = time.Now()
	m.articles = append(m.articles, *article)
	return article.ID, nil
}

func (m *memStore) filter(keep func(*models.Article) bool) []models.Article {
	var out []models.Article
	for i := range m.articles {
		if keep(&m.articles[i]) {
			out = append(out, m.articles[i])
		}
	}
	return out
}

func (m *memStore) ListArticles(_ context.Context, f models.ArticleFilter) ([]models.Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return m.filter(f.Matches), nil
}

func (m *memStore) find(id primitive.ObjectID) *models.Article {
	for i := range m.articles {
		if m.articles[i].ID == id {
			return &m.articles[i]
		}
	}
	return nil
}

func (m *memStore) ArticleByID(_ context.Context, id primitive.ObjectID) (*models.Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	a := m.find(id)
	if a == nil {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (m *memStore) ArticlesByAuthor(_ context.Context, email string) ([]models.Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return m.filter(func(a *models.Article) bool { return a.AuthoredBy(email) }), nil
}

func (m *memStore) SearchArticles(_ context.Context, term string) ([]models.Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	term = strings.ToLower(term)
	return m.filter(func(a *models.Article) bool {
		return strings.Contains(strings.ToLower(a.Title), term)
	}), nil
}

func (m *memStore) TopViewedArticles(_ context.Context, limit int64) ([]models.Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	out := append([]models.Article(nil), m.articles...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].ViewCount > out[j].ViewCount })
	if int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memStore) UpdateArticle(_ context.Context, id primitive.ObjectID, upd models.ArticleUpdate) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return false, m.err
	}
	a := m.find(id)
	if a == nil {
		return false, nil
	}
	if upd.Title != nil {
		a.Title = *upd.Title
	}
	if upd.Publisher != nil {
		a.Publisher = *upd.Publisher
	}
	if upd.Tags != nil {
		a.Tags = *upd.Tags
	}
	if upd.Description != nil {
		a.Description = *upd.Description
	}
	if upd.Image != nil {
		a.Image = *upd.Image
	}
	if upd.Email != nil {
		a.Email = *upd.Email
	}
	if upd.Photo != nil {
		a.Photo = *upd.Photo
	}
	if upd.DisplayName != nil {
		a.DisplayName = *upd.DisplayName
	}
	if upd.ViewCount != nil {
		a.ViewCount = *upd.ViewCount
	}
	return true, nil
}

func (m *memStore) TransitionArticle(_ context.Context, id primitive.ObjectID, t models.Transition) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return false, m.err
	}
	a := m.find(id)
	if a == nil {
		return false, nil
	}
	if err := a.Apply(t); err != nil {
		if errors.Is(err, models.ErrInvalidTransition) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (m *memStore) IncrementViewCount(_ context.Context, id primitive.ObjectID) (*models.Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	a := m.find(id)
	if a == nil {
		return nil, nil
	}
	a.ViewCount++
	cp := *a
	return &cp, nil
}

func (m *memStore) DeleteArticle(_ context.Context, id primitive.ObjectID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return 0, m.err
	}
	for i := range m.articles {
		if m.articles[i].ID == id {
			m.articles = append(m.articles[:i], m.articles[i+1:]...)
			return 1, nil
		}
	}
	return 0, nil
}

func (m *memStore) InsertPublisher(_ context.Context, p *models.Publisher) (primitive.ObjectID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return primitive.NilObjectID, m.err
	}
	p.ID = primitive.NewObjectID()
	m.publishers = append(m.publishers, *p)
	return p.ID, nil
}

func (m *memStore) ListPublishers(context.Context) ([]models.Publisher, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return append([]models.Publisher(nil), m.publishers...), nil
}

func (m *memStore) InsertNotificationLog(_ context.Context, entry *models.NotificationLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	entry.ID = primitive.NewObjectID()
	entry.SentAt = time.Now()
	m.notices = append(m.notices, *entry)
	return nil
}

func (m *memStore) NotificationLogsForArticle(_ context.Context, articleID primitive.ObjectID) ([]models.NotificationLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	var out []models.NotificationLog
	for _, n := range m.notices {
		if n.ArticleID == articleID {
			out = append(out, n)
		}
	}
	return out, nil
}

func (m *memStore) addUser(email, role string) models.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := models.User{ID: primitive.NewObjectID(), Email: email, Role: role}
	m.users = append(m.users, u)
	return u
}

func (m *memStore) addArticle(a models.Article) primitive.ObjectID {
	m.mu.Lock()
	defer m.mu.Unlock()
	a.ID = primitive.NewObjectID()
	if a.Status == "" {
		a.Status = models.StatusPending
	}
	m.articles = append(m.articles, a)
	return a.ID
}

type fakeNotifier struct {
	declined []models.Article
	err      error
}

func (f *fakeNotifier) NotifyDeclined(_ context.Context, a *models.Article) error {
	f.declined = append(f.declined, *a)
	return f.err
}

type fakeGateway struct {
	cents    int64
	currency string
	err      error
}

func (f *fakeGateway) CreatePaymentIntent(_ context.Context, cents int64, currency string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.cents, f.currency = cents, currency
	return "pi_test_secret_123", nil
}

type fakeObject struct {
	data        []byte
	contentType string
}

type fakeImages struct {
	objects map[string]fakeObject
	keys    []string
	types   []string
	deleted []string
	getErr  error
}

func (f *fakeImages) UploadImage(_ context.Context, body io.Reader, contentType string) (string, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	ext, _ := service.ImageExtension(contentType)
	key := service.ImageKey(ext)
	if f.objects == nil {
		f.objects = map[string]fakeObject{}
	}
	f.objects[key] = fakeObject{data: data, contentType: contentType}
	f.keys = append(f.keys, key)
	f.types = append(f.types, contentType)
	return key, nil
}

func (f *fakeImages) GetObject(_ context.Context, key string) (io.ReadCloser, string, error) {
	if f.getErr != nil {
		return nil, "", f.getErr
	}
	obj, ok := f.objects[key]
	if !ok {
		return nil, "", service.ErrImageNotFound
	}
	return io.NopCloser(bytes.NewReader(obj.data)), obj.contentType, nil
}

func (f *fakeImages) Delete(_ context.Context, key string) error {
	delete(f.objects, key)
	f.deleted = append(f.deleted, key)
	return nil
}

const testPublicURL = "https://api.ontime.test"

const (
	adminEmail  = "admin@ontime.test"
	readerEmail = "reader@ontime.test"
	writerEmail = "writer@ontime.test"
)

type harness struct {
	store    *memStore
	tokens   *service.TokenService
	notifier *fakeNotifier
	gateway  *fakeGateway
	images   *fakeImages
	router   http.Handler
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		store:    &memStore{},
		tokens:   service.NewTokenService("handler-test-secret"),
		notifier: &fakeNotifier{},
		gateway:  &fakeGateway{},
		images:   &fakeImages{},
	}
	h.store.addUser(adminEmail, models.RoleAdmin)
	h.store.addUser(readerEmail, models.RoleUser)
	h.store.addUser(writerEmail, models.RoleUser)
	h.router = NewRouter(Deps{
		Users:          h.store,
		Articles:       h.store,
		Publishers:     h.store,
		Notifications:  h.store,
		Tokens:         h.tokens,
		Payments:       &service.Payments{Gateway: h.gateway, Currency: "usd"},
		Images:         h.images,
		Notifier:       h.notifier,
		MaxUploadBytes: 1 << 20,
		PublicURL:      testPublicURL,
		AllowedOrigins: []string{"http://localhost:5173"},
		Log:            zerolog.Nop(),
	})
	return h
}

// do sends a request as email, or anonymously when email is empty. A string
// body is sent as-is; anything else is JSON encoded.
func (h *harness) do(t *testing.T, method, path string, body any, email string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		r = strings.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if email != "" {
		tok, err := h.tokens.Issue(map[string]any{"email": email})
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}
