package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strings"
	"testing"
	"time"

	"postboard/auth"
	"postboard/middleware"
	"postboard/models"
	"postboard/services"

	"github.com/go-chi/chi/v5"
)

// In-memory stores backing the handler tests. They honor the same sentinel
// errors the SQL-backed services return.

type fakeUserStore struct {
	users  map[int64]*models.User
	nextID int64
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[int64]*models.User)}
}

func (s *fakeUserStore) Create(_ context.Context, firstName, lastName, email, passwordHash string) (*models.User, error) {
	for _, u := range s.users {
		if u.Email == email {
			return nil, services.ErrDuplicateEmail
		}
	}
	s.nextID++
	u := &models.User{
		ID:           s.nextID,
		Email:        email,
		FirstName:    firstName,
		LastName:     lastName,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now(),
	}
	s.users[u.ID] = u
	return u, nil
}

func (s *fakeUserStore) GetByID(_ context.Context, id int64) (*models.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, services.ErrNotFound
	}
	copied := *u
	return &copied, nil
}

func (s *fakeUserStore) GetByEmail(_ context.Context, email string) (*models.User, error) {
	for _, u := range s.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, services.ErrNotFound
}

func (s *fakeUserStore) List(_ context.Context) ([]models.User, error) {
	out := make([]models.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *fakeUserStore) Update(_ context.Context, id int64, changes services.UserChanges) (*models.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, services.ErrNotFound
	}
	if changes.Email != nil {
		for _, other := range s.users {
			if other.ID != id && other.Email == *changes.Email {
				return nil, services.ErrDuplicateEmail
			}
		}
		u.Email = *changes.Email
	}
	if changes.FirstName != nil {
		u.FirstName = *changes.FirstName
	}
	if changes.LastName != nil {
		u.LastName = *changes.LastName
	}
	if changes.PasswordHash != nil {
		u.PasswordHash = *changes.PasswordHash
	}
	copied := *u
	return &copied, nil
}

func (s *fakeUserStore) Delete(_ context.Context, id int64) error {
	if _, ok := s.users[id]; !ok {
		return services.ErrNotFound
	}
	delete(s.users, id)
	return nil
}

type fakePostStore struct {
	posts  map[int64]*models.Post
	owners *fakeUserStore
	votes  map[int64]map[int64]bool // postID -> voter set
	nextID int64
}

func newFakePostStore(owners *fakeUserStore) *fakePostStore {
	return &fakePostStore{
		posts:  make(map[int64]*models.Post),
		owners: owners,
		votes:  make(map[int64]map[int64]bool),
	}
}

func (s *fakePostStore) withVotes(p models.Post, viewerID int64) models.PostWithVotes {
	if owner, ok := s.owners.users[p.OwnerID]; ok {
		p.Owner = owner.Public()
	}
	return models.PostWithVotes{
		Post:      p,
		Votes:     len(s.votes[p.ID]),
		UserVoted: s.votes[p.ID][viewerID],
	}
}

func (s *fakePostStore) List(_ context.Context, viewerID int64, filter services.PostFilter) ([]models.PostWithVotes, error) {
	var matched []models.Post
	for _, p := range s.posts {
		if filter.OwnerOnly {
			if p.OwnerID != viewerID {
				continue
			}
		} else if !p.Published && p.OwnerID != viewerID {
			continue
		}
		if filter.Search != "" {
			needle := strings.ToLower(filter.Search)
			if !strings.Contains(strings.ToLower(p.Title), needle) &&
				!strings.Contains(strings.ToLower(p.Content), needle) {
				continue
			}
		}
		if filter.StartDate != nil && p.CreatedAt.Before(*filter.StartDate) {
			continue
		}
		if filter.EndDate != nil && p.CreatedAt.After(*filter.EndDate) {
			continue
		}
		matched = append(matched, *p)
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID > matched[j].ID
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	if filter.Skip < len(matched) {
		matched = matched[filter.Skip:]
	} else {
		matched = nil
	}
	if filter.Limit > 0 && len(matched) > filter.Limit {
		matched = matched[:filter.Limit]
	}

	out := make([]models.PostWithVotes, 0, len(matched))
	for _, p := range matched {
		out = append(out, s.withVotes(p, viewerID))
	}
	return out, nil
}

func (s *fakePostStore) Get(_ context.Context, viewerID, postID int64) (*models.PostWithVotes, error) {
	p, ok := s.posts[postID]
	if !ok || (!p.Published && p.OwnerID != viewerID) {
		return nil, services.ErrNotFound
	}
	row := s.withVotes(*p, viewerID)
	return &row, nil
}

func (s *fakePostStore) GetByID(_ context.Context, postID int64) (*models.Post, error) {
	p, ok := s.posts[postID]
	if !ok {
		return nil, services.ErrNotFound
	}
	copied := *p
	return &copied, nil
}

func (s *fakePostStore) Create(_ context.Context, ownerID int64, title, content string, published bool) (*models.Post, error) {
	s.nextID++
	p := &models.Post{
		ID:        s.nextID,
		Title:     title,
		Content:   content,
		Published: published,
		CreatedAt: time.Now(),
		OwnerID:   ownerID,
	}
	s.posts[p.ID] = p
	copied := *p
	return &copied, nil
}

func (s *fakePostStore) Update(_ context.Context, postID int64, changes services.PostChanges) (*models.Post, error) {
	p, ok := s.posts[postID]
	if !ok {
		return nil, services.ErrNotFound
	}
	if changes.Title != nil {
		p.Title = *changes.Title
	}
	if changes.Content != nil {
		p.Content = *changes.Content
	}
	if changes.Published != nil {
		p.Published = *changes.Published
	}
	copied := *p
	return &copied, nil
}

func (s *fakePostStore) Delete(_ context.Context, postID int64) error {
	if _, ok := s.posts[postID]; !ok {
		return services.ErrNotFound
	}
	delete(s.posts, postID)
	delete(s.votes, postID)
	return nil
}

type fakeVoteStore struct {
	posts *fakePostStore
}

func (s *fakeVoteStore) Cast(_ context.Context, vote models.Vote) error {
	if _, ok := s.posts.posts[vote.PostID]; !ok {
		return services.ErrNotFound
	}
	if s.posts.votes[vote.PostID][vote.UserID] {
		return services.ErrDuplicateVote
	}
	if s.posts.votes[vote.PostID] == nil {
		s.posts.votes[vote.PostID] = make(map[int64]bool)
	}
	s.posts.votes[vote.PostID][vote.UserID] = true
	return nil
}

func (s *fakeVoteStore) Retract(_ context.Context, vote models.Vote) error {
	if !s.posts.votes[vote.PostID][vote.UserID] {
		return services.ErrNotFound
	}
	delete(s.posts.votes[vote.PostID], vote.UserID)
	return nil
}

// testEnv wires the handlers into the same route tree the server uses,
// backed by the in-memory stores.
type testEnv struct {
	users  *fakeUserStore
	posts  *fakePostStore
	votes  *fakeVoteStore
	tokens *auth.Service
	router chi.Router
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	users := newFakeUserStore()
	posts := newFakePostStore(users)
	votes := &fakeVoteStore{posts: posts}
	tokens := auth.NewService("test-secret", 60)

	h := New(users, posts, votes, tokens)

	r := chi.NewRouter()
	r.Post("/login", h.Login)
	r.Post("/users", h.CreateUser)
	r.Get("/users", h.ListUsers)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(tokens, users))

		r.Get("/users/profile/me", h.GetMyProfile)
		r.Get("/users/{id}", h.GetUser)
		r.Patch("/users/{id}", h.UpdateUser)
		r.Put("/users/{id}", h.UpdateUser)
		r.Delete("/users/{id}", h.DeleteUser)

		r.Get("/posts", h.ListPosts)
		r.Get("/posts/me", h.ListMyPosts)
		r.Get("/posts/{id}", h.GetPost)
		r.Post("/posts", h.CreatePost)
		r.Patch("/posts/{id}", h.UpdatePost)
		r.Put("/posts/{id}", h.UpdatePost)
		r.Delete("/posts/{id}", h.DeletePost)

		r.Post("/vote", h.Vote)
	})

	return &testEnv{users: users, posts: posts, votes: votes, tokens: tokens, router: r}
}

func (e *testEnv) addUser(t *testing.T, email, password string) *models.User {
	t.Helper()
	hash, err := services.HashPassword(password)
	if err != nil {
		t.Fatalf("hashing password: %v", err)
	}
	u, err := e.users.Create(context.Background(), "Test", "User", email, hash)
	if err != nil {
		t.Fatalf("creating user: %v", err)
	}
	return u
}

func (e *testEnv) tokenFor(t *testing.T, u *models.User) string {
	t.Helper()
	token, err := e.tokens.Issue(u.Email)
	if err != nil {
		t.Fatalf("issuing token: %v", err)
	}
	return token
}

func (e *testEnv) request(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("encoding body: %v", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) postForm(t *testing.T, path string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decoding response %q: %v", rec.Body.String(), err)
	}
	return out
}

func detailOf(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	return decodeBody[map[string]string](t, rec)["detail"]
}
