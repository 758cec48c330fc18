package dashboard

import (
	"errors"
	"fmt"
	"html/template"
	"log"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"postboard/models"
)

const pageSize = 10

// Server renders the dashboard pages. All data comes from the API client;
// the session cookie only carries the bearer token.
type Server struct {
	api      *Client
	sessions *SessionStore

	loginTmpl    *template.Template
	registerTmpl *template.Template
	postsTmpl    *template.Template
	postFormTmpl *template.Template
	profileTmpl  *template.Template
}

func funcMap() template.FuncMap {
	return template.FuncMap{
		"markdown": renderMarkdown,
		"timeAgo":  timeAgo,
	}
}

func mustParse(page string) *template.Template {
	tmpl, err := template.New("base").Funcs(funcMap()).ParseFiles(
		"templates/layouts/base.html",
		"templates/components/navigation.html",
		page,
	)
	if err != nil {
		log.Fatal("Failed to parse template:", err)
	}
	return tmpl
}

func NewServer(api *Client, sessions *SessionStore) *Server {
	return &Server{
		api:          api,
		sessions:     sessions,
		loginTmpl:    mustParse("templates/pages/login.html"),
		registerTmpl: mustParse("templates/pages/register.html"),
		postsTmpl:    mustParse("templates/pages/posts.html"),
		postFormTmpl: mustParse("templates/pages/post_form.html"),
		profileTmpl:  mustParse("templates/pages/profile.html"),
	}
}

// timeAgo renders a creation timestamp as "N minutes ago" style text.
func timeAgo(t time.Time) string {
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%d seconds ago", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%d minutes ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%d hours ago", int(d.Hours()))
	case d < 365*24*time.Hour:
		return fmt.Sprintf("%d days ago", int(d.Hours()/24))
	default:
		return fmt.Sprintf("%d years ago", int(d.Hours()/24/365))
	}
}

func (s *Server) render(w http.ResponseWriter, tmpl *template.Template, data any) {
	if err := tmpl.ExecuteTemplate(w, "base", data); err != nil {
		slog.Error("Error rendering template", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// handleAPIError redirects to login on an expired session, otherwise
// reports the API's message.
func (s *Server) handleAPIError(w http.ResponseWriter, r *http.Request, err error) {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized {
		s.sessions.Clear(w, r)
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	slog.Error("API request failed", "error", err)
	http.Error(w, err.Error(), http.StatusBadGateway)
}

// RequireSession redirects to the login page when no token is stored.
func (s *Server) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.sessions.Token(r) == "" {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type formPage struct {
	Error       string
	CurrentPage string
}

func (s *Server) LoginHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		s.render(w, s.loginTmpl, formPage{})
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	email := r.FormValue("email")
	password := r.FormValue("password")
	if email == "" || password == "" {
		s.render(w, s.loginTmpl, formPage{Error: "Email and password are required"})
		return
	}

	token, err := s.api.Login(r.Context(), email, password)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			s.render(w, s.loginTmpl, formPage{Error: apiErr.Detail})
			return
		}
		s.handleAPIError(w, r, err)
		return
	}

	if err := s.sessions.SetToken(w, r, token); err != nil {
		slog.Error("Failed to save session", "error", err)
		http.Error(w, "Failed to create session", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/posts", http.StatusSeeOther)
}

func (s *Server) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		s.render(w, s.registerTmpl, formPage{})
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	firstName := r.FormValue("first_name")
	lastName := r.FormValue("last_name")
	email := r.FormValue("email")
	password := r.FormValue("password")
	if firstName == "" || lastName == "" || email == "" || password == "" {
		s.render(w, s.registerTmpl, formPage{Error: "All fields are required"})
		return
	}

	if err := s.api.Register(r.Context(), firstName, lastName, email, password); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			s.render(w, s.registerTmpl, formPage{Error: apiErr.Detail})
			return
		}
		s.handleAPIError(w, r, err)
		return
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (s *Server) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	s.sessions.Clear(w, r)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

type postsPage struct {
	Error       string
	CurrentPage string
	Posts       []models.PostWithVotes
	Search      string
	Page        int
	NextPage    int
	PrevPage    int
	HasNext     bool
	Mine        bool
}

func (s *Server) postsPageHandler(w http.ResponseWriter, r *http.Request, mine bool) {
	token := s.sessions.Token(r)
	search := r.FormValue("search")
	page, _ := strconv.Atoi(r.FormValue("page"))
	if page < 1 {
		page = 1
	}

	var (
		posts []models.PostWithVotes
		err   error
	)
	if mine {
		posts, err = s.api.MyPosts(r.Context(), token, pageSize, (page-1)*pageSize, search)
	} else {
		posts, err = s.api.ListPosts(r.Context(), token, pageSize, (page-1)*pageSize, search)
	}
	if err != nil {
		s.handleAPIError(w, r, err)
		return
	}

	current := "/posts"
	if mine {
		current = "/posts/mine"
	}
	s.render(w, s.postsTmpl, postsPage{
		CurrentPage: current,
		Posts:       posts,
		Search:      search,
		Page:        page,
		NextPage:    page + 1,
		PrevPage:    page - 1,
		HasNext:     len(posts) == pageSize,
		Mine:        mine,
	})
}

func (s *Server) PostsHandler(w http.ResponseWriter, r *http.Request) {
	s.postsPageHandler(w, r, false)
}

func (s *Server) MyPostsHandler(w http.ResponseWriter, r *http.Request) {
	s.postsPageHandler(w, r, true)
}

type postFormPage struct {
	Error       string
	CurrentPage string
	Editing     bool
	Post        models.Post
}

func (s *Server) NewPostHandler(w http.ResponseWriter, r *http.Request) {
	token := s.sessions.Token(r)

	if r.Method == http.MethodGet {
		s.render(w, s.postFormTmpl, postFormPage{CurrentPage: "/posts/new", Post: models.Post{Published: true}})
		return
	}

	title := r.FormValue("title")
	content := r.FormValue("content")
	published := r.FormValue("published") == "on"
	if title == "" || content == "" {
		s.render(w, s.postFormTmpl, postFormPage{
			CurrentPage: "/posts/new",
			Error:       "Title and content are required",
			Post:        models.Post{Title: title, Content: content, Published: published},
		})
		return
	}

	if err := s.api.CreatePost(r.Context(), token, title, content, published); err != nil {
		s.handleAPIError(w, r, err)
		return
	}
	http.Redirect(w, r, "/posts/mine", http.StatusSeeOther)
}

func (s *Server) EditPostHandler(w http.ResponseWriter, r *http.Request) {
	token := s.sessions.Token(r)
	id, err := strconv.ParseInt(r.FormValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid post id", http.StatusBadRequest)
		return
	}

	if r.Method == http.MethodGet {
		post, err := s.api.GetPost(r.Context(), token, id)
		if err != nil {
			s.handleAPIError(w, r, err)
			return
		}
		s.render(w, s.postFormTmpl, postFormPage{CurrentPage: "/posts/mine", Editing: true, Post: post.Post})
		return
	}

	title := r.FormValue("title")
	content := r.FormValue("content")
	published := r.FormValue("published") == "on"
	if err := s.api.UpdatePost(r.Context(), token, id, title, content, published); err != nil {
		s.handleAPIError(w, r, err)
		return
	}
	http.Redirect(w, r, "/posts/mine", http.StatusSeeOther)
}

func (s *Server) DeletePostHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	token := s.sessions.Token(r)
	id, err := strconv.ParseInt(r.FormValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid post id", http.StatusBadRequest)
		return
	}
	if err := s.api.DeletePost(r.Context(), token, id); err != nil {
		s.handleAPIError(w, r, err)
		return
	}
	http.Redirect(w, r, "/posts/mine", http.StatusSeeOther)
}

// VoteHandler toggles the caller's vote and returns to the feed.
func (s *Server) VoteHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	token := s.sessions.Token(r)
	id, err := strconv.ParseInt(r.FormValue("post_id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid post id", http.StatusBadRequest)
		return
	}
	dir := r.FormValue("dir") == "1"

	if err := s.api.Vote(r.Context(), token, id, dir); err != nil {
		var apiErr *APIError
		// A stale page can double-cast or retract a missing vote; both
		// just mean the feed was out of date.
		if !(errors.As(err, &apiErr) && (apiErr.Status == http.StatusConflict || apiErr.Status == http.StatusNotFound)) {
			s.handleAPIError(w, r, err)
			return
		}
	}
	redirect := r.FormValue("return")
	if redirect == "" {
		redirect = "/posts"
	}
	http.Redirect(w, r, redirect, http.StatusSeeOther)
}

type profilePage struct {
	Error       string
	Message     string
	CurrentPage string
	User        models.User
}

func (s *Server) ProfileHandler(w http.ResponseWriter, r *http.Request) {
	token := s.sessions.Token(r)
	user, err := s.api.Profile(r.Context(), token)
	if err != nil {
		s.handleAPIError(w, r, err)
		return
	}

	if r.Method == http.MethodGet {
		s.render(w, s.profileTmpl, profilePage{CurrentPage: "/profile", User: *user})
		return
	}

	switch r.FormValue("action") {
	case "update":
		changes := map[string]any{
			"first_name": r.FormValue("first_name"),
			"last_name":  r.FormValue("last_name"),
		}
		if email := r.FormValue("email"); email != "" && email != user.Email {
			changes["email"] = email
		}
		updated, err := s.api.UpdateProfile(r.Context(), token, user.ID, changes)
		if err != nil {
			s.renderProfileError(w, r, *user, err)
			return
		}
		s.render(w, s.profileTmpl, profilePage{CurrentPage: "/profile", User: *updated, Message: "Profile updated"})

	case "password":
		changes := map[string]any{
			"password":         r.FormValue("new_password"),
			"current_password": r.FormValue("current_password"),
		}
		if _, err := s.api.UpdateProfile(r.Context(), token, user.ID, changes); err != nil {
			s.renderProfileError(w, r, *user, err)
			return
		}
		s.render(w, s.profileTmpl, profilePage{CurrentPage: "/profile", User: *user, Message: "Password updated"})

	case "delete":
		if err := s.api.DeleteAccount(r.Context(), token, user.ID, r.FormValue("password")); err != nil {
			s.renderProfileError(w, r, *user, err)
			return
		}
		s.sessions.Clear(w, r)
		http.Redirect(w, r, "/login", http.StatusSeeOther)

	default:
		http.Error(w, "Unknown action", http.StatusBadRequest)
	}
}

func (s *Server) renderProfileError(w http.ResponseWriter, r *http.Request, user models.User, err error) {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Status != http.StatusUnauthorized {
		s.render(w, s.profileTmpl, profilePage{CurrentPage: "/profile", User: user, Error: apiErr.Detail})
		return
	}
	s.handleAPIError(w, r, err)
}
