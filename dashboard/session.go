package dashboard

import (
	"net/http"

	"postboard/config"

	"github.com/gorilla/sessions"
)

const sessionName = "postboard-session"

// SessionStore keeps the bearer token in a secure cookie between page
// loads. The dashboard never stores credentials, only the token.
type SessionStore struct {
	store *sessions.CookieStore
}

func NewSessionStore(cfg *config.Config) *SessionStore {
	store := sessions.NewCookieStore([]byte(cfg.SessionSecret))

	secure := cfg.Environment == "production"
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   3600, // matches the token TTL order of magnitude
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return &SessionStore{store: store}
}

// Token returns the stored bearer token, or "" when not logged in.
func (s *SessionStore) Token(r *http.Request) string {
	session, err := s.store.Get(r, sessionName)
	if err != nil {
		return ""
	}
	token, _ := session.Values["access_token"].(string)
	return token
}

func (s *SessionStore) SetToken(w http.ResponseWriter, r *http.Request, token string) error {
	session, err := s.store.Get(r, sessionName)
	if err != nil {
		session, _ = s.store.New(r, sessionName)
	}
	session.Values["access_token"] = token
	return session.Save(r, w)
}

func (s *SessionStore) Clear(w http.ResponseWriter, r *http.Request) {
	session, err := s.store.Get(r, sessionName)
	if err != nil {
		return
	}
	session.Values = make(map[interface{}]interface{})
	session.Options.MaxAge = -1
	_ = session.Save(r, w)
}
