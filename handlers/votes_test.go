package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"postboard/models"
)

func TestVoteCastAndRetract(t *testing.T) {
	env := newTestEnv(t)
	alice := env.addUser(t, "alice@example.com", "Str0ng-pass!")
	bob := env.addUser(t, "bob@example.com", "Str0ng-pass!")
	token := env.tokenFor(t, alice)
	post := seedPost(t, env, bob.ID, "votable", true)

	rec := env.request(t, http.MethodPost, "/vote", token,
		map[string]any{"post_id": post.ID, "dir": true})
	if rec.Code != http.StatusCreated {
		t.Fatalf("cast: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	// The vote shows up in the feed aggregate.
	listRec := env.request(t, http.MethodGet, fmt.Sprintf("/posts/%d", post.ID), token, nil)
	row := decodeBody[models.PostWithVotes](t, listRec)
	if row.Votes != 1 || !row.UserVoted {
		t.Errorf("expected votes=1 user_voted=true, got %+v", row)
	}

	rec = env.request(t, http.MethodPost, "/vote", token,
		map[string]any{"post_id": post.ID, "dir": false})
	if rec.Code != http.StatusCreated {
		t.Fatalf("retract: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	listRec = env.request(t, http.MethodGet, fmt.Sprintf("/posts/%d", post.ID), token, nil)
	row = decodeBody[models.PostWithVotes](t, listRec)
	if row.Votes != 0 || row.UserVoted {
		t.Errorf("expected votes=0 user_voted=false, got %+v", row)
	}
}

func TestVoteDuplicate(t *testing.T) {
	env := newTestEnv(t)
	alice := env.addUser(t, "alice@example.com", "Str0ng-pass!")
	token := env.tokenFor(t, alice)
	post := seedPost(t, env, alice.ID, "votable", true)

	body := map[string]any{"post_id": post.ID, "dir": true}
	if rec := env.request(t, http.MethodPost, "/vote", token, body); rec.Code != http.StatusCreated {
		t.Fatalf("first vote: expected 201, got %d", rec.Code)
	}

	rec := env.request(t, http.MethodPost, "/vote", token, body)
	if rec.Code != http.StatusConflict {
		t.Fatalf("second vote: expected 409, got %d", rec.Code)
	}
	if detail := detailOf(t, rec); !strings.Contains(detail, "already voted") {
		t.Errorf("unexpected detail %q", detail)
	}
}

func TestVoteMissingPost(t *testing.T) {
	env := newTestEnv(t)
	alice := env.addUser(t, "alice@example.com", "Str0ng-pass!")
	token := env.tokenFor(t, alice)

	rec := env.request(t, http.MethodPost, "/vote", token,
		map[string]any{"post_id": 9999, "dir": true})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestRetractMissingVote(t *testing.T) {
	env := newTestEnv(t)
	alice := env.addUser(t, "alice@example.com", "Str0ng-pass!")
	token := env.tokenFor(t, alice)
	post := seedPost(t, env, alice.ID, "never voted", true)

	rec := env.request(t, http.MethodPost, "/vote", token,
		map[string]any{"post_id": post.ID, "dir": false})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if detail := detailOf(t, rec); !strings.Contains(detail, "not voted") {
		t.Errorf("unexpected detail %q", detail)
	}
}

func TestVoteNumericDir(t *testing.T) {
	env := newTestEnv(t)
	alice := env.addUser(t, "alice@example.com", "Str0ng-pass!")
	token := env.tokenFor(t, alice)
	post := seedPost(t, env, alice.ID, "numeric dir", true)

	// dir: 1 casts, dir: 0 retracts, same as the boolean forms.
	rec := env.request(t, http.MethodPost, "/vote", token,
		map[string]any{"post_id": post.ID, "dir": json.RawMessage("1")})
	if rec.Code != http.StatusCreated {
		t.Fatalf("dir=1: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = env.request(t, http.MethodPost, "/vote", token,
		map[string]any{"post_id": post.ID, "dir": json.RawMessage("0")})
	if rec.Code != http.StatusCreated {
		t.Fatalf("dir=0: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestVoteValidation(t *testing.T) {
	env := newTestEnv(t)
	alice := env.addUser(t, "alice@example.com", "Str0ng-pass!")
	token := env.tokenFor(t, alice)
	post := seedPost(t, env, alice.ID, "votable", true)

	for name, body := range map[string]map[string]any{
		"missing post_id": {"dir": true},
		"missing dir":     {"post_id": post.ID},
		"bad dir":         {"post_id": post.ID, "dir": "sideways"},
		"dir 2":           {"post_id": post.ID, "dir": json.RawMessage("2")},
	} {
		rec := env.request(t, http.MethodPost, "/vote", token, body)
		if rec.Code != http.StatusUnprocessableEntity {
			t.Errorf("%s: expected 422, got %d", name, rec.Code)
		}
	}
}
