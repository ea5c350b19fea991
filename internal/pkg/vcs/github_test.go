package vcs

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupGithubClient(t *testing.T, handler http.Handler) (*GithubClient, *httptest.Server) {
	t.Helper()

	server := httptest.NewServer(handler)
	client, err := NewGithubClient(server.URL, 2*time.Second, 2*time.Second)
	require.NoError(t, err)
	return client, server
}

var githubRef = RepoRef{Platform: PlatformGithub, Owner: "octo", Name: "repo"}

func TestGithubClient_RepoMeta(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/octo/repo", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		fmt.Fprint(w, `{"id":1,"name":"repo","created_at":"2024-01-02T03:04:05Z","pushed_at":"2024-05-06T07:08:09Z"}`)
	})
	mux.HandleFunc("/repos/octo/repo/contributors", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"login":"a"},{"login":"b"},{"login":"c"}]`)
	})
	client, server := setupGithubClient(t, mux)
	defer server.Close()

	meta, err := client.RepoMeta(context.Background(), githubRef, "secret")
	require.NoError(t, err)
	assert.Equal(t, 2024, meta.CreatedAt.Year())
	assert.Equal(t, time.May, meta.UpdatedAt.Month())
	assert.Equal(t, 3, meta.MemberCount)
}

func TestGithubClient_RepoMeta_Errors(t *testing.T) {
	tests := []struct {
		status int
		check  func(t *testing.T, err error)
	}{
		{http.StatusUnauthorized, func(t *testing.T, err error) { assert.ErrorIs(t, err, ErrUnauthorized) }},
		{http.StatusNotFound, func(t *testing.T, err error) { assert.ErrorIs(t, err, ErrNotFound) }},
		{http.StatusInternalServerError, func(t *testing.T, err error) { assert.True(t, IsRetryable(err)) }},
		{http.StatusUnprocessableEntity, func(t *testing.T, err error) {
			assert.Error(t, err)
			assert.False(t, IsRetryable(err))
		}},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			client, server := setupGithubClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				fmt.Fprint(w, `{"message":"nope"}`)
			}))
			defer server.Close()

			_, err := client.RepoMeta(context.Background(), githubRef, "")
			tt.check(t, err)
		})
	}
}

func TestGithubClient_Commits_Pagination(t *testing.T) {
	var pages []string
	client, server := setupGithubClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/octo/repo/commits", r.URL.Path)
		assert.Equal(t, "100", r.URL.Query().Get("per_page"))
		page := r.URL.Query().Get("page")
		pages = append(pages, page)
		switch page {
		case "1":
			fmt.Fprint(w, `[{"sha":"a1","commit":{"author":{"name":"A","email":"a@x.com"}}},{"sha":"a2","commit":{"author":{"name":"B","email":"b@x.com"}}}]`)
		case "2":
			fmt.Fprint(w, `[{"sha":"a3","commit":{"author":{"name":"A","email":"a@x.com"}}}]`)
		default:
			fmt.Fprint(w, `[]`)
		}
	}))
	defer server.Close()

	var shas []string
	for c, err := range client.Commits(context.Background(), githubRef, "") {
		require.NoError(t, err)
		shas = append(shas, c.SHA)
	}
	assert.Equal(t, []string{"a1", "a2", "a3"}, shas)
	assert.Equal(t, []string{"1", "2", "3"}, pages)
}

func TestGithubClient_Commits_EarlyStop(t *testing.T) {
	calls := 0
	client, server := setupGithubClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		fmt.Fprint(w, `[{"sha":"a1"},{"sha":"a2"}]`)
	}))
	defer server.Close()

	for range client.Commits(context.Background(), githubRef, "") {
		break
	}
	assert.Equal(t, 1, calls)
}

func TestGithubClient_Commits_EmptyRepository(t *testing.T) {
	client, server := setupGithubClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		fmt.Fprint(w, `{"message":"Git Repository is empty."}`)
	}))
	defer server.Close()

	count := 0
	for _, err := range client.Commits(context.Background(), githubRef, "") {
		require.NoError(t, err)
		count++
	}
	assert.Zero(t, count)
}

func TestGithubClient_CommitFiles(t *testing.T) {
	client, server := setupGithubClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/octo/repo/commits/abc", r.URL.Path)
		fmt.Fprint(w, `{"sha":"abc","files":[{"filename":"a.py","additions":5},{"filename":"b.go","additions":3}]}`)
	}))
	defer server.Close()

	files, err := client.CommitFiles(context.Background(), githubRef, "abc", "")
	require.NoError(t, err)
	assert.Equal(t, []FileChange{{Path: "a.py", Additions: 5}, {Path: "b.go", Additions: 3}}, files)
}

func TestGithubClient_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	defer server.Close()

	client, err := NewGithubClient(server.URL, 50*time.Millisecond, 50*time.Millisecond)
	require.NoError(t, err)

	_, err = client.CommitFiles(context.Background(), githubRef, "abc", "")
	require.Error(t, err)
	assert.True(t, IsRetryable(err))
}
