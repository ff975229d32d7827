package github

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielolaszy/triage/pkg/models"
)

// TestGitHubDomainToAPIURL tests the logic that converts a domain to an API URL
func TestGitHubDomainToAPIURL(t *testing.T) {
	testCases := []struct {
		name           string
		domain         string
		expectedAPIURL string
	}{
		{
			name:           "Default GitHub.com",
			domain:         "github.com",
			expectedAPIURL: "https://api.github.com/",
		},
		{
			name:           "GitHub Enterprise",
			domain:         "github.example.com",
			expectedAPIURL: "https://github.example.com/api/v3/",
		},
		{
			name:           "Empty Domain (should default to github.com)",
			domain:         "",
			expectedAPIURL: "https://api.github.com/",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			apiURL := APIURL(tc.domain)
			assert.Equal(t, tc.expectedAPIURL, apiURL)

			parsedURL, err := url.Parse(apiURL)
			require.NoError(t, err)
			assert.Equal(t, apiURL, parsedURL.String())

			client, err := NewClient(Config{Domain: tc.domain})
			require.NoError(t, err)
			assert.Equal(t, tc.expectedAPIURL, client.clientFor("").BaseURL.String())
		})
	}
}

func TestParseRepository(t *testing.T) {
	owner, repo, err := ParseRepository("octo/app")
	require.NoError(t, err)
	assert.Equal(t, "octo", owner)
	assert.Equal(t, "app", repo)

	for _, bad := range []string{"invalid-repo-format", "a/b/c", "/repo", "owner/"} {
		_, _, err := ParseRepository(bad)
		require.Error(t, err, bad)
		assert.Contains(t, err.Error(), "invalid repository format")
	}
}

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(Config{Token: "default-token", BaseURL: server.URL})
	require.NoError(t, err)
	return client
}

func TestFetchIssue(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/octo/app/issues/7", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer call-token", r.Header.Get("Authorization"))
		fmt.Fprint(w, `{
			"id": 1001,
			"number": 7,
			"title": "Add React component",
			"body": "Needs Tailwind",
			"state": "open",
			"labels": [{"name": "ui/ux"}, {"name": "frontend"}],
			"assignees": [{"login": "octocat"}],
			"created_at": "2026-01-02T03:04:05Z",
			"html_url": "https://github.com/octo/app/issues/7"
		}`)
	})
	client := newTestClient(t, mux)

	issue, err := client.FetchIssue(context.Background(), "octo", "app", 7, "call-token")
	require.NoError(t, err)
	assert.Equal(t, int64(1001), issue.ID)
	assert.Equal(t, 7, issue.Number)
	assert.Equal(t, "Add React component", issue.Title)
	assert.Equal(t, []string{"ui/ux", "frontend"}, issue.Labels)
	assert.Equal(t, []string{"octocat"}, issue.Assignees)
	assert.Equal(t, models.StateOpen, issue.State)
	assert.Equal(t, 2026, issue.CreatedAt.Year())
	assert.Equal(t, "https://github.com/octo/app/issues/7", issue.HTMLURL)
}

func TestFetchIssueNotFound(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/octo/app/issues/404", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"message": "Not Found"}`)
	})
	client := newTestClient(t, mux)

	issue, err := client.FetchIssue(context.Background(), "octo", "app", 404, "")
	assert.Nil(t, issue)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "octo/app#404")
}

func TestFetchOpenIssuesPaginatesAndSkipsPullRequests(t *testing.T) {
	var server *httptest.Server
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/octo/app/issues", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer default-token", r.Header.Get("Authorization"))
		assert.Equal(t, "open", r.URL.Query().Get("state"))
		assert.Equal(t, "bug,ui", r.URL.Query().Get("labels"))
		assert.Equal(t, "2", r.URL.Query().Get("per_page"))

		if r.URL.Query().Get("page") == "" {
			w.Header().Set("Link", fmt.Sprintf(`<%s/repos/octo/app/issues?page=2>; rel="next"`, server.URL))
			fmt.Fprint(w, `[{"number": 1, "title": "one"}, {"number": 2, "title": "pr", "pull_request": {"url": "x"}}]`)
			return
		}
		fmt.Fprint(w, `[{"number": 3, "title": "three"}]`)
	})
	server = httptest.NewServer(mux)
	t.Cleanup(server.Close)

	client, err := NewClient(Config{Token: "default-token", BaseURL: server.URL + "/"})
	require.NoError(t, err)

	issues, err := client.FetchOpenIssues(context.Background(), "octo", "app", "", models.IssueListOptions{
		Labels:  []string{"bug", "ui"},
		PerPage: 2,
	})
	require.NoError(t, err)
	require.Len(t, issues, 2)
	assert.Equal(t, 1, issues[0].Number)
	assert.Equal(t, 3, issues[1].Number)
}

func TestPostCommentAndAddLabels(t *testing.T) {
	var comment map[string]string
	var labels []string
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/octo/app/issues/7/comments", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &comment))
		w.WriteHeader(http.StatusCreated)
		fmt.Fprint(w, `{"id": 1}`)
	})
	mux.HandleFunc("/repos/octo/app/issues/7/labels", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &labels))
		fmt.Fprint(w, `[{"name": "agent:debugger"}]`)
	})
	client := newTestClient(t, mux)
	ctx := context.Background()

	require.NoError(t, client.PostComment(ctx, "octo", "app", 7, "hello", ""))
	assert.Equal(t, "hello", comment["body"])

	require.NoError(t, client.AddLabels(ctx, "octo", "app", 7, []string{"agent:debugger", "bug"}, ""))
	assert.Equal(t, []string{"agent:debugger", "bug"}, labels)
}

func TestPostCommentError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/octo/app/issues/7/comments", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, `{"message": "Resource not accessible by integration"}`)
	})
	client := newTestClient(t, mux)

	err := client.PostComment(context.Background(), "octo", "app", 7, "hello", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to comment on issue app#7")
}

func TestClientForCachesPerToken(t *testing.T) {
	client, err := NewClient(Config{Token: "default"})
	require.NoError(t, err)

	assert.Same(t, client.clientFor(""), client.clientFor("default"))
	assert.NotSame(t, client.clientFor("a"), client.clientFor("b"))
	assert.Same(t, client.clientFor("a"), client.clientFor("a"))
}

func TestVerify(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/user", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer default-token", r.Header.Get("Authorization"))
		fmt.Fprint(w, `{"login": "triage-bot"}`)
	})
	client := newTestClient(t, mux)

	login, err := client.Verify(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "triage-bot", login)
}
