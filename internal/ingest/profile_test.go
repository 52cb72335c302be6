package ingest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const profilePage = `<!DOCTYPE html>
<html>
<head><title>Dr. Ada Byron | Department of Statistics</title><style>body{}</style></head>
<body>
<nav><a href="/">Home</a> <a href="/people">People</a></nav>
<main>
<h1>Ada Byron</h1>
<p>My research develops <strong>sequential Monte Carlo</strong> methods for state space models.</p>
<ul><li>Particle filters</li><li>Bayesian computation</li></ul>
</main>
<footer>Copyright University</footer>
</body>
</html>`

func TestFetcher_Fetch(t *testing.T) {
	var gotAgent string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAgent = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(profilePage))
	}))
	defer srv.Close()

	profile, err := NewFetcher(srv.Client()).Fetch(context.Background(), srv.URL+"/people/byron")
	require.NoError(t, err)

	assert.Equal(t, userAgent, gotAgent)
	assert.Equal(t, srv.URL+"/people/byron", profile.URL)
	assert.Equal(t, "Dr. Ada Byron | Department of Statistics", profile.Title)
	assert.Contains(t, profile.Markdown, "# Ada Byron")
	assert.Contains(t, profile.Markdown, "**sequential Monte Carlo**")
	assert.Contains(t, profile.Markdown, "Particle filters")
	assert.NotContains(t, profile.Markdown, "People")
	assert.NotContains(t, profile.Markdown, "Copyright")
}

func TestFetcher_PlainText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("  I study <b>graphs</b>.\n"))
	}))
	defer srv.Close()

	profile, err := NewFetcher(srv.Client()).Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "I study <b>graphs</b>.", profile.Markdown)
	assert.Empty(t, profile.Title)
}

func TestFetcher_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	f := NewFetcher(srv.Client())

	_, err := f.Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status 404")

	_, err = f.Fetch(context.Background(), "://bad")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid profile url")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = f.Fetch(ctx, srv.URL)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFetcher_Convert(t *testing.T) {
	f := NewFetcher(nil)

	tests := []struct {
		name      string
		html      string
		wantTitle string
		contains  []string
		excludes  []string
	}{
		{
			name:      "article element",
			html:      `<html><body><div class="menu">Menu</div><article><p>Topological data analysis</p></article></body></html>`,
			wantTitle: "",
			contains:  []string{"Topological data analysis"},
			excludes:  []string{"Menu"},
		},
		{
			name:      "role main",
			html:      `<html><body><header>Banner</header><div role="main"><p>Galois theory</p></div></body></html>`,
			contains:  []string{"Galois theory"},
			excludes:  []string{"Banner"},
		},
		{
			name:      "body fallback strips boilerplate",
			html:      `<html><body><nav>Links</nav><h1>Cell Biology Lab</h1><p>Mitosis</p><script>track()</script></body></html>`,
			wantTitle: "Cell Biology Lab",
			contains:  []string{"Mitosis"},
			excludes:  []string{"Links", "track()"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			profile, err := f.Convert([]byte(tt.html))
			require.NoError(t, err)
			assert.Equal(t, tt.wantTitle, profile.Title)
			for _, s := range tt.contains {
				assert.Contains(t, profile.Markdown, s)
			}
			for _, s := range tt.excludes {
				assert.NotContains(t, profile.Markdown, s)
			}
		})
	}
}

func TestProfile_Description(t *testing.T) {
	p := Profile{Title: "Lab page", Markdown: "We study ecology."}
	assert.Equal(t, "Lab page\n\nWe study ecology.", p.Description(0))

	p = Profile{Title: "Ecology", Markdown: "# Ecology\n\nWe study ecology."}
	assert.Equal(t, "# Ecology\n\nWe study ecology.", p.Description(0))

	long := Profile{Markdown: strings.Repeat("é", 20)}
	assert.Equal(t, strings.Repeat("é", 5), long.Description(5))
}

func TestCleanMarkdown(t *testing.T) {
	assert.Equal(t, "a\n\nb", cleanMarkdown("  \na   \n\n\n\n\nb\t\n"))
}

func TestReadFile(t *testing.T) {
	dir := t.TempDir()

	text := filepath.Join(dir, "abstract.txt")
	require.NoError(t, os.WriteFile(text, []byte("\n  Stochastic processes on graphs \n"), 0600))
	got, err := ReadFile(text)
	require.NoError(t, err)
	assert.Equal(t, "Stochastic processes on graphs", got)

	page := filepath.Join(dir, "profile.html")
	require.NoError(t, os.WriteFile(page, []byte(profilePage), 0600))
	got, err = ReadFile(page)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(got, "Dr. Ada Byron | Department of Statistics\n\n"))
	assert.Contains(t, got, "state space models")

	_, err = ReadFile(filepath.Join(dir, "missing.txt"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
