// Package ingest turns research descriptions from files and web pages into
// plain text suitable for a classification prompt.
package ingest

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/JohannesKaufmann/html-to-markdown/plugin"
	"golang.org/x/net/html"
)

const (
	// DefaultMaxBytes caps how much of a page is read.
	DefaultMaxBytes = 2 << 20
	// DefaultMaxChars caps the description handed to the model.
	DefaultMaxChars = 8000

	userAgent = "atlas/1.0 (research classifier)"
)

var excessiveLines = regexp.MustCompile(`\n{3,}`)

// Profile is a fetched faculty or project page.
type Profile struct {
	URL      string
	Title    string
	Markdown string
}

// Description returns the title and body as one block of text, cut to maxChars runes.
func (p Profile) Description(maxChars int) string {
	text := p.Markdown
	if p.Title != "" && !strings.Contains(text, p.Title) {
		text = p.Title + "\n\n" + text
	}
	return truncate(text, maxChars)
}

// Fetcher downloads pages and converts them to markdown.
type Fetcher struct {
	client    *http.Client
	converter *md.Converter
	maxBytes  int64
}

// NewFetcher creates a fetcher. A nil client gets a 30 second timeout.
func NewFetcher(client *http.Client) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	converter := md.NewConverter("", true, nil)
	converter.Use(plugin.GitHubFlavored())
	return &Fetcher{client: client, converter: converter, maxBytes: DefaultMaxBytes}
}

// FetchProfile downloads url with a default fetcher.
func FetchProfile(ctx context.Context, url string) (Profile, error) {
	return NewFetcher(nil).Fetch(ctx, url)
}

// Fetch downloads a page and extracts its main content.
func (f *Fetcher) Fetch(ctx context.Context, url string) (Profile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Profile{}, fmt.Errorf("invalid profile url %q: %w", url, err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,text/plain;q=0.9")

	resp, err := f.client.Do(req)
	if err != nil {
		return Profile{}, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return Profile{}, fmt.Errorf("fetch %s: unexpected status %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes))
	if err != nil {
		return Profile{}, fmt.Errorf("read %s: %w", url, err)
	}

	if strings.HasPrefix(resp.Header.Get("Content-Type"), "text/plain") {
		return Profile{URL: url, Markdown: strings.TrimSpace(string(body))}, nil
	}

	profile, err := f.Convert(body)
	if err != nil {
		return Profile{}, fmt.Errorf("convert %s: %w", url, err)
	}
	profile.URL = url
	return profile, nil
}

// Convert extracts the title and main content of an HTML document as markdown.
func (f *Fetcher) Convert(content []byte) (Profile, error) {
	doc, err := html.Parse(strings.NewReader(string(content)))
	if err != nil {
		return Profile{}, err
	}

	title := textOf(findElement(doc, "title"))
	main := mainContent(doc)

	var sb strings.Builder
	if err := html.Render(&sb, main); err != nil {
		return Profile{}, err
	}

	markdown, err := f.converter.ConvertString(sb.String())
	if err != nil {
		return Profile{}, err
	}
	markdown = cleanMarkdown(markdown)

	if title == "" {
		title = markdownTitle(markdown)
	}
	return Profile{Title: title, Markdown: markdown}, nil
}

// mainContent returns the first main or article element, or the body with
// navigation and boilerplate removed.
func mainContent(doc *html.Node) *html.Node {
	for _, tag := range []string{"main", "article"} {
		if n := findElement(doc, tag); n != nil {
			return n
		}
	}
	if n := findByAttr(doc, "role", "main"); n != nil {
		return n
	}

	removeElements(doc, "nav", "header", "footer", "aside", "script", "style",
		"noscript", "iframe", "form", "button")
	if body := findElement(doc, "body"); body != nil {
		return body
	}
	return doc
}

func findElement(n *html.Node, tag string) *html.Node {
	if n == nil {
		return nil
	}
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, tag); found != nil {
			return found
		}
	}
	return nil
}

func findByAttr(n *html.Node, key, val string) *html.Node {
	if n.Type == html.ElementNode {
		for _, a := range n.Attr {
			if a.Key == key && a.Val == val {
				return n
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findByAttr(c, key, val); found != nil {
			return found
		}
	}
	return nil
}

func removeElements(n *html.Node, tags ...string) {
	drop := make(map[string]bool, len(tags))
	for _, t := range tags {
		drop[t] = true
	}

	var doomed []*html.Node
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.ElementNode && drop[node.Data] {
			doomed = append(doomed, node)
			return
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)

	for _, node := range doomed {
		if node.Parent != nil {
			node.Parent.RemoveChild(node)
		}
	}
}

func textOf(n *html.Node) string {
	if n == nil {
		return ""
	}
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.TextNode {
			sb.WriteString(node.Data)
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(sb.String()), " ")
}

func cleanMarkdown(content string) string {
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	content = strings.Join(lines, "\n")
	content = excessiveLines.ReplaceAllString(content, "\n\n")
	return strings.TrimSpace(content)
}

func markdownTitle(content string) string {
	for _, line := range strings.Split(content, "\n") {
		if trimmed := strings.TrimSpace(line); strings.HasPrefix(trimmed, "# ") {
			return strings.TrimSpace(trimmed[2:])
		}
	}
	return ""
}

func truncate(s string, maxChars int) string {
	if maxChars <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= maxChars {
		return s
	}
	return strings.TrimSpace(string(runes[:maxChars]))
}
