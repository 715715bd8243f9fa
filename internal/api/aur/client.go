package aur

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"slices"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/oshokin/aur-autoupdater/internal/logger"
	"github.com/oshokin/aur-autoupdater/internal/service/common"
)

// maxPageBytes bounds the search page read into memory (5 MB).
const maxPageBytes = 5 << 20

// Client lists packages through the AUR search page.
type Client struct {
	http    *common.Client
	baseURL string
}

// NewClient creates a Client for the AUR instance at baseURL.
func NewClient(client *common.Client, baseURL string) *Client {
	return &Client{
		http:    client,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// SearchURL is the page listing the packages maintained by username.
func (c *Client) SearchURL(username string) string {
	query := url.Values{
		"K":   {username},
		"SeB": {"m"},
	}

	return c.baseURL + "/packages/?" + query.Encode()
}

// ListUserPackages returns the names of the packages maintained by username.
func (c *Client) ListUserPackages(ctx context.Context, username string) ([]string, error) {
	pageURL := c.SearchURL(username)

	logger.DebugKV(ctx, "Loading user page", "url", pageURL)

	resp, err := c.http.Get(ctx, pageURL, common.WithHeader("Accept", "text/html"))
	if err != nil {
		return nil, fmt.Errorf("load user page: %w", err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	names, err := ParsePackages(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return nil, fmt.Errorf("parse user page: %w", err)
	}

	return names, nil
}

// ParsePackages extracts the link text of the first cell of every row in
// the ".results" table.
func ParsePackages(r io.Reader) ([]string, error) {
	document, err := html.Parse(r)
	if err != nil {
		return nil, err
	}

	var names []string

	walk(document, func(n *html.Node) bool {
		if !hasClass(n, "results") {
			return true
		}

		walk(n, func(cell *html.Node) bool {
			if cell.DataAtom != atom.Td || !isFirstElement(cell) {
				return true
			}

			walk(cell, func(link *html.Node) bool {
				if link.DataAtom == atom.A {
					names = append(names, strings.TrimSpace(text(link)))
				}

				return true
			})

			return false
		})

		return false
	})

	return names, nil
}

// walk calls visit for n and its descendants in document order. Children are
// skipped when visit returns false.
func walk(n *html.Node, visit func(*html.Node) bool) {
	if n.Type == html.ElementNode && !visit(n) {
		return
	}

	for child := n.FirstChild; child != nil; child = child.NextSibling {
		walk(child, visit)
	}
}

func hasClass(n *html.Node, class string) bool {
	for _, attr := range n.Attr {
		if attr.Key == "class" && slices.Contains(strings.Fields(attr.Val), class) {
			return true
		}
	}

	return false
}

// isFirstElement reports whether n is the first element child of its parent.
func isFirstElement(n *html.Node) bool {
	for sibling := n.PrevSibling; sibling != nil; sibling = sibling.PrevSibling {
		if sibling.Type == html.ElementNode {
			return false
		}
	}

	return true
}

func text(n *html.Node) string {
	var b strings.Builder

	var collect func(*html.Node)

	collect = func(node *html.Node) {
		if node.Type == html.TextNode {
			b.WriteString(node.Data)
		}

		for child := node.FirstChild; child != nil; child = child.NextSibling {
			collect(child)
		}
	}

	collect(n)

	return b.String()
}
