package webfetch

import (
	"bytes"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const (
	maxLinks       = 100
	maxLinkTextLen = 100
)

// extract turns a terminal response body into a Result per the extraction
// mode.
func extract(finalURL string, resp *http.Response, body []byte, mode ExtractMode, maxLength int) (*Result, error) {
	contentType := resp.Header.Get("Content-Type")

	switch mode {
	case ModeRaw:
		content := truncate(string(body), maxLength)
		return &Result{
			FinalURL:      finalURL,
			Content:       content,
			ContentLength: utf8.RuneCountInString(content),
			StatusCode:    resp.StatusCode,
			ContentType:   contentType,
		}, nil

	case ModeLinks:
		links, total, err := extractLinks(body)
		if err != nil {
			return nil, &TransportError{URL: finalURL, Err: err}
		}
		return &Result{
			FinalURL:   finalURL,
			Links:      links,
			LinkCount:  total,
			StatusCode: resp.StatusCode,
		}, nil

	default: // ModeText
		content := string(body)
		if looksLikeHTML(contentType, body) {
			text, err := htmlToText(body)
			if err != nil {
				return nil, &TransportError{URL: finalURL, Err: err}
			}
			content = text
		}
		content = truncate(content, maxLength)
		return &Result{
			FinalURL:      finalURL,
			Content:       content,
			ContentLength: utf8.RuneCountInString(content),
			StatusCode:    resp.StatusCode,
			ContentType:   contentType,
		}, nil
	}
}

func looksLikeHTML(contentType string, body []byte) bool {
	if strings.Contains(strings.ToLower(contentType), "html") {
		return true
	}
	return bytes.HasPrefix(bytes.TrimSpace(body), []byte("<"))
}

// extractLinks collects anchor (href, text) pairs, capped at maxLinks
// entries with link text truncated to maxLinkTextLen. The second return is
// the total number of anchors found before capping.
func extractLinks(body []byte) ([]Link, int, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, 0, err
	}

	var links []Link
	total := 0
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, ok := sel.Attr("href")
		if !ok {
			return
		}
		total++
		if len(links) >= maxLinks {
			return
		}
		links = append(links, Link{
			Href: href,
			Text: truncate(strings.TrimSpace(sel.Text()), maxLinkTextLen),
		})
	})
	return links, total, nil
}

// htmlToText strips script, style, nav, footer, and header elements and
// returns the remaining visible text joined with newlines.
func htmlToText(body []byte) (string, error) {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return "", err
	}

	var parts []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.DataAtom {
			case atom.Script, atom.Style, atom.Nav, atom.Footer, atom.Header:
				return
			}
		}
		if n.Type == html.TextNode {
			if t := strings.TrimSpace(n.Data); t != "" {
				parts = append(parts, t)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return strings.Join(parts, "\n"), nil
}

// truncate cuts s to at most n runes, mirroring character (not byte)
// truncation so multi-byte text is never split mid-rune.
func truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
