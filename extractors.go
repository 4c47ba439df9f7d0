package main

import (
	"bytes"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/pkg/errors"
)

const (
	pluginElementName   = "pai-plugin"
	attrRestServerURI   = "pai-rest-server-uri"
	attrUser            = "pai-user"
	attrRestServerToken = "pai-rest-server-token"

	maxErrorMessageLen = 200
)

// PluginAttributes are the attributes a host page sets on a plugin element
type PluginAttributes struct {
	RestServerURI string
	User          string
	Token         string
}

// extractPluginElements finds every plugin element in the host markup, in
// document order
func extractPluginElements(r io.Reader) ([]PluginAttributes, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, errors.Wrap(err, "parse host markup")
	}

	var elements []PluginAttributes
	doc.Find(pluginElementName).Each(func(i int, s *goquery.Selection) {
		// missing attributes read as empty strings, like getAttribute on an
		// element the host forgot to fill in
		elements = append(elements, PluginAttributes{
			RestServerURI: strings.TrimSpace(s.AttrOr(attrRestServerURI, "")),
			User:          strings.TrimSpace(s.AttrOr(attrUser, "")),
			Token:         strings.TrimSpace(s.AttrOr(attrRestServerToken, "")),
		})
	})
	return elements, nil
}

// extractHTMLMessage pulls a readable message out of an error page: the
// title, else the first heading, else the visible text
func extractHTMLMessage(data []byte) string {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return ""
	}
	if !bytes.HasPrefix(trimmed, []byte("<")) {
		return truncateMessage(collapseSpaces(string(trimmed)))
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(trimmed))
	if err != nil {
		return ""
	}
	doc.Find("script, style, meta, link, noscript").Remove()

	if title := collapseSpaces(doc.Find("title").First().Text()); title != "" {
		return truncateMessage(title)
	}
	if heading := collapseSpaces(doc.Find("h1, h2, h3").First().Text()); heading != "" {
		return truncateMessage(heading)
	}
	return truncateMessage(collapseSpaces(doc.Find("body").Text()))
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncateMessage(s string) string {
	if len(s) > maxErrorMessageLen {
		return s[:maxErrorMessageLen-3] + "..."
	}
	return s
}
