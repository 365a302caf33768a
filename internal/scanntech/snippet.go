package scanntech

import (
	"bytes"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const snippetLimit = 200

// Snippet resume o corpo de uma resposta de erro. Páginas HTML (gateways,
// proxies) viram texto puro.
func Snippet(body []byte, contentType string) string {
	text := string(body)
	if strings.Contains(strings.ToLower(contentType), "html") || looksLikeHTML(body) {
		if doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body)); err == nil {
			doc.Find("script, style").Remove()
			text = doc.Text()
		}
	}

	text = strings.Join(strings.Fields(text), " ")
	if r := []rune(text); len(r) > snippetLimit {
		text = string(r[:snippetLimit]) + "…"
	}
	return text
}

func looksLikeHTML(body []byte) bool {
	head := bytes.ToLower(bytes.TrimSpace(body))
	return bytes.HasPrefix(head, []byte("<!doctype html")) || bytes.HasPrefix(head, []byte("<html"))
}
