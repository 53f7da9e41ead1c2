package lecture

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
)

// skipElements はテキスト抽出で中身ごと読み飛ばす要素。
var skipElements = map[string]bool{
	"script": true,
	"style":  true,
	"head":   true,
}

// PlainSummary は講義の説明文（HTML断片の場合がある）から
// プレーンテキストの要約を組み立てる。タグを除去し、空白を正規化し、
// maxRunesを超える場合は省略記号つきで切り詰める。
// パースできない入力は素のテキストとして扱う。
func PlainSummary(description string, maxRunes int) string {
	if description == "" {
		return ""
	}

	doc, err := html.Parse(strings.NewReader(description))
	if err != nil {
		return truncate(normalizeSpace(description), maxRunes)
	}

	var sb strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && skipElements[n.Data] {
			return
		}
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
			sb.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return truncate(normalizeSpace(sb.String()), maxRunes)
}

// normalizeSpace は連続する空白文字を1つのスペースにまとめる。
func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// truncate は文字数（rune数）でsを切り詰める。maxRunesが0以下の場合は
// 切り詰めない。
func truncate(s string, maxRunes int) string {
	if maxRunes <= 0 || utf8.RuneCountInString(s) <= maxRunes {
		return s
	}
	runes := []rune(s)
	return string(runes[:maxRunes]) + "…"
}
