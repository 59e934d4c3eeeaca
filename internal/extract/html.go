package extract

import (
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// EventTimes reads the event start and end clock strings from the detail
// panel's definition list. The fragment holds dt/dd pairs in fixed order:
//
//	Reserved Start, Event Start, Event End, Reserved End, ...
//
// The booking app wraps each value in empty comments (<!---->10:00 AM<!---->);
// the tokenizer drops comment tokens, so each value arrives as its own text
// token.
func EventTimes(fragment string) (start, end string, err error) {
	texts, err := textTokens(fragment)
	if err != nil {
		return "", "", newError("event times", "tokenize: "+err.Error(), fragment)
	}

	iStart := indexContaining(texts, MarkerEventStart, 0)
	if iStart < 0 {
		return "", "", newError("event times", "missing "+MarkerEventStart+" marker", fragment)
	}
	iEnd := indexContaining(texts, MarkerEventEnd, iStart+1)
	if iEnd < 0 {
		return "", "", newError("event times", "missing "+MarkerEventEnd+" marker", fragment)
	}
	iReserved := indexContaining(texts, MarkerReservedEnd, iEnd+1)
	if iReserved < 0 {
		return "", "", newError("event times", "missing "+MarkerReservedEnd+" marker", fragment)
	}

	start, err = segmentClock(texts[iStart+1:iEnd], "event start", fragment)
	if err != nil {
		return "", "", err
	}
	end, err = segmentClock(texts[iEnd+1:iReserved], "event end", fragment)
	if err != nil {
		return "", "", err
	}
	return start, end, nil
}

// AccessTime reads the access time from the markup that follows the
// "Access Time" label, typically
//
//	<div><p>Access at 6:00 PM</p></div>
func AccessTime(fragment string) (string, error) {
	doc, err := html.Parse(strings.NewReader(fragment))
	if err != nil {
		return "", newError("access time", "parse: "+err.Error(), fragment)
	}

	p := findElement(doc, atom.P)
	if p == nil {
		return "", newError("access time", "no paragraph", fragment)
	}
	text := strings.Join(strings.Fields(normalizeSpace(nodeText(p))), " ")
	if text == "" {
		return "", newError("access time", "empty paragraph", fragment)
	}

	t, ok := FindClock(text)
	if !ok {
		return "", newError("access time", "no clock time in paragraph", fragment)
	}
	return t, nil
}

// textTokens returns the trimmed, non-empty text tokens of an HTML fragment
// in document order. Comments and tags are skipped.
func textTokens(fragment string) ([]string, error) {
	z := html.NewTokenizer(strings.NewReader(fragment))
	var out []string
	for {
		switch z.Next() {
		case html.ErrorToken:
			if err := z.Err(); err != io.EOF {
				return nil, err
			}
			return out, nil
		case html.TextToken:
			if s := strings.TrimSpace(normalizeSpace(string(z.Text()))); s != "" {
				out = append(out, s)
			}
		}
	}
}

func indexContaining(texts []string, marker string, from int) int {
	for i := from; i < len(texts); i++ {
		if strings.Contains(texts[i], marker) {
			return i
		}
	}
	return -1
}

func segmentClock(segment []string, field, fragment string) (string, error) {
	if len(segment) == 0 {
		return "", newError(field, "empty segment", fragment)
	}
	v := segment[0]
	if !IsClock(v) {
		return "", newError(field, "not a 12-hour clock time: "+v, fragment)
	}
	return v, nil
}

func findElement(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, a); found != nil {
			return found
		}
	}
	return nil
}

func nodeText(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.WriteString(nodeText(c))
	}
	return b.String()
}

// normalizeSpace folds non-breaking spaces so "6:00&nbsp;PM" still matches.
func normalizeSpace(s string) string {
	return strings.ReplaceAll(s, "\u00a0", " ")
}
