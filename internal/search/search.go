// Package search maintains an in-memory inverted index over diary and
// task text for keyword and tag queries.
package search

import (
	"sort"
	"strings"
	"time"
	"unicode"
)

type Kind int

const (
	SourceDiary Kind = iota
	SourceTask
)

// Token is one indexed term and its position in the source text.
type Token struct {
	Text string
	Pos  int
}

// Document is the indexable view of one source.
type Document struct {
	ID       string
	Kind     Kind
	Modified time.Time
	Text     string
	Tags     []string
}

// Tokenize lowercases and splits on non-alphanumeric boundaries,
// discarding empty tokens.
func Tokenize(text string) []Token {
	var out []Token
	var cur strings.Builder
	pos := 0
	flush := func() {
		if cur.Len() > 0 {
			out = append(out, Token{Text: cur.String(), Pos: pos})
			pos++
			cur.Reset()
		}
	}
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			cur.WriteRune(unicode.ToLower(r))
		} else {
			flush()
		}
	}
	flush()
	return out
}

type docEntry struct {
	kind     Kind
	modified time.Time
	tokens   []Token
	tags     []string
}

// Index is an inverted mapping from token to source ids, with a
// parallel mapping for tags. Reindexing a document replaces all of its
// prior postings before any query can observe a partial state.
type Index struct {
	docs     map[string]*docEntry
	postings map[string]map[string]struct{}
	tags     map[string]map[string]struct{}
}

func NewIndex() *Index {
	return &Index{
		docs:     make(map[string]*docEntry),
		postings: make(map[string]map[string]struct{}),
		tags:     make(map[string]map[string]struct{}),
	}
}

// Add indexes or reindexes a document.
func (ix *Index) Add(doc Document) {
	ix.Remove(doc.ID)

	entry := &docEntry{
		kind:     doc.Kind,
		modified: doc.Modified,
		tokens:   Tokenize(doc.Text),
	}
	for _, tag := range doc.Tags {
		entry.tags = append(entry.tags, strings.ToLower(tag))
	}
	ix.docs[doc.ID] = entry

	for _, tok := range entry.tokens {
		if ix.postings[tok.Text] == nil {
			ix.postings[tok.Text] = make(map[string]struct{})
		}
		ix.postings[tok.Text][doc.ID] = struct{}{}
	}
	for _, tag := range entry.tags {
		if ix.tags[tag] == nil {
			ix.tags[tag] = make(map[string]struct{})
		}
		ix.tags[tag][doc.ID] = struct{}{}
	}
}

// Remove drops a document and all of its postings.
func (ix *Index) Remove(id string) {
	entry, ok := ix.docs[id]
	if !ok {
		return
	}
	delete(ix.docs, id)
	for _, tok := range entry.tokens {
		if set := ix.postings[tok.Text]; set != nil {
			delete(set, id)
			if len(set) == 0 {
				delete(ix.postings, tok.Text)
			}
		}
	}
	for _, tag := range entry.tags {
		if set := ix.tags[tag]; set != nil {
			delete(set, id)
			if len(set) == 0 {
				delete(ix.tags, tag)
			}
		}
	}
}

func (ix *Index) Len() int { return len(ix.docs) }

// QueryKeyword returns the ids of documents matching every query token,
// where a query token matches if it is a prefix of any indexed token.
// Results are ordered most-recently-modified first.
func (ix *Index) QueryKeyword(query string) []string {
	terms := Tokenize(query)
	if len(terms) == 0 {
		return nil
	}

	var matched map[string]struct{}
	for _, term := range terms {
		ids := make(map[string]struct{})
		for token, set := range ix.postings {
			if !strings.HasPrefix(token, term.Text) {
				continue
			}
			for id := range set {
				ids[id] = struct{}{}
			}
		}
		if matched == nil {
			matched = ids
			continue
		}
		for id := range matched {
			if _, ok := ids[id]; !ok {
				delete(matched, id)
			}
		}
	}
	return ix.ordered(matched)
}

// QueryTag returns the ids of documents carrying the exact tag.
func (ix *Index) QueryTag(tag string) []string {
	return ix.ordered(ix.tags[strings.ToLower(strings.TrimSpace(tag))])
}

// Query routes a raw query string: a leading '#' or '@' selects tag
// mode, anything else is a keyword query.
func (ix *Index) Query(q string) []string {
	q = strings.TrimSpace(q)
	if len(q) > 1 && (q[0] == '#' || q[0] == '@') {
		return ix.QueryTag(q[1:])
	}
	return ix.QueryKeyword(q)
}

func (ix *Index) ordered(ids map[string]struct{}) []string {
	out := make([]string, 0, len(ids))
	for id := range ids {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := ix.docs[out[i]], ix.docs[out[j]]
		if !a.modified.Equal(b.modified) {
			return a.modified.After(b.modified)
		}
		return out[i] < out[j]
	})
	if len(out) == 0 {
		return nil
	}
	return out
}
