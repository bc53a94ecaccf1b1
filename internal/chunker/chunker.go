// ABOUTME: ClauseChunker splits raw contract text into clause units with exact offsets
// ABOUTME: Strategy chain: article headers, then section keywords, then whole document
package chunker

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"clauselens/internal/models"
)

// Defaults for sub-chunking long clause bodies.
const (
	DefaultSplitThreshold = 1800
	DefaultOverlap        = 200
)

// DefaultSectionKeywords are the section names the keyword fallback splits
// on when a contract carries no article headers.
var DefaultSectionKeywords = []string{
	"working hours",
	"wages",
	"salary",
	"probation",
	"termination",
	"intellectual property",
	"confidentiality",
	"annual leave",
}

// ClauseChunker extracts clauses from contract text and derives retrievable
// chunks from them. Extraction walks an ordered strategy list and stops at
// the first strategy that yields at least one clause; the whole-document
// strategy always succeeds, so extraction never fails.
type ClauseChunker struct {
	splitThreshold int
	overlap        int
	strategies     []strategy
}

// New creates a ClauseChunker. A non-positive threshold, a negative overlap,
// or an empty keyword list falls back to the package defaults.
func New(splitThreshold, overlap int, keywords []string) *ClauseChunker {
	if splitThreshold <= 0 {
		splitThreshold = DefaultSplitThreshold
	}
	if overlap < 0 {
		overlap = DefaultOverlap
	}
	if overlap >= splitThreshold {
		overlap = splitThreshold / 4
	}
	if len(keywords) == 0 {
		keywords = DefaultSectionKeywords
	}
	return &ClauseChunker{
		splitThreshold: splitThreshold,
		overlap:        overlap,
		strategies: []strategy{
			headerStrategy{},
			keywordStrategy{keywords: keywords},
			wholeDocumentStrategy{},
		},
	}
}

// Chunk extracts clauses and derives their chunks in one pass.
func (c *ClauseChunker) Chunk(docID, text string) ([]models.Clause, []models.Chunk) {
	clauses := c.ExtractClauses(docID, text)
	return clauses, c.SplitClauses(clauses)
}

// ExtractClauses splits document text into ordered, non-overlapping clause
// spans covering every non-whitespace character of the input.
func (c *ClauseChunker) ExtractClauses(docID, text string) []models.Clause {
	for _, s := range c.strategies {
		if clauses := s.extract(docID, text); len(clauses) > 0 {
			return clauses
		}
	}
	// Unreachable: wholeDocumentStrategy always yields one clause.
	return nil
}

// SplitClauses derives retrievable chunks. A short clause maps to a single
// clause-type chunk; bodies above the split threshold become paragraph
// chunks with a character overlap prepended from the previous neighbor.
func (c *ClauseChunker) SplitClauses(clauses []models.Clause) []models.Chunk {
	var chunks []models.Chunk
	for _, cl := range clauses {
		chunks = append(chunks, c.splitClause(cl)...)
	}
	return chunks
}

func (c *ClauseChunker) splitClause(cl models.Clause) []models.Chunk {
	if len(cl.Body) <= c.splitThreshold {
		return []models.Chunk{{
			ID:            models.NewChunkID(),
			DocumentID:    cl.DocumentID,
			ClauseID:      cl.ID,
			ArticleNumber: cl.ArticleNumber,
			Type:          models.ChunkTypeClause,
			SourceType:    models.SourceContract,
			Title:         cl.Title,
			Content:       cl.Body,
			StartOffset:   cl.StartOffset,
			EndOffset:     cl.EndOffset,
		}}
	}

	segs := splitSegments(cl.Body, c.splitThreshold)
	chunks := make([]models.Chunk, 0, len(segs))
	for i, seg := range segs {
		start := seg.start
		if i > 0 && c.overlap > 0 {
			start -= c.overlap
			if start < segs[i-1].start {
				start = segs[i-1].start
			}
			for start < seg.start && !utf8.RuneStart(cl.Body[start]) {
				start++
			}
		}
		idx := i
		chunks = append(chunks, models.Chunk{
			ID:             models.NewChunkID(),
			DocumentID:     cl.DocumentID,
			ClauseID:       cl.ID,
			ArticleNumber:  cl.ArticleNumber,
			ParagraphIndex: &idx,
			Type:           models.ChunkTypeParagraph,
			SourceType:     models.SourceContract,
			Title:          cl.Title,
			Content:        cl.Body[start:seg.end],
			StartOffset:    cl.StartOffset + start,
			EndOffset:      cl.StartOffset + seg.end,
		})
	}
	return chunks
}

// ChunkDocument derives retrievable chunks from one corpus document. The
// text is treated as a single span: short documents become one chunk, long
// ones split into overlapping paragraph chunks. Corpus chunks carry the
// document's source type and title instead of clause identity.
func (c *ClauseChunker) ChunkDocument(doc models.CorpusDocument) []models.Chunk {
	trimmed := strings.TrimSpace(doc.Text)
	if trimmed == "" {
		return nil
	}
	offset := strings.Index(doc.Text, trimmed)

	if len(trimmed) <= c.splitThreshold {
		return []models.Chunk{{
			ID:          models.NewChunkID(),
			DocumentID:  doc.ID,
			Type:        models.ChunkTypeDocument,
			SourceType:  doc.SourceType,
			Title:       doc.Title,
			Content:     trimmed,
			StartOffset: offset,
			EndOffset:   offset + len(trimmed),
		}}
	}

	segs := splitSegments(trimmed, c.splitThreshold)
	chunks := make([]models.Chunk, 0, len(segs))
	for i, seg := range segs {
		start := seg.start
		if i > 0 && c.overlap > 0 {
			start -= c.overlap
			if start < segs[i-1].start {
				start = segs[i-1].start
			}
			for start < seg.start && !utf8.RuneStart(trimmed[start]) {
				start++
			}
		}
		idx := i
		chunks = append(chunks, models.Chunk{
			ID:             models.NewChunkID(),
			DocumentID:     doc.ID,
			ParagraphIndex: &idx,
			Type:           models.ChunkTypeParagraph,
			SourceType:     doc.SourceType,
			Title:          doc.Title,
			Content:        trimmed[start:seg.end],
			StartOffset:    offset + start,
			EndOffset:      offset + seg.end,
		})
	}
	return chunks
}

// strategy produces clauses from raw text. Implementations must cover the
// document with non-overlapping spans in offset order, or yield nothing.
type strategy interface {
	extract(docID, text string) []models.Clause
}

var articleHeaderRe = regexp.MustCompile(`(?m)^[ \t]*(?:Article|ARTICLE)[ \t]+([0-9]+|[IVXLCDM]+)\b(?:[ \t]*\(([^)\n]+)\))?`)

// headerStrategy splits on "Article N" / "Article N (Title)" headers
// anchored at line starts. The header text stays part of the clause body so
// that clause spans cover the document without gaps.
type headerStrategy struct{}

func (headerStrategy) extract(docID, text string) []models.Clause {
	matches := articleHeaderRe.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return nil
	}

	var clauses []models.Clause
	if lead := text[:matches[0][0]]; strings.TrimSpace(lead) != "" {
		clauses = append(clauses, newClause(docID, text, 0, matches[0][0], 0, "", models.StrategyArticleHeader))
	}
	for i, m := range matches {
		end := len(text)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}
		title := ""
		if m[4] >= 0 {
			title = strings.TrimSpace(text[m[4]:m[5]])
		}
		num := parseArticleNumber(text[m[2]:m[3]])
		clauses = append(clauses, newClause(docID, text, m[0], end, num, title, models.StrategyArticleHeader))
	}
	return clauses
}

// keywordStrategy splits on known section names anchored at line starts,
// for contracts written without numbered articles.
type keywordStrategy struct {
	keywords []string
}

type keywordHit struct {
	pos     int
	matched string
}

func (s keywordStrategy) extract(docID, text string) []models.Clause {
	lower := strings.ToLower(text)
	var hits []keywordHit
	for _, kw := range s.keywords {
		needle := strings.ToLower(kw)
		if needle == "" {
			continue
		}
		for from := 0; ; {
			idx := strings.Index(lower[from:], needle)
			if idx < 0 {
				break
			}
			pos := from + idx
			if atLineStart(text, pos) {
				hits = append(hits, keywordHit{pos: pos, matched: text[pos : pos+len(needle)]})
			}
			from = pos + len(needle)
		}
	}
	if len(hits) == 0 {
		return nil
	}

	sort.Slice(hits, func(i, j int) bool { return hits[i].pos < hits[j].pos })
	dedup := hits[:1]
	for _, h := range hits[1:] {
		if h.pos != dedup[len(dedup)-1].pos {
			dedup = append(dedup, h)
		}
	}

	var clauses []models.Clause
	if lead := text[:dedup[0].pos]; strings.TrimSpace(lead) != "" {
		clauses = append(clauses, newClause(docID, text, 0, dedup[0].pos, 0, "", models.StrategyKeyword))
	}
	for i, h := range dedup {
		end := len(text)
		if i+1 < len(dedup) {
			end = dedup[i+1].pos
		}
		clauses = append(clauses, newClause(docID, text, h.pos, end, 0, h.matched, models.StrategyKeyword))
	}
	return clauses
}

// wholeDocumentStrategy is the guaranteed fallback: the entire document
// becomes one clause.
type wholeDocumentStrategy struct{}

func (wholeDocumentStrategy) extract(docID, text string) []models.Clause {
	return []models.Clause{newClause(docID, text, 0, len(text), 0, "", models.StrategyWholeDocument)}
}

// newClause trims surrounding whitespace from the span while keeping Body a
// verbatim slice of the source document at the adjusted offsets.
func newClause(docID, text string, start, end, article int, title string, strat models.ExtractionStrategy) models.Clause {
	for start < end && isSeparator(text[start]) {
		start++
	}
	for end > start && isSeparator(text[end-1]) {
		end--
	}
	return models.Clause{
		ID:            models.NewClauseID(),
		DocumentID:    docID,
		ArticleNumber: article,
		Title:         title,
		Body:          text[start:end],
		StartOffset:   start,
		EndOffset:     end,
		Strategy:      strat,
	}
}

func isSeparator(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

// atLineStart reports whether pos is at the start of a line, allowing
// leading indentation.
func atLineStart(text string, pos int) bool {
	for i := pos - 1; i >= 0; i-- {
		switch text[i] {
		case ' ', '\t':
			continue
		case '\n':
			return true
		default:
			return false
		}
	}
	return true
}

func parseArticleNumber(s string) int {
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return parseRoman(s)
}

var romanValues = map[byte]int{'I': 1, 'V': 5, 'X': 10, 'L': 50, 'C': 100, 'D': 500, 'M': 1000}

// parseRoman handles the numeral forms contract headers actually use;
// anything unparseable yields 0 (unnumbered).
func parseRoman(s string) int {
	total := 0
	for i := 0; i < len(s); i++ {
		v := romanValues[s[i]]
		if v == 0 {
			return 0
		}
		if i+1 < len(s) && romanValues[s[i+1]] > v {
			total -= v
		} else {
			total += v
		}
	}
	return total
}

// segment is a half-open span into a clause body.
type segment struct {
	start, end int
}

var (
	blankLineRe  = regexp.MustCompile(`\n[ \t\r]*\n+`)
	circledRe    = regexp.MustCompile(`[\x{2460}-\x{2473}]`)
	enumMarkerRe = regexp.MustCompile(`(?m)^[ \t]*\d{1,2}\.[ \t]`)
)

// splitSegments tiles a long clause body into contiguous paragraph spans:
// blank-line boundaries first, enumeration markers for spans still above
// the threshold, and a hard wrap as the last resort. Segments partition the
// body exactly so concatenation reconstructs it.
func splitSegments(body string, threshold int) []segment {
	segs := []segment{{0, len(body)}}
	segs = refine(body, segs, threshold, blankLineCuts)
	segs = refine(body, segs, threshold, markerCuts)
	segs = refine(body, segs, threshold, nil)
	return segs
}

// refine re-splits every segment above the threshold using the given cut
// positions; a nil cutter hard-wraps at the threshold on rune boundaries.
func refine(body string, segs []segment, threshold int, cutter func(string) []int) []segment {
	var out []segment
	for _, sg := range segs {
		if sg.end-sg.start <= threshold {
			out = append(out, sg)
			continue
		}
		if cutter == nil {
			for s := sg.start; s < sg.end; {
				e := s + threshold
				if e >= sg.end {
					e = sg.end
				} else {
					for e > s && !utf8.RuneStart(body[e]) {
						e--
					}
					if e == s {
						e = s + threshold
					}
				}
				out = append(out, segment{s, e})
				s = e
			}
			continue
		}
		prev := sg.start
		for _, cut := range cutter(body[sg.start:sg.end]) {
			abs := sg.start + cut
			if abs <= prev || abs >= sg.end {
				continue
			}
			out = append(out, segment{prev, abs})
			prev = abs
		}
		out = append(out, segment{prev, sg.end})
	}
	return out
}

// blankLineCuts returns positions where a new paragraph starts after a
// blank line.
func blankLineCuts(s string) []int {
	var cuts []int
	for _, m := range blankLineRe.FindAllStringIndex(s, -1) {
		if m[1] < len(s) {
			cuts = append(cuts, m[1])
		}
	}
	return cuts
}

// markerCuts returns positions of enumeration markers: circled numerals
// anywhere, "1." style list items at line starts.
func markerCuts(s string) []int {
	var cuts []int
	for _, m := range circledRe.FindAllStringIndex(s, -1) {
		if m[0] > 0 {
			cuts = append(cuts, m[0])
		}
	}
	for _, m := range enumMarkerRe.FindAllStringIndex(s, -1) {
		if m[0] > 0 {
			cuts = append(cuts, m[0])
		}
	}
	sort.Ints(cuts)
	return cuts
}
