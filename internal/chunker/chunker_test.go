// ABOUTME: Tests for clause extraction strategies and sub-chunking
// ABOUTME: Verifies offsets stay verbatim and coverage loses only whitespace
package chunker

import (
	"strings"
	"testing"

	"clauselens/internal/models"
)

const sampleContract = `Employment Contract

Article 1 (Term) The term of employment shall be one year from the date of joining.

Article 2 (Wages) The monthly wage shall be 2,000,000 won, payable on the 25th of each month.

Article 3 (Termination) Either party may terminate this contract with 30 days written notice.`

const keywordContract = `Working Hours
The employee shall work from 09:00 to 18:00, five days a week.

Wages
Monthly pay is 2,000,000 won, in arrears.

Termination
Either party must give two weeks notice.`

func TestNew_Defaults(t *testing.T) {
	cc := New(0, -1, nil)
	if cc.splitThreshold != DefaultSplitThreshold {
		t.Errorf("splitThreshold = %d, want %d", cc.splitThreshold, DefaultSplitThreshold)
	}
	if cc.overlap != DefaultOverlap {
		t.Errorf("overlap = %d, want %d", cc.overlap, DefaultOverlap)
	}
	if len(cc.strategies) != 3 {
		t.Errorf("strategies = %d, want 3", len(cc.strategies))
	}
}

func TestExtractClauses_ArticleHeaders(t *testing.T) {
	cc := New(0, 0, nil)
	clauses := cc.ExtractClauses("doc1", sampleContract)

	// Preamble block plus three articles.
	if len(clauses) != 4 {
		t.Fatalf("clauses = %d, want 4", len(clauses))
	}

	if clauses[0].ArticleNumber != 0 {
		t.Errorf("preamble article number = %d, want 0", clauses[0].ArticleNumber)
	}
	if clauses[0].Body != "Employment Contract" {
		t.Errorf("preamble body = %q", clauses[0].Body)
	}

	wantArticles := []struct {
		number int
		title  string
	}{
		{1, "Term"},
		{2, "Wages"},
		{3, "Termination"},
	}
	for i, want := range wantArticles {
		cl := clauses[i+1]
		if cl.ArticleNumber != want.number {
			t.Errorf("clause %d article number = %d, want %d", i+1, cl.ArticleNumber, want.number)
		}
		if cl.Title != want.title {
			t.Errorf("clause %d title = %q, want %q", i+1, cl.Title, want.title)
		}
		if cl.Strategy != models.StrategyArticleHeader {
			t.Errorf("clause %d strategy = %q, want %q", i+1, cl.Strategy, models.StrategyArticleHeader)
		}
		if cl.DocumentID != "doc1" {
			t.Errorf("clause %d document id = %q, want doc1", i+1, cl.DocumentID)
		}
	}

	if !strings.HasSuffix(clauses[3].Body, "written notice.") {
		t.Errorf("last clause body = %q, should run to end of text", clauses[3].Body)
	}
}

func TestExtractClauses_VerbatimOffsets(t *testing.T) {
	cc := New(0, 0, nil)
	clauses := cc.ExtractClauses("doc1", sampleContract)

	for i, cl := range clauses {
		if got := sampleContract[cl.StartOffset:cl.EndOffset]; got != cl.Body {
			t.Errorf("clause %d: text[%d:%d] = %q, want body %q", i, cl.StartOffset, cl.EndOffset, got, cl.Body)
		}
	}

	// Offsets must be monotonically increasing and non-overlapping.
	for i := 1; i < len(clauses); i++ {
		if clauses[i].StartOffset < clauses[i-1].EndOffset {
			t.Errorf("clause %d start %d overlaps previous end %d", i, clauses[i].StartOffset, clauses[i-1].EndOffset)
		}
	}
}

func TestExtractClauses_Coverage(t *testing.T) {
	cc := New(0, 0, nil)
	clauses := cc.ExtractClauses("doc1", sampleContract)

	// Blanking out every clause span must leave only separator whitespace.
	rest := []byte(sampleContract)
	for _, cl := range clauses {
		for i := cl.StartOffset; i < cl.EndOffset; i++ {
			rest[i] = ' '
		}
	}
	if leftover := strings.TrimSpace(string(rest)); leftover != "" {
		t.Errorf("text outside clause spans: %q", leftover)
	}
}

func TestExtractClauses_RomanNumerals(t *testing.T) {
	text := "Article IV (Confidentiality) The employee shall not disclose trade secrets.\n\nArticle IX (Notices) All notices must be written."
	cc := New(0, 0, nil)
	clauses := cc.ExtractClauses("doc1", text)

	if len(clauses) != 2 {
		t.Fatalf("clauses = %d, want 2", len(clauses))
	}
	if clauses[0].ArticleNumber != 4 {
		t.Errorf("first article number = %d, want 4", clauses[0].ArticleNumber)
	}
	if clauses[1].ArticleNumber != 9 {
		t.Errorf("second article number = %d, want 9", clauses[1].ArticleNumber)
	}
}

func TestExtractClauses_HeaderOnlyClause(t *testing.T) {
	text := "Article 1 (Reserved)\nArticle 2 (Wages) Pay is monthly."
	cc := New(0, 0, nil)
	clauses := cc.ExtractClauses("doc1", text)

	if len(clauses) != 2 {
		t.Fatalf("clauses = %d, want 2", len(clauses))
	}
	// A header with no body before the next header is retained as-is.
	if clauses[0].Body != "Article 1 (Reserved)" {
		t.Errorf("header-only clause body = %q", clauses[0].Body)
	}
}

func TestExtractClauses_MidlineArticleIgnored(t *testing.T) {
	text := "The parties refer to Article 5 of the statute.\n\nArticle 1 (Term) One year."
	cc := New(0, 0, nil)
	clauses := cc.ExtractClauses("doc1", text)

	if len(clauses) != 2 {
		t.Fatalf("clauses = %d, want 2 (preamble + article)", len(clauses))
	}
	if clauses[1].ArticleNumber != 1 {
		t.Errorf("article number = %d, want 1", clauses[1].ArticleNumber)
	}
}

func TestExtractClauses_KeywordFallback(t *testing.T) {
	cc := New(0, 0, nil)
	clauses := cc.ExtractClauses("doc1", keywordContract)

	if len(clauses) != 3 {
		t.Fatalf("clauses = %d, want 3", len(clauses))
	}
	wantTitles := []string{"Working Hours", "Wages", "Termination"}
	for i, want := range wantTitles {
		if clauses[i].Title != want {
			t.Errorf("clause %d title = %q, want %q", i, clauses[i].Title, want)
		}
		if clauses[i].Strategy != models.StrategyKeyword {
			t.Errorf("clause %d strategy = %q, want %q", i, clauses[i].Strategy, models.StrategyKeyword)
		}
		if clauses[i].ArticleNumber != 0 {
			t.Errorf("clause %d article number = %d, want 0", i, clauses[i].ArticleNumber)
		}
	}
}

func TestExtractClauses_KeywordMidlineIgnored(t *testing.T) {
	// Keywords inside running text must not split; only line starts count.
	text := "This agreement covers wages and working hours for the employee."
	cc := New(0, 0, nil)
	clauses := cc.ExtractClauses("doc1", text)

	if len(clauses) != 1 {
		t.Fatalf("clauses = %d, want 1", len(clauses))
	}
	if clauses[0].Strategy != models.StrategyWholeDocument {
		t.Errorf("strategy = %q, want %q", clauses[0].Strategy, models.StrategyWholeDocument)
	}
}

func TestExtractClauses_WholeDocumentFallback(t *testing.T) {
	text := "  This agreement is made between the parties for mutual benefit.  "
	cc := New(0, 0, nil)
	clauses := cc.ExtractClauses("doc1", text)

	if len(clauses) != 1 {
		t.Fatalf("clauses = %d, want 1", len(clauses))
	}
	cl := clauses[0]
	if cl.Strategy != models.StrategyWholeDocument {
		t.Errorf("strategy = %q, want %q", cl.Strategy, models.StrategyWholeDocument)
	}
	if cl.Body != strings.TrimSpace(text) {
		t.Errorf("body = %q, want trimmed text", cl.Body)
	}
	if got := text[cl.StartOffset:cl.EndOffset]; got != cl.Body {
		t.Errorf("offsets not verbatim: %q != %q", got, cl.Body)
	}
}

func TestExtractClauses_Determinism(t *testing.T) {
	cc := New(0, 0, nil)
	first := cc.ExtractClauses("doc1", sampleContract)
	second := cc.ExtractClauses("doc1", sampleContract)

	if len(first) != len(second) {
		t.Fatalf("run lengths differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].Body != second[i].Body ||
			first[i].StartOffset != second[i].StartOffset ||
			first[i].EndOffset != second[i].EndOffset ||
			first[i].ArticleNumber != second[i].ArticleNumber {
			t.Errorf("clause %d differs between runs", i)
		}
	}
}

func TestExtractClauses_WindowsLineEndings(t *testing.T) {
	text := "Article 1 (Term) First.\r\n\r\nArticle 2 (Wages) Second."
	cc := New(0, 0, nil)
	clauses := cc.ExtractClauses("doc1", text)

	if len(clauses) != 2 {
		t.Fatalf("clauses = %d, want 2", len(clauses))
	}
	for i, cl := range clauses {
		if got := text[cl.StartOffset:cl.EndOffset]; got != cl.Body {
			t.Errorf("clause %d offsets not verbatim", i)
		}
	}
}

func TestExtractClauses_EmptyText(t *testing.T) {
	cc := New(0, 0, nil)
	clauses := cc.ExtractClauses("doc1", "")

	// Extraction never fails; empty input degrades to one empty clause.
	if len(clauses) != 1 {
		t.Fatalf("clauses = %d, want 1", len(clauses))
	}
	if clauses[0].Body != "" {
		t.Errorf("body = %q, want empty", clauses[0].Body)
	}
}

func TestSplitClauses_ShortClauseSingleChunk(t *testing.T) {
	cc := New(400, 50, nil)
	cl := models.Clause{
		ID:            "clause_a",
		DocumentID:    "doc1",
		ArticleNumber: 2,
		Title:         "Wages",
		Body:          "Article 2 (Wages) The monthly wage shall be 2,000,000 won.",
		StartOffset:   10,
		EndOffset:     10 + len("Article 2 (Wages) The monthly wage shall be 2,000,000 won."),
	}

	chunks := cc.SplitClauses([]models.Clause{cl})
	if len(chunks) != 1 {
		t.Fatalf("chunks = %d, want 1", len(chunks))
	}
	ch := chunks[0]
	if ch.Type != models.ChunkTypeClause {
		t.Errorf("chunk type = %q, want %q", ch.Type, models.ChunkTypeClause)
	}
	if ch.ParagraphIndex != nil {
		t.Errorf("paragraph index = %v, want nil", *ch.ParagraphIndex)
	}
	if ch.Content != cl.Body {
		t.Errorf("content = %q, want clause body", ch.Content)
	}
	if ch.ClauseID != "clause_a" || ch.ArticleNumber != 2 || ch.Title != "Wages" {
		t.Error("chunk should inherit clause identity")
	}
	if ch.SourceType != models.SourceContract {
		t.Errorf("source type = %q, want %q", ch.SourceType, models.SourceContract)
	}
}

func TestSplitClauses_LongClauseParagraphs(t *testing.T) {
	para := strings.Repeat("lorem ipsum dolor sit amet ", 12)
	body := para + "\n\n" + para + "\n\n" + para
	cc := New(400, 50, nil)
	cl := models.Clause{
		ID:          "clause_b",
		DocumentID:  "doc1",
		Body:        body,
		StartOffset: 100,
		EndOffset:   100 + len(body),
	}

	chunks := cc.SplitClauses([]models.Clause{cl})
	if len(chunks) != 3 {
		t.Fatalf("chunks = %d, want 3", len(chunks))
	}

	for i, ch := range chunks {
		if ch.Type != models.ChunkTypeParagraph {
			t.Errorf("chunk %d type = %q, want %q", i, ch.Type, models.ChunkTypeParagraph)
		}
		if ch.ParagraphIndex == nil || *ch.ParagraphIndex != i {
			t.Errorf("chunk %d paragraph index = %v, want %d", i, ch.ParagraphIndex, i)
		}
		if got := body[ch.StartOffset-100 : ch.EndOffset-100]; got != ch.Content {
			t.Errorf("chunk %d content not verbatim at offsets", i)
		}
	}

	// Overlap prepends the previous neighbor's tail.
	if gap := chunks[0].EndOffset - chunks[1].StartOffset; gap != 50 {
		t.Errorf("overlap = %d, want 50", gap)
	}

	// Concatenation minus overlap reconstructs the body exactly.
	recon := chunks[0].Content
	for i := 1; i < len(chunks); i++ {
		skip := chunks[i-1].EndOffset - chunks[i].StartOffset
		recon += chunks[i].Content[skip:]
	}
	if recon != body {
		t.Error("reconstructed body differs from original")
	}
}

func TestSplitClauses_EmptyBody(t *testing.T) {
	cc := New(400, 50, nil)
	cl := models.Clause{ID: "clause_c", DocumentID: "doc1", Body: "", StartOffset: 5, EndOffset: 5}

	// Zero-length bodies still produce one chunk so article numbering
	// stays stable for issue mapping.
	chunks := cc.SplitClauses([]models.Clause{cl})
	if len(chunks) != 1 {
		t.Fatalf("chunks = %d, want 1", len(chunks))
	}
	if chunks[0].Content != "" {
		t.Errorf("content = %q, want empty", chunks[0].Content)
	}
}

func TestSplitClauses_UniqueIDs(t *testing.T) {
	cc := New(0, 0, nil)
	_, chunks := cc.Chunk("doc1", sampleContract)

	seen := make(map[string]bool)
	for _, ch := range chunks {
		if seen[ch.ID] {
			t.Errorf("duplicate chunk id: %s", ch.ID)
		}
		seen[ch.ID] = true
		if !strings.HasPrefix(ch.ID, "chunk_") {
			t.Errorf("chunk id = %q, want chunk_ prefix", ch.ID)
		}
	}
}

func TestSplitSegments_CircledNumerals(t *testing.T) {
	body := "① " + strings.Repeat("a", 300) + " ② " + strings.Repeat("b", 300)
	segs := splitSegments(body, 400)

	if len(segs) != 2 {
		t.Fatalf("segments = %d, want 2", len(segs))
	}
	if !strings.HasPrefix(body[segs[1].start:], "②") {
		t.Errorf("second segment should start at the circled numeral")
	}
}

func TestSplitSegments_EnumMarkers(t *testing.T) {
	body := "1. " + strings.Repeat("a", 300) + "\n2. " + strings.Repeat("b", 300)
	segs := splitSegments(body, 400)

	if len(segs) != 2 {
		t.Fatalf("segments = %d, want 2", len(segs))
	}
	if !strings.HasPrefix(body[segs[1].start:], "2.") {
		t.Errorf("second segment should start at the list marker")
	}
}

func TestSplitSegments_HardWrap(t *testing.T) {
	body := strings.Repeat("x", 1000)
	segs := splitSegments(body, 400)

	if len(segs) != 3 {
		t.Fatalf("segments = %d, want 3", len(segs))
	}
	if segs[0].end != 400 || segs[1].end != 800 || segs[2].end != 1000 {
		t.Errorf("segment bounds = %v", segs)
	}
}

func TestSplitSegments_Partition(t *testing.T) {
	para := strings.Repeat("word ", 100)
	body := para + "\n\n" + para + "\n\n" + para
	segs := splitSegments(body, 300)

	if segs[0].start != 0 {
		t.Errorf("first segment starts at %d, want 0", segs[0].start)
	}
	for i := 1; i < len(segs); i++ {
		if segs[i].start != segs[i-1].end {
			t.Errorf("gap between segment %d and %d", i-1, i)
		}
	}
	if segs[len(segs)-1].end != len(body) {
		t.Errorf("last segment ends at %d, want %d", segs[len(segs)-1].end, len(body))
	}
}

func TestParseRoman(t *testing.T) {
	tests := []struct {
		input string
		want  int
	}{
		{"I", 1},
		{"IV", 4},
		{"IX", 9},
		{"XII", 12},
		{"XL", 40},
		{"MCMXCIV", 1994},
		{"", 0},
		{"ABC", 0},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := parseRoman(tt.input); got != tt.want {
				t.Errorf("parseRoman(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestAtLineStart(t *testing.T) {
	text := "wages\n  wages here wages"
	tests := []struct {
		name string
		pos  int
		want bool
	}{
		{"document start", 0, true},
		{"after newline with indent", 8, true},
		{"mid line", 14, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := atLineStart(text, tt.pos); got != tt.want {
				t.Errorf("atLineStart(%d) = %v, want %v", tt.pos, got, tt.want)
			}
		})
	}
}

func TestChunkDocument_ShortDocument(t *testing.T) {
	cc := New(0, 0, nil)
	doc := models.CorpusDocument{
		ID:         "corpus_abc",
		SourceType: models.SourceStatute,
		Title:      "Labor Standards Act",
		Text:       "  Article 50. Working hours shall not exceed 40 hours per week.\n",
	}

	chunks := cc.ChunkDocument(doc)
	if len(chunks) != 1 {
		t.Fatalf("Expected 1 chunk, got %d", len(chunks))
	}
	ch := chunks[0]
	if ch.Type != models.ChunkTypeDocument {
		t.Errorf("Expected document chunk, got %q", ch.Type)
	}
	if ch.SourceType != models.SourceStatute {
		t.Errorf("Expected statute source, got %q", ch.SourceType)
	}
	if ch.Title != "Labor Standards Act" {
		t.Errorf("Title = %q", ch.Title)
	}
	if ch.ClauseID != "" {
		t.Errorf("Corpus chunk must not carry a clause id, got %q", ch.ClauseID)
	}
	if doc.Text[ch.StartOffset:ch.EndOffset] != ch.Content {
		t.Errorf("Offsets are not verbatim: %q vs %q", doc.Text[ch.StartOffset:ch.EndOffset], ch.Content)
	}
}

func TestChunkDocument_LongDocumentSplits(t *testing.T) {
	para := strings.Repeat("Overtime work requires employee consent. ", 20)
	text := para + "\n\n" + para + "\n\n" + para
	cc := New(1000, 100, nil)

	chunks := cc.ChunkDocument(models.CorpusDocument{
		ID:         "corpus_long",
		SourceType: models.SourceGuide,
		Title:      "Overtime Guide",
		Text:       text,
	})
	if len(chunks) < 2 {
		t.Fatalf("Expected multiple paragraph chunks, got %d", len(chunks))
	}
	for i, ch := range chunks {
		if ch.Type != models.ChunkTypeParagraph {
			t.Errorf("Chunk %d type = %q, want paragraph", i, ch.Type)
		}
		if ch.ParagraphIndex == nil || *ch.ParagraphIndex != i {
			t.Errorf("Chunk %d has wrong paragraph index", i)
		}
		if ch.SourceType != models.SourceGuide {
			t.Errorf("Chunk %d source = %q, want guide", i, ch.SourceType)
		}
		if text[ch.StartOffset:ch.EndOffset] != ch.Content {
			t.Errorf("Chunk %d offsets are not verbatim", i)
		}
	}
}

func TestChunkDocument_EmptyText(t *testing.T) {
	cc := New(0, 0, nil)
	if chunks := cc.ChunkDocument(models.CorpusDocument{ID: "x", Text: "   \n  "}); chunks != nil {
		t.Errorf("Expected nil for whitespace-only document, got %d chunks", len(chunks))
	}
}
