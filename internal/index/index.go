// Package index provides an in-memory Bleve index over search records.
// Indexes are immutable once built; a new snapshot produces a whole new
// index rather than incremental updates.
package index

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	blevequery "github.com/blevesearch/bleve/v2/search/query"
	"github.com/google/uuid"

	"github.com/takeru911/dagster/internal/models"
)

// Options controls index construction and query behavior.
type Options struct {
	// Limit caps the number of hits returned per query. Zero means the
	// default of 10.
	Limit int
	// Fuzziness is the per-term edit distance for plain queries. Zero
	// means the default of 2.
	Fuzziness int
	// Highlight enables per-field match fragments on hits.
	Highlight bool
}

const (
	defaultLimit     = 10
	defaultFuzziness = 2
)

// extendedSyntax marks a query for the full query-string language instead
// of per-term fuzzy matching.
const extendedSyntax = `+-"*~:`

// RecordIndex is a searchable snapshot of records. It is safe for
// concurrent queries; it is never mutated after Build returns.
type RecordIndex struct {
	idx        bleve.Index
	records    []models.SearchRecord
	generation string
	limit      int
	fuzziness  int
	highlight  bool
}

// recordDoc is the indexed projection of a record. The description field is
// deliberately absent so it can never match.
type recordDoc struct {
	Label    string   `json:"label"`
	Segments []string `json:"segments,omitempty"`
	Tags     []string `json:"tags,omitempty"`
	Type     string   `json:"type"`
}

// Build indexes records into a new in-memory index.
func Build(records []models.SearchRecord, opts Options) (*RecordIndex, error) {
	im := bleve.NewIndexMapping()

	docMapping := bleve.NewDocumentMapping()
	textFieldMapping := bleve.NewTextFieldMapping()
	// Standard analyzer (lowercase + tokenize, no stemming) keeps entity
	// names matching literally; underscores are normalized to spaces below
	// so snake_case names tokenize into words.
	textFieldMapping.Analyzer = standard.Name
	docMapping.AddFieldMappingsAt("label", textFieldMapping)
	docMapping.AddFieldMappingsAt("segments", textFieldMapping)
	docMapping.AddFieldMappingsAt("tags", textFieldMapping)
	docMapping.AddFieldMappingsAt("type", textFieldMapping)
	im.AddDocumentMapping("record", docMapping)
	im.DefaultType = "record"
	im.DefaultMapping = docMapping

	idx, err := bleve.NewMemOnly(im)
	if err != nil {
		return nil, fmt.Errorf("failed to create index: %w", err)
	}

	batch := idx.NewBatch()
	for i, rec := range records {
		doc := recordDoc{
			Label:    normalizeForIndex(rec.Label),
			Segments: normalizeAllForIndex(rec.Segments),
			Tags:     normalizeAllForIndex(rec.Tags),
			Type:     normalizeForIndex(string(rec.Type)),
		}
		if err := batch.Index(strconv.Itoa(i), doc); err != nil {
			_ = idx.Close()
			return nil, fmt.Errorf("failed to index record %d: %w", i, err)
		}
	}
	if err := idx.Batch(batch); err != nil {
		_ = idx.Close()
		return nil, fmt.Errorf("failed to commit index batch: %w", err)
	}

	ri := &RecordIndex{
		idx:        idx,
		records:    records,
		generation: uuid.NewString(),
		limit:      opts.Limit,
		fuzziness:  opts.Fuzziness,
		highlight:  opts.Highlight,
	}
	if ri.limit <= 0 {
		ri.limit = defaultLimit
	}
	if ri.fuzziness <= 0 {
		ri.fuzziness = defaultFuzziness
	}
	return ri, nil
}

// Search returns up to the configured limit of scored records, best first.
// An empty or blank query matches everything up to the limit.
func (ri *RecordIndex) Search(query string) ([]models.ScoredRecord, error) {
	req := bleve.NewSearchRequest(ri.buildQuery(query))
	req.Size = ri.limit
	if ri.highlight {
		req.Highlight = bleve.NewHighlight()
	}

	res, err := ri.idx.Search(req)
	if err != nil {
		return nil, fmt.Errorf("index search failed: %w", err)
	}

	out := make([]models.ScoredRecord, 0, len(res.Hits))
	for _, hit := range res.Hits {
		i, err := strconv.Atoi(hit.ID)
		if err != nil || i < 0 || i >= len(ri.records) {
			continue
		}
		out = append(out, models.ScoredRecord{
			SearchRecord: ri.records[i],
			Score:        hit.Score,
			Matches:      hit.Fragments,
		})
	}
	return out, nil
}

// buildQuery maps a raw user query onto a Bleve query. Queries containing
// operator characters go through the full query-string language; everything
// else becomes a per-term prefix-or-fuzzy disjunction, which mimics
// type-ahead matching where partial and misspelled words still hit.
func (ri *RecordIndex) buildQuery(query string) blevequery.Query {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return bleve.NewMatchAllQuery()
	}

	if strings.ContainsAny(trimmed, extendedSyntax) {
		qsq := bleve.NewQueryStringQuery(trimmed)
		if qsq.Validate() == nil {
			return qsq
		}
		// Malformed operator input falls through to plain matching.
	}

	terms := strings.Fields(strings.ToLower(normalizeForIndex(trimmed)))
	if len(terms) == 0 {
		return bleve.NewMatchAllQuery()
	}

	queries := make([]blevequery.Query, 0, len(terms)*2)
	for _, term := range terms {
		queries = append(queries, bleve.NewPrefixQuery(term))
		// Fuzzy matching on very short terms matches nearly everything,
		// so it only kicks in from three characters up.
		if len(term) >= 3 {
			fq := bleve.NewFuzzyQuery(term)
			fq.SetFuzziness(ri.termFuzziness(term))
			queries = append(queries, fq)
		}
	}
	if len(queries) == 1 {
		return queries[0]
	}
	return bleve.NewDisjunctionQuery(queries...)
}

// termFuzziness caps the configured edit distance below the term length.
func (ri *RecordIndex) termFuzziness(term string) int {
	f := ri.fuzziness
	if m := len(term) - 1; f > m {
		f = m
	}
	return f
}

// Size returns the number of indexed records.
func (ri *RecordIndex) Size() int {
	return len(ri.records)
}

// Generation returns the unique ID assigned to this index at build time.
func (ri *RecordIndex) Generation() string {
	return ri.generation
}

// Close releases the underlying index.
func (ri *RecordIndex) Close() error {
	return ri.idx.Close()
}

// normalizeForIndex rewrites snake_case and kebab-case into spaced words so
// the analyzer tokenizes each segment.
func normalizeForIndex(s string) string {
	s = strings.ReplaceAll(s, "_", " ")
	s = strings.ReplaceAll(s, "-", " ")
	return s
}

func normalizeAllForIndex(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = normalizeForIndex(s)
	}
	return out
}
