package knowledge

import (
	"context"
	"fmt"
	"sync"

	"github.com/blevesearch/bleve/v2"
)

// Document is the flattened, searchable form of one knowledge-base row.
type Document struct {
	ID       string `json:"id"`
	Content  string `json:"content"`
	Category string `json:"category"`
	Source   string `json:"source"`
	Keywords string `json:"keywords"`
}

type Hit struct {
	Doc   Document
	Score float64
}

// Index wraps a bleve full-text index over knowledge documents. Documents
// are kept alongside the index so hits can be returned whole.
type Index struct {
	mu    sync.RWMutex
	index bleve.Index
	docs  map[string]Document
}

func NewMemIndex() (*Index, error) {
	idx, err := bleve.NewMemOnly(bleve.NewIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("create bleve index: %w", err)
	}
	return &Index{index: idx, docs: make(map[string]Document)}, nil
}

func (i *Index) Put(doc Document) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if err := i.index.Index(doc.ID, doc); err != nil {
		return fmt.Errorf("index document %s: %w", doc.ID, err)
	}
	i.docs[doc.ID] = doc
	return nil
}

func (i *Index) Search(ctx context.Context, query string, size int) ([]Hit, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()

	q := bleve.NewMatchQuery(query)
	req := bleve.NewSearchRequestOptions(q, size, 0, false)

	res, err := i.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("search index: %w", err)
	}

	hits := make([]Hit, 0, len(res.Hits))
	maxScore := res.MaxScore
	if maxScore <= 0 {
		maxScore = 1
	}
	for _, h := range res.Hits {
		doc, ok := i.docs[h.ID]
		if !ok {
			continue
		}
		hits = append(hits, Hit{Doc: doc, Score: h.Score / maxScore})
	}
	return hits, nil
}

func (i *Index) Count() int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return len(i.docs)
}

func (i *Index) Close() error {
	return i.index.Close()
}
