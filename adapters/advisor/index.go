package advisor

import (
	"crypto/sha1"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"
)

// Record is one indexed chunk of a corpus document.
type Record struct {
	DocID   string         `json:"doc_id"`
	DocName string         `json:"doc_name"`
	ChunkID int            `json:"chunk_id"`
	Text    string         `json:"text"`
	Terms   map[string]int `json:"terms"`
}

// Index is the persisted similarity index over the knowledge corpus.
type Index struct {
	DocHashes map[string]string `json:"doc_hashes"`
	Records   []Record          `json:"records"`
	Meta      IndexMeta         `json:"meta"`
}

// IndexMeta carries invalidation metadata.
type IndexMeta struct {
	IndexVersion  int       `json:"index_version"`
	ChunkMaxWords int       `json:"chunk_max_words"`
	ChunkOverlap  int       `json:"chunk_overlap"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

const (
	indexVersion     = 1
	chunkMaxWords    = 250
	chunkOverlapWord = 40
)

// Save writes the index atomically (tmp file + rename).
func (idx *Index) Save(path string) error {
	if idx == nil {
		return fmt.Errorf("nil index")
	}
	if idx.DocHashes == nil {
		idx.DocHashes = map[string]string{}
	}
	b, err := json.MarshalIndent(idx, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// LoadIndex reads a previously saved index.
func LoadIndex(path string) (*Index, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var idx Index
	if err := json.Unmarshal(b, &idx); err != nil {
		return nil, err
	}
	if idx.DocHashes == nil {
		idx.DocHashes = map[string]string{}
	}
	if idx.Meta.IndexVersion != indexVersion {
		return nil, fmt.Errorf("index version %d not supported", idx.Meta.IndexVersion)
	}
	return &idx, nil
}

// BuildIndex walks the corpus directory (.txt and .md files, recursively) and
// indexes every chunk. An empty corpus returns an index with zero records.
func BuildIndex(corpusDir string) (*Index, error) {
	now := time.Now()
	idx := &Index{
		DocHashes: map[string]string{},
		Meta: IndexMeta{
			IndexVersion:  indexVersion,
			ChunkMaxWords: chunkMaxWords,
			ChunkOverlap:  chunkOverlapWord,
			CreatedAt:     now,
			UpdatedAt:     now,
		},
	}

	err := filepath.Walk(corpusDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if ext != ".txt" && ext != ".md" {
			return nil
		}
		raw, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		name := filepath.Base(path)
		docID := fmt.Sprintf("%x", sha1.Sum([]byte(path)))
		idx.DocHashes[docID] = fmt.Sprintf("%x", sha1.Sum(raw))
		for i, chunk := range ChunkByWords(string(raw), chunkMaxWords, chunkOverlapWord) {
			idx.Records = append(idx.Records, Record{
				DocID:   docID,
				DocName: name,
				ChunkID: i,
				Text:    chunk,
				Terms:   termCounts(chunk),
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return idx, nil
}

var tokenPattern = regexp.MustCompile(`[a-zA-Z][a-zA-Z0-9']+`)

func termCounts(text string) map[string]int {
	counts := make(map[string]int)
	for _, tok := range tokenPattern.FindAllString(strings.ToLower(text), -1) {
		counts[tok]++
	}
	return counts
}

// scored pairs a record with its query similarity.
type scored struct {
	record Record
	score  float64
}

// Search ranks records by TF-IDF cosine similarity against the query text and
// returns the top k.
func (idx *Index) Search(query string, k int) []Record {
	if len(idx.Records) == 0 || k <= 0 {
		return nil
	}

	// Document frequency per term across chunks.
	df := make(map[string]int)
	for _, rec := range idx.Records {
		for term := range rec.Terms {
			df[term]++
		}
	}
	n := float64(len(idx.Records))
	idf := func(term string) float64 {
		d := df[term]
		if d == 0 {
			return 0
		}
		return math.Log(1 + n/float64(d))
	}

	queryTerms := termCounts(query)
	var queryNorm float64
	queryWeights := make(map[string]float64, len(queryTerms))
	for term, tf := range queryTerms {
		w := float64(tf) * idf(term)
		queryWeights[term] = w
		queryNorm += w * w
	}
	if queryNorm == 0 {
		return nil
	}
	queryNorm = math.Sqrt(queryNorm)

	results := make([]scored, 0, len(idx.Records))
	for _, rec := range idx.Records {
		var dot, recNorm float64
		for term, tf := range rec.Terms {
			w := float64(tf) * idf(term)
			recNorm += w * w
			if qw, ok := queryWeights[term]; ok {
				dot += w * qw
			}
		}
		if dot == 0 || recNorm == 0 {
			continue
		}
		results = append(results, scored{record: rec, score: dot / (queryNorm * math.Sqrt(recNorm))})
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].score > results[j].score })
	if len(results) > k {
		results = results[:k]
	}
	out := make([]Record, len(results))
	for i, s := range results {
		out[i] = s.record
	}
	return out
}
