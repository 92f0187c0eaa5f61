package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/artyom/imagedups/internal/actions"
	"github.com/artyom/imagedups/internal/grouping"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// Document is the machine readable form of a run.
type Document struct {
	RunID       string    `json:"run_id"`
	GeneratedAt time.Time `json:"generated_at"`
	HashKind    string    `json:"hash_kind"`
	HashSize    int       `json:"hash_size"`
	Threshold   int       `json:"threshold"`
	// KeepStrategy is set when references are the files chosen to be kept.
	KeepStrategy string  `json:"keep_strategy,omitempty"`
	Groups       []Group `json:"groups"`
}

// Group lists the reference image first, then its duplicates. Reference is
// the kept file when the document was built with a plan; Representative is
// always the first member of the group in scan order.
type Group struct {
	GroupID        int      `json:"group_id"`
	Reference      string   `json:"reference"`
	Representative string   `json:"representative"`
	Images         []string `json:"images"`
}

// NewDocument builds a document for res with a fresh run id. Plan, if not
// empty, holds one decision per group as produced by actions.Plan.
func NewDocument(res *grouping.Result, plan []actions.Decision, hashKind string, hashSize, threshold int) *Document {
	doc := &Document{
		RunID:       uuid.NewString(),
		GeneratedAt: time.Now().UTC(),
		HashKind:    hashKind,
		HashSize:    hashSize,
		Threshold:   threshold,
		Groups:      make([]Group, 0, res.Len()),
	}
	res.Each(func(i int, g grouping.DuplicateGroup) bool {
		keep, others := anchor(i, g, plan)
		doc.Groups = append(doc.Groups, Group{
			GroupID:        i + 1,
			Reference:      keep,
			Representative: g.Representative,
			Images:         append([]string{keep}, others...),
		})
		return true
	})
	return doc
}

// Encode writes doc as indented JSON.
func (doc *Document) Encode(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

// WriteJSONFile writes doc to path through a temporary file in the same
// directory, so readers never observe a partial report.
func WriteJSONFile(path string, doc *Document) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".report-*.json")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if err := doc.Encode(tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("encoding report: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// ReadJSONFile loads a document written by WriteJSONFile.
func ReadJSONFile(path string) (*Document, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	doc := new(Document)
	if err := json.Unmarshal(b, doc); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}
