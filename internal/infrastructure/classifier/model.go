// Package classifier loads a pre-trained TF-IDF text classifier and predicts
// catalog categories from item titles.
//
// The artifact is a YAML (or JSON) export of a fitted TF-IDF vectorizer and a
// linear model such as logistic regression:
//
//	vocabulary: {puzzle: 0, chess: 1, ...}
//	idf: [1.69, 2.1, ...]
//	classes: [Games, Puzzles, ...]
//	coef: [[...], [...]]      # one row per class, or a single row for two classes
//	intercept: [0.1, -0.3]
//	sublinear_tf: false
//	norm: l2                  # l2, l1 or none
//	ngram_range: [1, 1]
package classifier

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// tokenPattern matches runs of two or more word characters
var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}_]{2,}`)

// Artifact is the serialized form of a trained model
type Artifact struct {
	Vocabulary  map[string]int `yaml:"vocabulary"`
	IDF         []float64      `yaml:"idf"`
	Classes     []string       `yaml:"classes"`
	Coef        [][]float64    `yaml:"coef"`
	Intercept   []float64      `yaml:"intercept"`
	Lowercase   *bool          `yaml:"lowercase"`
	SublinearTF bool           `yaml:"sublinear_tf"`
	Norm        string         `yaml:"norm"`
	NgramRange  []int          `yaml:"ngram_range"`
}

// Model is a loaded, validated classifier. It is safe for concurrent use.
type Model struct {
	vocabulary  map[string]int
	idf         []float64
	classes     []string
	coef        [][]float64
	intercept   []float64
	lowercase   bool
	sublinearTF bool
	norm        string
	minN, maxN  int
}

// Load reads a model artifact from path.
// It returns (nil, nil) when path is empty or the file does not exist, meaning no classifier is configured.
func Load(path string) (*Model, error) {
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read classifier artifact: %w", err)
	}

	var artifact Artifact
	if err := yaml.Unmarshal(data, &artifact); err != nil {
		return nil, fmt.Errorf("decode classifier artifact: %w", err)
	}

	return NewModel(artifact)
}

// NewModel validates an artifact and builds a model from it
func NewModel(a Artifact) (*Model, error) {
	features := len(a.IDF)
	if features == 0 {
		return nil, errors.New("classifier artifact has no idf weights")
	}
	for term, idx := range a.Vocabulary {
		if idx < 0 || idx >= features {
			return nil, fmt.Errorf("vocabulary term %q has index %d outside [0,%d)", term, idx, features)
		}
	}

	if len(a.Classes) < 2 {
		return nil, fmt.Errorf("classifier artifact needs at least 2 classes, got %d", len(a.Classes))
	}
	wantRows := len(a.Classes)
	if wantRows == 2 {
		wantRows = 1
	}
	if len(a.Coef) != wantRows && len(a.Coef) != len(a.Classes) {
		return nil, fmt.Errorf("classifier artifact has %d coefficient rows for %d classes", len(a.Coef), len(a.Classes))
	}
	for i, row := range a.Coef {
		if len(row) != features {
			return nil, fmt.Errorf("coefficient row %d has %d weights, want %d", i, len(row), features)
		}
	}
	if len(a.Intercept) != len(a.Coef) {
		return nil, fmt.Errorf("classifier artifact has %d intercepts for %d coefficient rows", len(a.Intercept), len(a.Coef))
	}

	norm := strings.ToLower(a.Norm)
	switch norm {
	case "":
		norm = "l2"
	case "l1", "l2", "none":
	default:
		return nil, fmt.Errorf("unsupported norm %q", a.Norm)
	}

	minN, maxN := 1, 1
	if len(a.NgramRange) == 2 {
		minN, maxN = a.NgramRange[0], a.NgramRange[1]
	}
	if minN < 1 || maxN < minN {
		return nil, fmt.Errorf("invalid ngram_range %v", a.NgramRange)
	}

	lowercase := true
	if a.Lowercase != nil {
		lowercase = *a.Lowercase
	}

	return &Model{
		vocabulary:  a.Vocabulary,
		idf:         a.IDF,
		classes:     a.Classes,
		coef:        a.Coef,
		intercept:   a.Intercept,
		lowercase:   lowercase,
		sublinearTF: a.SublinearTF,
		norm:        norm,
		minN:        minN,
		maxN:        maxN,
	}, nil
}

// Classes returns the labels the model can predict
func (m *Model) Classes() []string {
	return append([]string(nil), m.classes...)
}

// Predict vectorizes text and returns the highest scoring class
func (m *Model) Predict(ctx context.Context, text string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	scores := m.decision(m.transform(text))

	if len(m.coef) == 1 {
		if scores[0] > 0 {
			return m.classes[1], nil
		}
		return m.classes[0], nil
	}

	best := 0
	for i := 1; i < len(scores); i++ {
		if scores[i] > scores[best] {
			best = i
		}
	}
	return m.classes[best], nil
}

// feature is one non-zero entry of a tf-idf vector
type feature struct {
	index int
	value float64
}

// transform builds the sparse tf-idf vector for text, ordered by feature index
func (m *Model) transform(text string) []feature {
	counts := make(map[int]float64)
	for _, term := range m.terms(text) {
		if idx, ok := m.vocabulary[term]; ok {
			counts[idx]++
		}
	}

	vector := make([]feature, 0, len(counts))
	for idx, tf := range counts {
		if m.sublinearTF {
			tf = 1 + math.Log(tf)
		}
		vector = append(vector, feature{index: idx, value: tf * m.idf[idx]})
	}
	sort.Slice(vector, func(i, j int) bool { return vector[i].index < vector[j].index })

	var total float64
	switch m.norm {
	case "l2":
		for _, f := range vector {
			total += f.value * f.value
		}
		total = math.Sqrt(total)
	case "l1":
		for _, f := range vector {
			total += math.Abs(f.value)
		}
	}
	if total > 0 {
		for i := range vector {
			vector[i].value /= total
		}
	}

	return vector
}

// terms tokenizes text and expands it into word n-grams
func (m *Model) terms(text string) []string {
	if m.lowercase {
		text = strings.ToLower(text)
	}
	tokens := tokenPattern.FindAllString(text, -1)

	if m.minN == 1 && m.maxN == 1 {
		return tokens
	}

	var terms []string
	for n := m.minN; n <= m.maxN; n++ {
		for i := 0; i+n <= len(tokens); i++ {
			terms = append(terms, strings.Join(tokens[i:i+n], " "))
		}
	}
	return terms
}

func (m *Model) decision(vector []feature) []float64 {
	scores := make([]float64, len(m.coef))
	for row, weights := range m.coef {
		score := m.intercept[row]
		for _, f := range vector {
			score += weights[f.index] * f.value
		}
		scores[row] = score
	}
	return scores
}
