package ranker

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"modaMarket/domain"
)

// Model is the persisted tree ensemble. The artifact embeds its feature
// schema so a server never scores with a mismatched builder.
type Model struct {
	Trees              []*TreeNode `json:"trees"`
	BaseScore          float64     `json:"base_score"`
	LearningRate       float64     `json:"learning_rate"`
	Columns            []string    `json:"feature_columns"`
	CategoricalIndexes []int       `json:"categorical_indexes"`
	Params             Params      `json:"hyperparameters"`
	BestIteration      int         `json:"best_iteration"`
	Metrics            EvalMetrics `json:"metrics"`
	TrainedAt          time.Time   `json:"trained_at"`
}

// PredictRow returns the purchase probability for one feature row.
func (m *Model) PredictRow(row []float64) float64 {
	score := m.BaseScore
	for _, tree := range m.Trees {
		score += m.LearningRate * tree.Predict(row)
	}

	return sigmoid(score)
}

// PredictBatch scores every vector in order.
func (m *Model) PredictBatch(vectors []domain.FeatureVector) []float64 {
	out := make([]float64, len(vectors))
	for i, fv := range vectors {
		out[i] = m.PredictRow(fv.Row())
	}

	return out
}

// Save writes the artifact via tmp+rename so a concurrent loader never
// reads a torn file.
func (m *Model) Save(path string) error {
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to marshal model: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create model directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".model-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp model file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write model: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close model file: %w", err)
	}

	return os.Rename(tmp.Name(), path)
}

// Load reads and validates a model artifact. A schema mismatch is an
// error, not a warning: scoring with shifted columns produces silently
// wrong rankings.
func Load(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read model file: %w", err)
	}

	var m Model
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse model file: %w", err)
	}

	if len(m.Trees) == 0 {
		return nil, fmt.Errorf("model %s has no trees", path)
	}
	if len(m.Columns) != len(domain.FeatureColumns) {
		return nil, fmt.Errorf("model %s has %d feature columns, want %d",
			path, len(m.Columns), len(domain.FeatureColumns))
	}
	for i, col := range domain.FeatureColumns {
		if m.Columns[i] != col {
			return nil, fmt.Errorf("model %s column %d is %q, want %q", path, i, m.Columns[i], col)
		}
	}

	return &m, nil
}
