package training

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"modaMarket/domain"
)

// csvHeader is the stable extract layout: identifiers, the feature schema
// in model order, then the label.
func csvHeader() []string {
	header := []string{"user_id", "article_id"}
	header = append(header, domain.FeatureColumns...)
	return append(header, "label")
}

// WritePairsCSV writes a labeled extract via tmp+rename so readers never
// observe a half-written file.
func WritePairsCSV(path string, pairs []domain.LabeledPair) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create extract directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".extract-*.csv")
	if err != nil {
		return fmt.Errorf("failed to create temp extract: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	if err := w.Write(csvHeader()); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write extract header: %w", err)
	}

	for _, p := range pairs {
		record := []string{
			strconv.FormatUint(uint64(p.UserID), 10),
			p.ArticleID,
		}
		for _, v := range p.Row() {
			record = append(record, strconv.FormatFloat(v, 'g', -1, 64))
		}
		record = append(record, strconv.Itoa(p.Label))

		if err := w.Write(record); err != nil {
			tmp.Close()
			return fmt.Errorf("failed to write extract row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to flush extract: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close extract: %w", err)
	}

	return os.Rename(tmp.Name(), path)
}

// ReadPairsCSV loads an extract written by WritePairsCSV. The header is
// validated against the current feature schema so a stale extract cannot
// silently train a skewed model.
func ReadPairsCSV(path string) ([]domain.LabeledPair, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open extract: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read extract header: %w", err)
	}

	want := csvHeader()
	if len(header) != len(want) {
		return nil, fmt.Errorf("extract has %d columns, want %d", len(header), len(want))
	}
	for i := range want {
		if header[i] != want[i] {
			return nil, fmt.Errorf("extract column %d is %q, want %q", i, header[i], want[i])
		}
	}

	var pairs []domain.LabeledPair
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read extract row: %w", err)
		}

		pair, err := parseRecord(record)
		if err != nil {
			return nil, err
		}
		pairs = append(pairs, pair)
	}

	return pairs, nil
}

func parseRecord(record []string) (domain.LabeledPair, error) {
	userID, err := strconv.ParseUint(record[0], 10, 64)
	if err != nil {
		return domain.LabeledPair{}, fmt.Errorf("bad user_id %q: %w", record[0], err)
	}

	values := make([]float64, len(domain.FeatureColumns))
	for i := range values {
		values[i], err = strconv.ParseFloat(record[2+i], 64)
		if err != nil {
			return domain.LabeledPair{}, fmt.Errorf("bad value in column %s: %w", domain.FeatureColumns[i], err)
		}
	}

	label, err := strconv.Atoi(record[len(record)-1])
	if err != nil {
		return domain.LabeledPair{}, fmt.Errorf("bad label %q: %w", record[len(record)-1], err)
	}

	fv := domain.FeatureVector{
		UserID:    uint(userID),
		ArticleID: record[1],

		RetrievalScore:          values[0],
		RetrievalRecentShort:    values[1],
		RetrievalRecentLong:     values[2],
		RetrievalBoughtTogether: values[3],
		RetrievalPopularAge:     values[4],

		UserTotalPurchases: values[5],
		UserRecencyDays:    values[6],
		UserAgeBin:         int(values[7]),

		ItemPopularity7d:  values[8],
		ItemPopularity30d: values[9],
		ItemPriceMean30d:  values[10],
		ItemDepartmentNo:  values[11],
		ItemGenderTag:     values[12],

		RecentInteraction7d: values[13],
		CoPurchaseWithLast3: values[14],
	}

	return domain.LabeledPair{FeatureVector: fv, Label: label}, nil
}

// WriteRunMeta persists the run metadata next to the extracts.
func WriteRunMeta(path string, meta RunMeta) error {
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal run metadata: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create metadata directory: %w", err)
	}

	return os.WriteFile(path, data, 0o644)
}
