package main

import (
	"fmt"
	"path/filepath"
	"sort"

	"modaMarket/business/ranker"
	"modaMarket/business/training"
	"modaMarket/domain"
	"modaMarket/pkg/config"
	"modaMarket/pkg/logger"

	"github.com/spf13/cobra"
)

func trainCmd() *cobra.Command {
	var (
		dataDir   string
		modelPath string
	)

	cmd := &cobra.Command{
		Use:   "train",
		Short: "Fit the ranking model from the latest dataset",
		RunE: func(_ *cobra.Command, _ []string) error {
			// training reads only the CSV extracts, no database needed
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			logger.Init(cfg.App.Environment)
			if dataDir == "" {
				dataDir = cfg.Recsys.DataDir
			}
			if modelPath == "" {
				modelPath = cfg.Recsys.ModelPath
			}

			train, err := training.ReadPairsCSV(filepath.Join(dataDir, "train.csv"))
			if err != nil {
				return fmt.Errorf("failed to read train set: %w", err)
			}
			val, err := training.ReadPairsCSV(filepath.Join(dataDir, "val.csv"))
			if err != nil {
				return fmt.Errorf("failed to read validation set: %w", err)
			}

			return fitAndSave(train, val, modelPath)
		},
	}

	cmd.Flags().StringVar(&dataDir, "data-dir", "", "dataset directory (default RECSYS_DATA_DIR)")
	cmd.Flags().StringVar(&modelPath, "model-path", "", "artifact output path (default RECSYS_MODEL_PATH)")
	return cmd
}

func pipelineCmd() *cobra.Command {
	var (
		dataDir   string
		modelPath string
	)

	cmd := &cobra.Command{
		Use:   "pipeline",
		Short: "Build the dataset and fit the model in one run",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, db, err := bootstrap()
			if err != nil {
				return err
			}
			if dataDir == "" {
				dataDir = cfg.Recsys.DataDir
			}
			if modelPath == "" {
				modelPath = cfg.Recsys.ModelPath
			}

			dataset, err := buildDataset(cmd.Context(), cfg, db, dataDir)
			if err != nil {
				return err
			}

			return fitAndSave(dataset.Train, dataset.Val, modelPath)
		},
	}

	cmd.Flags().StringVar(&dataDir, "data-dir", "", "dataset directory (default RECSYS_DATA_DIR)")
	cmd.Flags().StringVar(&modelPath, "model-path", "", "artifact output path (default RECSYS_MODEL_PATH)")
	return cmd
}

func fitAndSave(train, val []domain.LabeledPair, modelPath string) error {
	model, err := ranker.NewTrainer(ranker.DefaultParams()).Fit(train, val)
	if err != nil {
		return fmt.Errorf("training failed: %w", err)
	}

	printMetrics(model)

	if err := model.Save(modelPath); err != nil {
		return fmt.Errorf("failed to save model: %w", err)
	}

	logger.Info("model saved", "path", modelPath, "trees", len(model.Trees), "best_iteration", model.BestIteration)
	return nil
}

func printMetrics(model *ranker.Model) {
	m := model.Metrics

	fmt.Printf("train AUC  %.4f\n", m.TrainAUC)
	fmt.Printf("val AUC    %.4f\n", m.ValAUC)

	ks := make([]int, 0, len(m.MAPAtK))
	for k := range m.MAPAtK {
		ks = append(ks, k)
	}
	sort.Ints(ks)
	for _, k := range ks {
		fmt.Printf("MAP@%-2d     %.4f    Recall@%-2d  %.4f\n", k, m.MAPAtK[k], k, m.RecallAtK[k])
	}

	fmt.Println("top features by gain:")
	limit := 10
	if len(m.Importance) < limit {
		limit = len(m.Importance)
	}
	for _, fi := range m.Importance[:limit] {
		fmt.Printf("  %-28s %.2f\n", fi.Feature, fi.Gain)
	}
}
