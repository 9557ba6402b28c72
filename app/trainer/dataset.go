package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"modaMarket/business/feature"
	"modaMarket/business/retrieval"
	"modaMarket/business/training"
	"modaMarket/domain"
	psqlRepo "modaMarket/internal/repository/postgres"
	"modaMarket/pkg/config"
	"modaMarket/pkg/logger"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

func datasetCmd() *cobra.Command {
	var dataDir string

	cmd := &cobra.Command{
		Use:   "dataset",
		Short: "Build labeled train/val CSVs from the transaction log",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, db, err := bootstrap()
			if err != nil {
				return err
			}
			if dataDir == "" {
				dataDir = cfg.Recsys.DataDir
			}

			_, err = buildDataset(cmd.Context(), cfg, db, dataDir)
			return err
		},
	}

	cmd.Flags().StringVar(&dataDir, "data-dir", "", "output directory (default RECSYS_DATA_DIR)")
	return cmd
}

// buildDataset derives the training windows from the newest purchase,
// generates candidates against an index truncated to the train window and
// writes train.csv, val.csv and run_meta.json into dataDir.
func buildDataset(ctx context.Context, cfg *config.Config, db *gorm.DB, dataDir string) (*training.Dataset, error) {
	txnRepo := psqlRepo.NewTransactionRepository(db)
	userRepo := psqlRepo.NewUserRepository(db)
	productRepo := psqlRepo.NewProductRepository(db)

	maxDate, err := txnRepo.LatestPurchaseAt(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to find newest purchase: %w", err)
	}

	w := training.DeriveWindows(maxDate)
	logger.Info("derived training windows", "windows", w.String())

	allTxns, err := txnRepo.FindWindow(ctx, w.TrainStart, w.TargetEnd)
	if err != nil {
		return nil, fmt.Errorf("failed to load transactions: %w", err)
	}

	users, err := userRepo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load users: %w", err)
	}

	// Candidates and features must only see purchases up to the train
	// window end, otherwise target purchases leak into the features.
	var trainTxns []domain.Transaction
	for _, t := range allTxns {
		if !t.PurchasedAt.After(w.TrainEnd) {
			trainTxns = append(trainTxns, t)
		}
	}

	idx := retrieval.NewTxnIndex(trainTxns, users)

	retrievalCfg := retrieval.DefaultConfig()
	if cfg.Recsys.TopNCandidates > 0 {
		retrievalCfg.TopN = cfg.Recsys.TopNCandidates
	}
	retrievalSvc := retrieval.NewService(retrievalCfg, txnRepo, userRepo, retrieval.NewMemoryPopularityCache())
	retrievalSvc.UseIndex(idx)

	builder := feature.NewBuilder(feature.DefaultConfig(), retrievalSvc, productRepo)

	trainCfg := training.DefaultConfig()
	trainCfg.TopN = retrievalCfg.TopN
	constructor := training.NewConstructor(trainCfg, retrievalSvc, builder)

	positives := training.PositivesFromTransactions(allTxns, w)

	dataset, err := constructor.Build(ctx, idx.ActiveUsers(), positives, w)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}

	if err := training.WritePairsCSV(filepath.Join(dataDir, "train.csv"), dataset.Train); err != nil {
		return nil, err
	}
	if err := training.WritePairsCSV(filepath.Join(dataDir, "val.csv"), dataset.Val); err != nil {
		return nil, err
	}
	if err := training.WriteRunMeta(filepath.Join(dataDir, "run_meta.json"), dataset.Meta); err != nil {
		return nil, err
	}

	logger.Info("dataset written",
		"run_id", dataset.Meta.RunID,
		"dir", dataDir,
		"train_pairs", len(dataset.Train),
		"val_pairs", len(dataset.Val),
		"positives", dataset.Meta.Positives,
		"zero_negative_users", dataset.Meta.ZeroNegativeUsers)

	return dataset, nil
}
