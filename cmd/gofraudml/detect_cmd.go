package main

import (
	"fmt"
	"os"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/voyara-ai/gofraudml/pkg/detectors/iforest"
	gmio "github.com/voyara-ai/gofraudml/pkg/io"
	"github.com/voyara-ai/gofraudml/pkg/io/csv"
	"github.com/voyara-ai/gofraudml/pkg/io/jsonl"
)

type detectCmdConfig struct {
	input         string
	model         string
	output        string
	anomaliesOnly bool
}

func detectCmd() *cobra.Command {
	config := &detectCmdConfig{}
	cmd := &cobra.Command{
		Use:   "detect",
		Short: "Score a CSV dataset against a trained model",
		Long:  `Loads a trained model, scores every row of the input CSV, and writes one JSON result per line`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDetect(config)
		},
	}
	cmd.Flags().StringVarP(&config.input, "input", "i", "", "dataset CSV to score (header row names the features)")
	cmd.Flags().StringVarP(&config.model, "model", "m", "model.bin", "path of the trained model")
	cmd.Flags().StringVarP(&config.output, "output", "o", "", "output file for JSON-lines results (default stdout)")
	cmd.Flags().BoolVar(&config.anomaliesOnly, "anomalies-only", false, "emit only rows classified as anomalous")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

func runDetect(config *detectCmdConfig) error {
	snapshot, err := os.ReadFile(config.model)
	if err != nil {
		return fmt.Errorf("reading model %s: %w", config.model, err)
	}

	forest := iforest.New()
	if err := forest.Load(snapshot); err != nil {
		return fmt.Errorf("loading model: %w", err)
	}
	log.WithFields(log.Fields{
		"features":  len(forest.Schema()),
		"threshold": forest.Threshold(),
	}).Debug("model loaded")

	reader, err := csv.NewReader(config.input)
	if err != nil {
		return fmt.Errorf("opening %s: %w", config.input, err)
	}
	defer reader.Close()

	points, err := reader.Read()
	if err != nil {
		return fmt.Errorf("reading %s: %w", config.input, err)
	}

	out := os.Stdout
	if config.output != "" {
		out, err = os.Create(config.output)
		if err != nil {
			return fmt.Errorf("creating %s: %w", config.output, err)
		}
		defer out.Close()
	}
	writer := jsonl.NewWriter(out)

	detections := forest.DetectBatch(points)

	anomalies := 0
	skipped := 0
	for i, d := range detections {
		if d.Err != nil {
			skipped++
			log.WithError(d.Err).Warnf("row %d skipped", i)
			continue
		}
		if d.Result.IsAnomaly {
			anomalies++
		}
		if config.anomaliesOnly && !d.Result.IsAnomaly {
			continue
		}
		result := gmio.Result{
			Timestamp:  time.Now().Unix(),
			Score:      d.Result.Score,
			IsAnomaly:  d.Result.IsAnomaly,
			Confidence: d.Result.Confidence,
			Features:   points[i],
		}
		if err := writer.Write(result); err != nil {
			return fmt.Errorf("writing result: %w", err)
		}
	}

	log.WithFields(log.Fields{
		"scored":    len(detections) - skipped,
		"anomalies": anomalies,
		"skipped":   skipped,
	}).Info("detection complete")
	return nil
}
