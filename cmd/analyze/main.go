package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spacesedan/sentiscope/config"
	"github.com/spacesedan/sentiscope/internal/analysis"
	"github.com/spacesedan/sentiscope/internal/charts"
	"github.com/spacesedan/sentiscope/internal/inference"
	"github.com/spacesedan/sentiscope/internal/logging"
	"github.com/spacesedan/sentiscope/internal/sentiment"
)

var sampleTexts = []string{
	"I am feeling very happy and excited today!",
	"This is the worst day of my life. I feel so sad.",
	"I’m nervous about my upcoming interview.",
	"The food was okay, not great but not terrible.",
}

func main() {
	chartDir := flag.String("charts", "", "directory to write one emotion chart PNG per text")
	flag.Parse()

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "dev"
	}
	config.LoadEnv(env)

	cfg, err := config.Load()
	if err != nil {
		logging.InitLogger("info")
		slog.Error("[Analyze] Invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logging.InitLogger(cfg.LogLevel)

	texts := flag.Args()
	if len(texts) == 0 {
		texts = sampleTexts
	}

	if err := run(context.Background(), cfg.Models, texts, *chartDir); err != nil {
		slog.Error("[Analyze] Failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.ModelConfig, texts []string, chartDir string) error {
	factory, err := inference.NewFactory(cfg)
	if err != nil {
		return err
	}

	handles, err := inference.NewLoader(factory).Load(ctx)
	if err != nil {
		return err
	}
	defer handles.Close()

	var opts []analysis.Option
	if cfg.LexiconCrossCheck {
		opts = append(opts, analysis.WithLexicon(sentiment.NewLexicon()))
	}
	analyzer := analysis.NewAnalyzer(handles, opts...)

	if chartDir != "" {
		if err := os.MkdirAll(chartDir, os.ModePerm); err != nil {
			return fmt.Errorf("failed to create chart directory: %w", err)
		}
	}

	for i, text := range texts {
		outcome, err := analyzer.Analyze(ctx, text)
		if err != nil {
			return err
		}
		if err := analysis.WriteReport(os.Stdout, outcome); err != nil {
			return err
		}

		if chartDir == "" {
			continue
		}
		png, err := charts.EmotionChart(outcome.Emotions)
		if err != nil {
			return err
		}
		path := filepath.Join(chartDir, fmt.Sprintf("emotions-%d.png", i+1))
		if err := os.WriteFile(path, png, 0o644); err != nil {
			return fmt.Errorf("failed to write chart: %w", err)
		}
		slog.Info("[Analyze] Chart written", slog.String("path", path))
	}
	return nil
}
