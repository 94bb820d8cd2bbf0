package clients

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knights-analytics/hugot"
	"github.com/knights-analytics/hugot/pipelines"

	"github.com/spacesedan/sentiscope/internal/models"
)

// HugotRuntime owns the in-process ONNX session shared by every pipeline built
// from it. The session needs the onnxruntime shared library on the host.
type HugotRuntime struct {
	session  *hugot.Session
	modelDir string
}

func NewHugotRuntime(modelDir string) (*HugotRuntime, error) {
	if err := os.MkdirAll(modelDir, os.ModePerm); err != nil {
		return nil, fmt.Errorf("failed to create model directory: %w", err)
	}

	session, err := hugot.NewORTSession()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize hugot session: %w", err)
	}

	slog.Info("[HugotRuntime] Session initialized", slog.String("model_dir", modelDir))
	return &HugotRuntime{session: session, modelDir: modelDir}, nil
}

// Classifier downloads the model on first use and builds a text classification
// pipeline that reports softmax scores for every label.
func (r *HugotRuntime) Classifier(model, name string) (*HugotClassifier, error) {
	modelPath, err := r.ensureModel(model)
	if err != nil {
		return nil, err
	}

	config := hugot.TextClassificationConfig{
		ModelPath: modelPath,
		Name:      name,
		Options: []hugot.TextClassificationOption{
			pipelines.WithSoftmax(),
			pipelines.WithMultiLabel(),
		},
	}

	pipeline, err := hugot.NewPipeline(r.session, config)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize %s pipeline: %w", name, err)
	}

	slog.Info("[HugotRuntime] Pipeline ready",
		slog.String("name", name),
		slog.String("model", model))
	return &HugotClassifier{pipeline: pipeline, model: model}, nil
}

func (r *HugotRuntime) ensureModel(model string) (string, error) {
	modelPath := filepath.Join(r.modelDir, strings.ReplaceAll(model, "/", "_"))

	if _, err := os.Stat(modelPath); err == nil {
		slog.Info("[HugotRuntime] Using existing model", slog.String("path", modelPath))
		return modelPath, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("failed to stat model %s: %w", model, err)
	}

	slog.Info("[HugotRuntime] Model not found, downloading...", slog.String("model", model))
	start := time.Now()
	downloaded, err := hugot.DownloadModel(model, r.modelDir, hugot.NewDownloadOptions())
	if err != nil {
		return "", fmt.Errorf("failed to download model %s: %w", model, err)
	}

	slog.Info("[HugotRuntime] Model downloaded successfully",
		slog.String("path", downloaded),
		slog.Duration("elapsed", time.Since(start)))
	return downloaded, nil
}

func (r *HugotRuntime) Close() error {
	if r.session == nil {
		return nil
	}
	return r.session.Destroy()
}

// HugotClassifier runs one text classification pipeline in process
type HugotClassifier struct {
	pipeline *pipelines.TextClassificationPipeline
	model    string
}

func (c *HugotClassifier) Model() string {
	return c.model
}

// Classify runs the pipeline on a single input. The context is only checked
// before the call; ONNX inference itself cannot be interrupted.
func (c *HugotClassifier) Classify(ctx context.Context, text string) ([]models.ClassificationResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	output, err := c.pipeline.RunPipeline([]string{text})
	if err != nil {
		return nil, fmt.Errorf("pipeline run failed: %w", err)
	}

	if len(output.ClassificationOutputs) == 0 || len(output.ClassificationOutputs[0]) == 0 {
		return nil, errors.New("pipeline returned no labels")
	}

	results := make([]models.ClassificationResult, 0, len(output.ClassificationOutputs[0]))
	for _, o := range output.ClassificationOutputs[0] {
		results = append(results, models.ClassificationResult{
			Label: o.Label,
			Score: float64(o.Score),
		})
	}
	return results, nil
}
