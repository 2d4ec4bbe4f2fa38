package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt" // For initial error printing before logger is up
	"os"
	"path/filepath"
	"strings"

	"quiz-lens/internal/adapter/ocr"
	"quiz-lens/internal/adapter/quizgen"
	"quiz-lens/internal/config"
	"quiz-lens/internal/domain"
	"quiz-lens/internal/logger"
	"quiz-lens/internal/service"
	"quiz-lens/internal/validation"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type output struct {
	Level   string                `json:"level"`
	Source  string                `json:"source"`
	Text    string                `json:"text"`
	Dropped int                   `json:"dropped,omitempty"`
	MCQs    []domain.QuizQuestion `json:"mcqs"`
}

// generate_quiz runs the OCR and quiz generation pipeline once and prints
// the quiz as JSON. It uses the same configuration as the server.
func main() {
	textFile := flag.String("text", "", "path to a text file to build the quiz from")
	imageFile := flag.String("image", "", "path to a PNG or JPEG image to read the text from")
	level := flag.String("level", string(domain.LevelEasy), "difficulty: easy, medium or hard")
	flag.Parse()

	if (*textFile == "") == (*imageFile == "") {
		fmt.Fprintln(os.Stderr, "exactly one of -text or -image is required")
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	// stdout carries the quiz JSON only.
	if err := logger.Initialize(cfg.Logger, logger.WithOutput(zapcore.Lock(os.Stderr))); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	l := logger.Get()

	quizLevel, err := domain.ParseQuizLevel(*level)
	if err != nil {
		l.Fatal("Invalid level", zap.Error(err))
	}

	ctx := context.Background()
	var text, source string
	if *textFile != "" {
		data, err := os.ReadFile(*textFile)
		if err != nil {
			l.Fatal("Failed to read text file", zap.String("path", *textFile), zap.Error(err))
		}
		text, source = string(data), *textFile
		if errs := validation.NewValidator().ValidateText(text); len(errs) > 0 {
			l.Fatal("Text is not usable", zap.Error(errs))
		}
	} else {
		text, err = readImage(ctx, cfg.OCR, *imageFile)
		if err != nil {
			l.Fatal("Failed to extract text", zap.String("path", *imageFile), zap.Error(err))
		}
		source = *imageFile
		l.Info("Extracted text from image", zap.String("path", source), zap.Int("chars", len(text)))
	}
	if strings.TrimSpace(text) == "" {
		l.Fatal("No text to build a quiz from", zap.String("source", source))
	}

	completer, err := quizgen.NewCompleter(ctx, cfg.LLM)
	if err != nil {
		l.Fatal("Failed to create LLM client", zap.Error(err))
	}
	requester := service.NewQuizRequester(quizgen.NewLLMQuizGenerator(completer, cfg.LLM.Timeout))

	l.Info("Generating quiz...", zap.String("provider", cfg.LLM.Provider), zap.String("level", string(quizLevel)))
	outcome := requester.Generate(ctx, text, quizLevel)
	if outcome.Failed() {
		l.Fatal("Quiz generation failed", zap.String("notice", outcome.Notice()), zap.Error(outcome.Failure))
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(output{
		Level:   string(quizLevel),
		Source:  source,
		Text:    text,
		Dropped: outcome.Dropped,
		MCQs:    outcome.Questions,
	}); err != nil {
		l.Fatal("Failed to write quiz", zap.Error(err))
	}
	l.Info("Quiz generated", zap.Int("questions", len(outcome.Questions)), zap.Int("dropped", outcome.Dropped))
}

func readImage(ctx context.Context, cfg config.OCRConfig, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	contentType := "image/png"
	if ext := strings.ToLower(filepath.Ext(path)); ext == ".jpg" || ext == ".jpeg" {
		contentType = "image/jpeg"
	}
	name := filepath.Base(path)
	if errs := validation.NewValidator().ValidateImageUpload(name, contentType, int64(len(data)), cfg.MaxImageBytes); len(errs) > 0 {
		return "", errs
	}
	return ocr.NewTesseractExtractor(cfg).ExtractText(ctx, domain.ImageUpload{
		Filename:    name,
		ContentType: contentType,
		Data:        data,
	})
}
