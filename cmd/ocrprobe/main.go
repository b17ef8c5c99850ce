// Command ocrprobe runs one document through the configured OCR provider
// and prints the recognized fields. It does not touch the database.
//
//	ocrprobe -kind driving ./samples/driving.jpg
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"freight-insure/internal/intake"
	"freight-insure/internal/service"
	"freight-insure/internal/storage"
	"freight-insure/pkg/config"
	"freight-insure/pkg/logger"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

func main() {
	kindFlag := flag.String("kind", string(intake.KindIDCard), "document kind: idCard, business, driving or certificate")
	keep := flag.Bool("keep", false, "keep the uploaded probe file in storage")
	flag.Parse()

	if flag.NArg() != 1 {
		log.Fatalf("usage: ocrprobe -kind <kind> <file>")
	}
	kind, err := intake.ParseDocumentKind(*kindFlag)
	if err != nil {
		log.Fatalf("Invalid kind: %v", err)
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	if err := logger.Init(cfg.Logger.Level); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()
	appLogger := logger.Get()

	store, err := storage.New(&cfg.Storage, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize document storage", zap.Error(err))
	}

	var provider service.Recognizer
	if cfg.OCR.Provider == "gigachat" {
		llmService, err := service.NewLLMService(&cfg.GigaChat, store, appLogger)
		if err != nil {
			appLogger.Fatal("Failed to initialize LLM service", zap.Error(err))
		}
		defer llmService.Close()
		provider = llmService
	} else {
		provider = service.NewRemoteOCR(&cfg.OCR, cfg.Order.ServiceToken, appLogger)
	}
	ocrService := service.NewOCRService(provider, cfg.OCR.Provider, appLogger)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	path := flag.Arg(0)
	data, err := os.ReadFile(path)
	if err != nil {
		appLogger.Fatal("Failed to read file", zap.String("path", path), zap.Error(err))
	}
	detected := mimetype.Detect(data)

	key := fmt.Sprintf("probe/%s%s", uuid.New().String(), detected.Extension())
	obj, err := store.Put(ctx, key, detected.String(), bytes.NewReader(data))
	if err != nil {
		appLogger.Fatal("Failed to store probe file", zap.Error(err))
	}
	if !*keep {
		defer func() {
			if err := store.Delete(context.Background(), obj.Key); err != nil {
				appLogger.Warn("Failed to remove probe file", zap.String("key", obj.Key), zap.Error(err))
			}
		}()
	}

	res, err := ocrService.Extract(ctx, kind, intake.UploadedFile{
		Name:        filepath.Base(path),
		URL:         obj.URL,
		ContentType: detected.String(),
		Key:         obj.Key,
	})
	if err != nil {
		appLogger.Error("Recognition failed", zap.Error(err))
		return
	}

	out, _ := json.MarshalIndent(res, "", "  ")
	fmt.Println(string(out))
}
