package main

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	"github.com/tansell/receipt-ledger/internal/credentials"
	"github.com/tansell/receipt-ledger/internal/extraction"
	"github.com/tansell/receipt-ledger/internal/logging"
	"github.com/tansell/receipt-ledger/internal/pipeline"
	"github.com/tansell/receipt-ledger/internal/profile"
	"github.com/tansell/receipt-ledger/internal/web"
)

//go:embed VERSION.txt
var versionFile string

var version = strings.TrimSpace(versionFile)

func main() {
	fs := ff.NewFlagSet("receipt-ledger")
	var (
		port           = fs.IntLong("port", 8080, "HTTP server port")
		dataDir        = fs.StringLong("data", "./data", "Directory holding profile and record tables")
		journalPath    = fs.StringLong("journal", "receipt-ledger.db", "Upload journal database file path")
		structurerType = fs.StringLong("structurer", "openai", "Structuring backend: 'openai' or 'gemini'")
		openaiKey      = fs.StringLong("openai-key", "", "OpenAI API key (or set OPENAI_API_KEY env var)")
		openaiModel    = fs.StringLong("openai-model", "gpt-4o-mini", "OpenAI model name")
		geminiKey      = fs.StringLong("gemini-key", "", "Google Gemini API key (or set GEMINI_API_KEY env var)")
		geminiModel    = fs.StringLong("gemini-model", "gemini-2.5-flash", "Google Gemini model name")
		ocrLanguage    = fs.StringLong("ocr-language", "eng", "Tesseract OCR language")
		tokenBudget    = fs.IntLong("token-budget", extraction.DefaultTokenBudget, "Token ceiling for structuring requests")
		ocrTimeout     = fs.DurationLong("ocr-timeout", 60*time.Second, "OCR call timeout")
		llmTimeout     = fs.DurationLong("llm-timeout", 60*time.Second, "Structuring call timeout")
		credentialStr  = fs.StringLong("credentials", "", "Static credentials as 'user:pass,user:pass'")
		showVersion    = fs.BoolLong("version", "Show version information")
	)

	if err := ff.Parse(fs, os.Args[1:],
		ff.WithEnvVarPrefix("RECEIPT_LEDGER"),
	); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	if *showVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	logging.Setup()

	creds, err := credentials.ParseStatic(*credentialStr)
	if err != nil {
		slog.Error("Invalid credentials flag", "error", err)
		os.Exit(1)
	}
	if len(creds) == 0 {
		slog.Error("At least one credential pair is required. Set --credentials or RECEIPT_LEDGER_CREDENTIALS")
		os.Exit(1)
	}

	slog.Info("Initializing table store...", "data", *dataDir)
	store, err := profile.NewTableStore(*dataDir)
	if err != nil {
		slog.Error("Failed to initialize table store", "error", err)
		os.Exit(1)
	}

	slog.Info("Initializing upload journal...", "path", *journalPath)
	journal, err := pipeline.NewBoltJournal(*journalPath)
	if err != nil {
		slog.Error("Failed to initialize journal", "error", err)
		os.Exit(1)
	}
	defer journal.Close()

	var structurer extraction.Structurer
	var modelName string
	switch *structurerType {
	case "openai":
		apiKey := *openaiKey
		if apiKey == "" {
			apiKey = os.Getenv("OPENAI_API_KEY")
		}
		slog.Info("Initializing OpenAI structurer...", "model", *openaiModel)
		structurer, err = extraction.NewOpenAI(apiKey, *openaiModel)
		modelName = *openaiModel
	case "gemini":
		apiKey := *geminiKey
		if apiKey == "" {
			apiKey = os.Getenv("GEMINI_API_KEY")
		}
		slog.Info("Initializing Gemini structurer...", "model", *geminiModel)
		structurer, err = extraction.NewGemini(apiKey, *geminiModel)
		modelName = *geminiModel
	default:
		slog.Error("Invalid structurer type", "type", *structurerType, "valid", "openai or gemini")
		os.Exit(1)
	}
	if err != nil {
		slog.Error("Failed to initialize structurer", "error", err)
		os.Exit(1)
	}
	defer structurer.Close()

	ocr, err := extraction.NewTesseract(*ocrLanguage)
	if err != nil {
		slog.Error("Failed to initialize OCR", "error", err)
		os.Exit(1)
	}
	defer ocr.Close()

	guard := extraction.NewTokenGuard(modelName, *tokenBudget)

	proc := pipeline.New(ocr, structurer, guard, store, journal, slog.Default(), pipeline.Config{
		OCRTimeout: *ocrTimeout,
		LLMTimeout: *llmTimeout,
	})

	server := web.NewServer(proc, store, journal, creds)

	addr := fmt.Sprintf(":%d", *port)
	go func() {
		if err := server.Start(addr); err != nil {
			slog.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

	slog.Info("Server started", "address", fmt.Sprintf("http://localhost%s", addr))

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	slog.Info("Shutting down...")
}
