// ocrsynth is a command-line tool for rendering OCR results as PDF, with every
// word set in an embedded font and fitted to the box it was recognized in.
//
// Input can be hOCR, a saved Google Document AI response, or the native JSON
// form of the OCR model. The format is detected from the file unless -format
// is given.
//
// Usage:
//
//	ocrsynth -input page.hocr -output page.pdf [options]
//
// Options:
//
//	-config string    YAML configuration (display mode, thresholds, fonts)
//	-format string    Input format: hocr, gdocai-json or json
//	-mode string      Display mode: book, proof, evaluation or invisible
//	-rotate-text      Rotate text by the page skew
//	-rotate-bg        Keep text level; the background is rotated instead
//	-pages string     Page range "start:end" (zero-based, end exclusive)
//	-recalc           Recompute line boxes from word boxes
//	-text string      Also write the plain text of the document
//	-json string      Also write the document in native JSON form
//	-overwrite        Overwrite the output file if it exists
//	-quiet            Do not log warnings
//	-debug            Log per-glyph substitutions
//	-enqueue          Queue the job for ocrsynth-worker (REDIS_ADDR) instead
//	-list-fonts       Print the fonts available with -config and exit
//
// Environment variables are read from .env when present.
//
// Example:
//
//	ocrsynth -input scan.hocr -mode proof -config ocrsynth.yml -output proof.pdf
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"

	"github.com/gardar/ocrsynth/internal/config"
	"github.com/gardar/ocrsynth/internal/input"
	"github.com/gardar/ocrsynth/pkg/fonts"
	"github.com/gardar/ocrsynth/pkg/jobs"
	"github.com/gardar/ocrsynth/pkg/ocr"
	"github.com/gardar/ocrsynth/pkg/synth"
)

func main() {
	inputPath := flag.String("input", "", "Path to the OCR input file (required)")
	outputPath := flag.String("output", "", "Output PDF path")
	configPath := flag.String("config", "", "Path to a YAML configuration file")
	format := flag.String("format", "", "Input format: hocr, gdocai-json or json (default: detect)")
	mode := flag.String("mode", "", "Display mode: book, proof, evaluation or invisible")
	rotateText := flag.Bool("rotate-text", false, "Rotate text by the page skew angle")
	rotateBackground := flag.Bool("rotate-bg", false, "Keep text level and rotate the background instead")
	pages := flag.String("pages", "", "Page range start:end (zero-based, end exclusive)")
	recalc := flag.Bool("recalc", false, "Recompute line boxes from word boxes")
	textPath := flag.String("text", "", "Path to save the plain text")
	jsonPath := flag.String("json", "", "Path to save the document as native JSON")
	overwrite := flag.Bool("overwrite", false, "Overwrite the output PDF if it already exists")
	quiet := flag.Bool("quiet", false, "Do not log warnings")
	debug := flag.Bool("debug", false, "Log per-glyph substitutions")
	enqueue := flag.Bool("enqueue", false, "Queue the synthesis for ocrsynth-worker instead of running it")
	fontList := flag.Bool("list-fonts", false, "Print the available fonts and exit")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: failed to load .env: %v", err)
	}

	if *fontList {
		cfg := config.Default()
		if *configPath != "" {
			var err error
			if cfg, err = config.Load(*configPath); err != nil {
				log.Fatalf("Failed to load config: %v", err)
			}
		}
		store, err := cfg.Fonts.Store()
		if err != nil {
			log.Fatalf("Failed to load fonts: %v", err)
		}
		listFonts(os.Stdout, store)
		return
	}

	if *inputPath == "" {
		fmt.Fprintln(os.Stderr, "Error: -input flag is required")
		flag.PrintDefaults()
		os.Exit(1)
	}
	if *outputPath == "" && *textPath == "" && *jsonPath == "" {
		fmt.Fprintln(os.Stderr, "Error: at least one of -output, -text or -json is required")
		flag.PrintDefaults()
		os.Exit(1)
	}
	if *outputPath != "" && !*overwrite {
		if _, err := os.Stat(*outputPath); err == nil {
			fmt.Printf("Output file %s already exists. Use -overwrite to overwrite.\n", *outputPath)
			os.Exit(1)
		}
	}

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
	}
	if err := applyFlags(cfg, *mode, *pages, *rotateText, *rotateBackground, *recalc, *quiet); err != nil {
		log.Fatalf("Invalid options: %v", err)
	}
	cfg.Debug = cfg.Debug || *debug

	inputFormat, err := input.ParseFormat(*format)
	if err != nil {
		log.Fatalf("Invalid format: %v", err)
	}
	if *enqueue {
		if *outputPath == "" {
			log.Fatalf("-enqueue requires -output")
		}
		id, err := enqueueJob(*inputPath, *outputPath, inputFormat, cfg)
		if err != nil {
			log.Fatalf("Failed to enqueue: %v", err)
		}
		fmt.Println("Queued synthesis task:", id)
		return
	}

	doc, err := input.Load(*inputPath, inputFormat, input.Options{FontFamily: cfg.FontFamily})
	if err != nil {
		log.Fatalf("Failed to read input: %v", err)
	}
	fmt.Printf("Loaded %d pages from %s\n", len(doc.Pages), *inputPath)

	if *textPath != "" {
		if err := os.WriteFile(*textPath, []byte(doc.Text()), 0644); err != nil {
			log.Fatalf("Failed to write text output: %v", err)
		}
		fmt.Println("Document text saved to:", *textPath)
	}
	if *jsonPath != "" {
		if err := writeJSON(*jsonPath, doc); err != nil {
			log.Fatalf("Failed to write JSON output: %v", err)
		}
		fmt.Println("Document JSON saved to:", *jsonPath)
	}
	if *outputPath == "" {
		return
	}

	store, err := cfg.Fonts.Store()
	if err != nil {
		log.Fatalf("Failed to load fonts: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	pdf, err := synth.Synthesize(ctx, doc.Pages, store, fonts.NewMeasurer(store), cfg.Options)
	if err != nil {
		log.Fatalf("Synthesis failed: %v", err)
	}
	if err := os.WriteFile(*outputPath, pdf, 0644); err != nil {
		log.Fatalf("Failed to write output PDF: %v", err)
	}
	fmt.Printf("PDF (%s mode) saved to: %s\n", cfg.Mode, *outputPath)
}

// applyFlags overrides configuration values with the flags that were set.
func applyFlags(cfg *config.Config, mode, pages string, rotateText, rotateBackground, recalc, quiet bool) error {
	if mode != "" {
		m, err := synth.ParseDisplayMode(mode)
		if err != nil {
			return err
		}
		cfg.Mode = m
	}
	if pages != "" {
		r, err := parsePageRange(pages)
		if err != nil {
			return err
		}
		cfg.Pages = r
	}
	cfg.RotateText = cfg.RotateText || rotateText
	cfg.RotateBackground = cfg.RotateBackground || rotateBackground
	cfg.RecalcLineBoxes = cfg.RecalcLineBoxes || recalc
	if quiet {
		cfg.LogWarnings = false
	}
	if cfg.RotateText && cfg.RotateBackground {
		return synth.ErrRotationConflict
	}
	return nil
}

// parsePageRange parses "start:end", "start:" or a single page index.
func parsePageRange(s string) (synth.PageRange, error) {
	startStr, endStr, found := strings.Cut(s, ":")
	var r synth.PageRange
	var err error
	if startStr != "" {
		if r.Start, err = strconv.Atoi(startStr); err != nil {
			return r, fmt.Errorf("invalid page range %q: %w", s, err)
		}
	}
	switch {
	case !found:
		r.End = r.Start + 1
	case endStr != "":
		if r.End, err = strconv.Atoi(endStr); err != nil {
			return r, fmt.Errorf("invalid page range %q: %w", s, err)
		}
	}
	return r, nil
}

// enqueueJob submits the synthesis to the worker queue. Paths are made
// absolute because the worker resolves them in its own directory.
func enqueueJob(in, out string, format input.Format, cfg *config.Config) (string, error) {
	in, err := filepath.Abs(in)
	if err != nil {
		return "", err
	}
	if out, err = filepath.Abs(out); err != nil {
		return "", err
	}
	task, err := jobs.NewSynthesizeTask(jobs.Payload{Input: in, InputFormat: format, Output: out, Options: cfg.Options})
	if err != nil {
		return "", err
	}

	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	client := asynq.NewClient(asynq.RedisClientOpt{Addr: addr})
	defer client.Close()

	info, err := client.Enqueue(task, asynq.Queue(queueName()))
	if err != nil {
		return "", err
	}
	return info.ID, nil
}

func queueName() string {
	if q := os.Getenv("WORKER_QUEUE"); q != "" {
		return q
	}
	return "default"
}

// listFonts prints one line per registered family and style, marking the
// default family, followed by the CJK font when one is configured.
func listFonts(w io.Writer, store *fonts.Store) {
	def := store.DefaultFamily()
	for _, k := range store.Keys() {
		f, err := store.Font(k.Family, k.Style)
		if err != nil {
			continue
		}
		mark := ""
		if k.Family == def {
			mark = " (default)"
		}
		fmt.Fprintf(w, "%s\t%s\t%s%s\n", k.Family, k.Style, f.PostScriptName(), mark)
	}
	if cjk := store.CJK(); cjk != nil {
		fmt.Fprintf(w, "%s\t%s\t%s\n", fonts.CJKFamily, cjk.Style, cjk.PostScriptName())
	}
}

func writeJSON(path string, doc *ocr.Document) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := ocr.WriteJSON(f, doc); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
