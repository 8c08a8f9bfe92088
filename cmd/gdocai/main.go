// gdocai is a command-line tool for processing documents with Google Document AI and turning
// the OCR into text, hOCR, a searchable PDF or a synthesized text PDF.
//
// Configuration:
//
// The tool reads the ocrsynth YAML configuration; the Document AI settings live under
// "documentai". A flat file with only the processor settings is accepted as well:
//
//	documentai:
//	  project_id: "your-gcp-project-id"
//	  location: "us"
//	  processor_id: "your-processor-id"
//	display_mode: invisible
//
// Usage:
//
//	gdocai -config config.yml -pdf input.pdf [options]
//	gdocai -config config.yml -response saved.json [options]
//
// Input flags (exactly one required):
//
//	-pdf string       Path to the input PDF file
//	-pdfs string      Comma separated list of single-page PDF files processed as one document
//	-response string  Saved Document AI JSON response; no API call is made
//
// Output options (at least one required):
//
//	-text string      Path to save OCR text output
//	-hocr string      Path to save hOCR output
//	-json string      Path to save the OCR model as JSON
//	-images string    Directory to save page images
//	-output string    Path to save the PDF with an invisible OCR layer (fpdf overlay)
//	-synth string     Path to save the synthesized PDF (embedded fonts, configured display mode)
//
// Debug options:
//
//	-debug-api string   Path to save raw API response as JSON
//
// Authentication:
//
// The tool uses documentai.credentials_file or the GOOGLE_APPLICATION_CREDENTIALS
// environment variable, which may also be set in a .env file.
//
// Example:
//
//	gdocai -config config.yml -pdf document.pdf -text document.txt -hocr document.hocr -output document_ocr.pdf
//	gdocai -config config.yml -pdfs page1.pdf,page2.pdf,page3.pdf -output combo_document_ocr.pdf
//	gdocai -config config.yml -response document.json -synth proof.pdf
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/gardar/ocrsynth/internal/config"
	"github.com/gardar/ocrsynth/pkg/fonts"
	"github.com/gardar/ocrsynth/pkg/gdocai"
	"github.com/gardar/ocrsynth/pkg/hocr"
	"github.com/gardar/ocrsynth/pkg/ocr"
	"github.com/gardar/ocrsynth/pkg/pdfocr"
	"github.com/gardar/ocrsynth/pkg/synth"
)

// loadConfig reads the YAML configuration. When the file has no documentai
// section, its top level is read as the processor settings.
func loadConfig(path string) (*config.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg, err := config.Parse(data)
	if err != nil {
		return nil, err
	}
	if cfg.DocumentAI.ProjectID == "" {
		if err := yaml.Unmarshal(data, &cfg.DocumentAI); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func main() {
	configPath := flag.String("config", "", "Path to the config YAML file")
	pdfPath := flag.String("pdf", "", "Path to the input PDF file")
	pdfPaths := flag.String("pdfs", "", "Comma-separated list of PDF files to process as individual pages")
	responsePath := flag.String("response", "", "Path to a saved Document AI JSON response")

	textPath := flag.String("text", "", "Path to save OCR text output")
	hocrPath := flag.String("hocr", "", "Path to save HOCR output")
	jsonPath := flag.String("json", "", "Path to save the OCR model as JSON")
	debugAPIPath := flag.String("debug-api", "", "Path to save API response as JSON for debugging purposes")
	imagesDir := flag.String("images", "", "Directory to save images returned by Document AI API for each processed page")
	pdfOcrPath := flag.String("output", "", "Path to save the PDF with OCR applied")
	synthPath := flag.String("synth", "", "Path to save the synthesized PDF")

	flag.Parse()

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: failed to load .env: %v", err)
	}

	providedFlags := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) {
		providedFlags[f.Name] = true
	})

	inputs := 0
	for _, v := range []string{*pdfPath, *pdfPaths, *responsePath} {
		if v != "" {
			inputs++
		}
	}
	if inputs != 1 {
		fmt.Fprintln(os.Stderr, "Error: Exactly one of -pdf, -pdfs or -response must be provided")
		fmt.Fprintln(os.Stderr, "Usage:")
		flag.PrintDefaults()
		os.Exit(1)
	}
	if *responsePath == "" && *configPath == "" {
		fmt.Fprintln(os.Stderr, "Error: -config flag is required to call Document AI")
		os.Exit(1)
	}

	// Validate that provided output flags have values
	hasError := false
	outputs := []string{"text", "hocr", "json", "debug-api", "images", "output", "synth"}
	hasOutputFlag := false
	for _, name := range outputs {
		if !providedFlags[name] {
			continue
		}
		hasOutputFlag = true
		if flag.Lookup(name).Value.String() == "" {
			fmt.Fprintf(os.Stderr, "Error: -%s flag requires a value\n", name)
			hasError = true
		}
	}
	if hasError {
		fmt.Fprintln(os.Stderr, "Usage:")
		flag.PrintDefaults()
		os.Exit(1)
	}
	if !hasOutputFlag {
		fmt.Fprintln(os.Stderr, "Error: At least one output flag must be provided (-text, -hocr, -json, -debug-api, -images, -output or -synth)")
		fmt.Fprintln(os.Stderr, "Usage:")
		flag.PrintDefaults()
		os.Exit(1)
	}

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = loadConfig(*configPath); err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
	}

	ctx := context.Background()
	raw, doc, hocrHTML, err := fetch(ctx, cfg, *pdfPath, *pdfPaths, *responsePath)
	if err != nil {
		log.Fatalf("Error processing document: %v", err)
	}
	fmt.Printf("Document has %d pages\n", len(doc.Pages))

	if *textPath != "" {
		if err := os.WriteFile(*textPath, []byte(doc.Text()), 0644); err != nil {
			log.Fatalf("Failed to write text output: %v", err)
		}
		fmt.Println("Document text saved to:", *textPath)
	}

	if *hocrPath != "" {
		if err := os.WriteFile(*hocrPath, hocrHTML, 0644); err != nil {
			log.Fatalf("Failed to write HOCR output: %v", err)
		}
		fmt.Println("Rendered HOCR output saved to:", *hocrPath)
	}

	if *jsonPath != "" {
		f, err := os.Create(*jsonPath)
		if err != nil {
			log.Fatalf("Failed to create JSON output: %v", err)
		}
		if err := ocr.WriteJSON(f, doc); err != nil {
			log.Fatalf("Failed to write JSON output: %v", err)
		}
		f.Close()
		fmt.Println("OCR model JSON saved to:", *jsonPath)
	}

	if *debugAPIPath != "" {
		apiJSON, err := gdocai.ToJSON(raw)
		if err != nil {
			log.Fatalf("Failed to convert API response to JSON: %v", err)
		}
		if err := os.WriteFile(*debugAPIPath, []byte(apiJSON), 0644); err != nil {
			log.Fatalf("Failed to write API response JSON: %v", err)
		}
		fmt.Println("API response JSON saved to:", *debugAPIPath)
	}

	if *imagesDir != "" {
		if err := os.MkdirAll(*imagesDir, 0755); err != nil {
			log.Fatalf("Failed to create images directory: %v", err)
		}
		for i, page := range raw.GetPages() {
			imgBytes, mime, err := gdocai.ExtractImageFromPage(page)
			if err != nil {
				log.Printf("Skipping page %d: %v", i+1, err)
				continue
			}
			imagePath := filepath.Join(*imagesDir, fmt.Sprintf("page_%d%s", i+1, imageExt(mime)))
			if err := os.WriteFile(imagePath, imgBytes, 0644); err != nil {
				log.Printf("Failed to write image for page %d: %v", i+1, err)
				continue
			}
			fmt.Printf("Saved image for page %d to %s\n", i+1, imagePath)
		}
	}

	if *pdfOcrPath != "" {
		ocrPdfBytes, err := overlay(doc, raw, *pdfPath)
		if err != nil {
			log.Fatalf("Failed to create searchable PDF: %v", err)
		}
		if err := os.WriteFile(*pdfOcrPath, ocrPdfBytes, 0644); err != nil {
			log.Fatalf("Failed to write OCR'ed PDF: %v", err)
		}
		fmt.Println("OCR'ed PDF saved to:", *pdfOcrPath)
	}

	if *synthPath != "" {
		store, err := cfg.Fonts.Store()
		if err != nil {
			log.Fatalf("Failed to load fonts: %v", err)
		}
		out, err := synth.Synthesize(ctx, doc.Pages, store, fonts.NewMeasurer(store), cfg.Options)
		if err != nil {
			log.Fatalf("Synthesis failed: %v", err)
		}
		if err := os.WriteFile(*synthPath, out, 0644); err != nil {
			log.Fatalf("Failed to write synthesized PDF: %v", err)
		}
		fmt.Printf("Synthesized PDF (%s mode) saved to: %s\n", cfg.Mode, *synthPath)
	}
}

// fetch returns the Document AI response for the selected input, its OCR
// model and the model rendered as hOCR.
func fetch(ctx context.Context, cfg *config.Config, pdfPath, pdfPaths, responsePath string) (*documentaipb.Document, *ocr.Document, []byte, error) {
	if pdfPath != "" {
		fmt.Println("Processing single PDF file:", pdfPath)
		pdfBytes, err := os.ReadFile(pdfPath)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("failed to read PDF file: %w", err)
		}
		return gdocai.DocumentHOCR(ctx, pdfBytes, &cfg.DocumentAI)
	}

	var raw *documentaipb.Document
	var err error
	if responsePath != "" {
		fmt.Println("Loading saved response:", responsePath)
		raw, err = gdocai.LoadDocumentFile(responsePath)
	} else {
		raw, err = processPages(ctx, cfg, pdfPaths)
	}
	if err != nil {
		return nil, nil, nil, err
	}
	doc, err := gdocai.ToDocument(raw)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to convert document: %w", err)
	}
	html, err := hocr.GenerateHOCRDocument(hocr.FromDocument(doc, "Document AI OCR"))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to generate hOCR: %w", err)
	}
	return raw, doc, html, nil
}

func processPages(ctx context.Context, cfg *config.Config, pdfPaths string) (*documentaipb.Document, error) {
	var pages [][]byte
	for _, path := range strings.Split(pdfPaths, ",") {
		path = strings.TrimSpace(path)
		if path == "" {
			continue
		}
		fmt.Printf("Reading page %d: %s\n", len(pages)+1, path)
		pageBytes, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read PDF file %s: %w", path, err)
		}
		pages = append(pages, pageBytes)
	}
	if len(pages) == 0 {
		return nil, fmt.Errorf("no valid PDF files found in the provided list")
	}
	fmt.Printf("Processing %d PDF files as separate pages\n", len(pages))
	return gdocai.ProcessPages(ctx, pages, &cfg.DocumentAI)
}

// overlay draws an invisible OCR layer, over the original PDF when there is
// one and otherwise over the page images Document AI returned.
func overlay(doc *ocr.Document, raw *documentaipb.Document, pdfPath string) ([]byte, error) {
	ocrConfig := pdfocr.DefaultConfig()
	if pdfPath != "" {
		fmt.Println("Creating searchable PDF by applying OCR to existing PDF...")
		pdfBytes, err := os.ReadFile(pdfPath)
		if err != nil {
			return nil, err
		}
		return pdfocr.ApplyOCR(pdfBytes, doc, ocrConfig)
	}

	fmt.Println("Creating new searchable PDF from Document AI page images...")
	var pageImages [][]byte
	for i, page := range raw.GetPages() {
		imgBytes, _, err := gdocai.ExtractImageFromPage(page)
		if err != nil {
			return nil, fmt.Errorf("failed to get image data for page %d: %w", i+1, err)
		}
		pageImages = append(pageImages, imgBytes)
	}
	fmt.Printf("Assembling PDF with %d pages...\n", len(pageImages))
	return pdfocr.AssembleWithOCR(doc, pageImages, ocrConfig)
}

func imageExt(mime string) string {
	switch mime {
	case "image/jpeg":
		return ".jpg"
	case "image/tiff":
		return ".tiff"
	default:
		return ".png"
	}
}
