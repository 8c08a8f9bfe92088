// pdfocr is a command-line tool for creating searchable PDFs with OCR text layers.
//
// This tool can either enhance existing PDFs with OCR text layers or create new PDFs
// from images with embedded OCR text. It reads hOCR, a saved Document AI response or
// native OCR JSON, and places each recognized word at the position of its box using a
// core PDF font.
//
// Usage:
//
//	pdfocr -ocr document.hocr [options]
//
// Required flags:
//
//	-ocr string       Path to the OCR file (hOCR, Document AI JSON or native JSON)
//	-output string    Output PDF path
//
// Input options (one required):
//
//	-pdf string       Path to existing PDF to enhance with OCR
//	-image-dir string Directory containing page images to build a new PDF
//
// Processing options:
//
//	-format string    Input format: hocr, gdocai-json or json (default: detect)
//	-start-page int   Start applying OCR from this page (default 1)
//	-dpi float        Resolution of the OCR coordinates (default: 1 pixel = 1 point)
//	-debug            Enable debug mode (shows OCR bounding boxes)
//	-force            Force reapply OCR even if layer exists
//	-overwrite        Overwrite output file if it exists
//	-debug-pdf        Dump PDF structure for debugging
//	-detect           Only report whether the -pdf file already has an OCR layer
//
// Examples:
//
// Add OCR layer to existing PDF:
//
//	pdfocr -ocr document.hocr -pdf document.pdf -output document_searchable.pdf
//
// Create PDF from image directory with OCR:
//
//	pdfocr -ocr document.json -image-dir ./page_images -output document_searchable.pdf
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joho/godotenv"

	"github.com/gardar/ocrsynth/internal/input"
	"github.com/gardar/ocrsynth/pkg/pdfocr"
)

func main() {
	ocrPath := flag.String("ocr", "", "Path to a multi-page OCR file")
	format := flag.String("format", "", "Input format: hocr, gdocai-json or json (default: detect)")
	dpi := flag.Float64("dpi", 0, "Resolution of the OCR pixel coordinates")
	detect := flag.Bool("detect", false, "Only report existing OCR layers in -pdf")
	layerName := flag.String("layer", "OCR Text", "Name of the OCR layer")
	imageDirPath := flag.String("image-dir", "", "Directory containing images")
	pdfPath := flag.String("pdf", "", "Path to an existing PDF to add OCR layer to")
	pdfOcrPath := flag.String("output", "", "Output PDF path")
	startPage := flag.Int("start-page", 1, "Start applying OCR from this page number (1-based index)")
	debug := flag.Bool("debug", false, "Enable debug mode")
	force := flag.Bool("force", false, "Force reapply OCR even if an OCR layer is already detected")
	overwriteOutput := flag.Bool("overwrite", false, "Overwrite the output PDF if it already exists")
	dumpPDF := flag.Bool("debug-pdf", false, "Dump PDF structure for debugging")
	flag.Parse()

	_ = godotenv.Load()

	if *detect {
		if *pdfPath == "" {
			fmt.Println("Error: -detect requires -pdf")
			os.Exit(1)
		}
		os.Exit(reportLayers(*pdfPath, *layerName))
	}

	if *ocrPath == "" {
		fmt.Println("Error: Must provide -ocr path")
		os.Exit(1)
	}
	if *imageDirPath == "" && *pdfPath == "" {
		fmt.Println("Error: Must provide either -image-dir or -pdf")
		os.Exit(1)
	}
	if *pdfOcrPath == "" {
		fmt.Println("Error: Must provide -output path")
		os.Exit(1)
	}

	if _, err := os.Stat(*pdfOcrPath); err == nil {
		if !*overwriteOutput {
			fmt.Printf("Output file %s already exists. Use -overwrite to overwrite.\n", *pdfOcrPath)
			os.Exit(1)
		}
		os.Remove(*pdfOcrPath)
	}

	config := pdfocr.DefaultConfig()
	config.Debug = *debug
	config.Force = *force
	config.StartPage = *startPage
	config.DumpPDF = *dumpPDF
	config.DPI = *dpi
	config.LayerName = *layerName

	inputFormat, err := input.ParseFormat(*format)
	if err != nil {
		fmt.Println("Error:", err)
		os.Exit(1)
	}
	doc, err := input.Load(*ocrPath, inputFormat, input.Options{})
	if err != nil {
		fmt.Printf("Failed to read OCR file: %v\n", err)
		os.Exit(1)
	}

	// Either create a new PDF from images or modify an existing PDF
	var finalPDF []byte
	if *imageDirPath != "" {
		// Create new PDF from images
		imagePaths, err := filepath.Glob(filepath.Join(*imageDirPath, "*"))
		if err != nil {
			fmt.Printf("Error accessing image directory: %v\n", err)
			os.Exit(1)
		}
		imagePaths = imageFiles(imagePaths)
		sort.Strings(imagePaths)
		fmt.Printf("Found %d image files in %s\n", len(imagePaths), *imageDirPath)

		// Read all images into memory
		var imagesData [][]byte
		for _, imgPath := range imagePaths {
			imgBytes, err := os.ReadFile(imgPath)
			if err != nil {
				fmt.Printf("Failed to read image %s: %v\n", imgPath, err)
				os.Exit(1)
			}
			imagesData = append(imagesData, imgBytes)
		}

		// Assemble the OCR'd PDF
		finalPDF, err = pdfocr.AssembleWithOCR(doc, imagesData, config)
		if err != nil {
			fmt.Printf("Error creating PDF from images: %v\n", err)
			os.Exit(1)
		}

	} else {
		// Modify an existing PDF
		inputData, err := os.ReadFile(*pdfPath)
		if err != nil {
			fmt.Printf("Failed to read input PDF: %v\n", err)
			os.Exit(1)
		}

		// Apply the OCR layer to the PDF
		finalPDF, err = pdfocr.ApplyOCR(inputData, doc, config)
		if err != nil {
			fmt.Printf("Error applying OCR to existing PDF: %v\n", err)
			os.Exit(1)
		}
	}

	if *imageDirPath != "" && *force {
		fmt.Println("Warning: -force is only applicable when -pdf is set. Ignoring -force.")
	}

	// Write final PDF to disk
	if err := os.WriteFile(*pdfOcrPath, finalPDF, 0666); err != nil {
		fmt.Printf("Failed to write output PDF: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("OCR-enhanced PDF created:", *pdfOcrPath)
}

// imageFiles keeps the paths with a PNG or JPEG extension.
func imageFiles(paths []string) []string {
	var out []string
	for _, p := range paths {
		switch strings.ToLower(filepath.Ext(p)) {
		case ".png", ".jpg", ".jpeg":
			out = append(out, p)
		}
	}
	return out
}

// reportLayers prints the optional-content layers of a PDF and returns the
// exit status: 0 when an OCR layer exists, 2 when none does.
func reportLayers(path, layerName string) int {
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Printf("Failed to read PDF: %v\n", err)
		return 1
	}
	config := pdfocr.DefaultConfig()
	config.LayerName = layerName
	res, err := pdfocr.DetectOCR(data, config)
	if err != nil {
		fmt.Printf("Detection failed: %v\n", err)
		return 1
	}
	for _, layer := range res.LayerInfo.Layers {
		fmt.Printf("Layer: %q\n", layer)
	}
	for _, w := range res.Warnings {
		fmt.Println("Warning:", w)
	}
	if !res.HasOCR {
		fmt.Println("No OCR layer found")
		return 2
	}
	fmt.Println("OCR layer found:", res.LayerInfo.OCRLayerName)
	return 0
}
