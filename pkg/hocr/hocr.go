// Package hocr reads and writes hOCR, the HTML-based format OCR engines such
// as Tesseract use to report recognized text with its geometry.
//
// ParseHOCR flattens the ocr_page / ocr_carea / ocr_par / ocr_line hierarchy
// into pages of lines and keeps the properties the PDF synthesizer needs:
// line baselines, x_size, x_ascenders and x_descenders, word confidence and
// font hints, and the typographic style carried by <em>, <i> and <sup>
// markup. ToDocument turns the result into the geometric model of package
// ocr; FromDocument and GenerateHOCRDocument go the other way.
package hocr
