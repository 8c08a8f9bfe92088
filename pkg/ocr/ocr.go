// Package ocr defines the geometric data model of recognized-text documents.
//
// A Document is an ordered list of pages. Each Page carries its source pixel
// dimensions, the detected skew angle and an ordered list of text lines. Lines
// carry a bounding box, a linear baseline model and the letter heights used to
// infer a font size. Words carry their text, box, confidence and style.
//
// All stored coordinates are in the deskewed frame: the page content has
// already been rotated by the page's detected angle. Reconstructing the
// original scanned orientation uses the approximate pivot rotation in
// SkewShift, which is exact only at angle 0.
//
// Key Types:
//
// - Document, Page, Line, Word: the entity hierarchy
// - BBox: an axis-aligned box [left, top, right, bottom] in page pixels
// - Baseline: slope/intercept model of a line's baseline relative to its box
// - WordKind: Plain, Superscript or DropCap (mutually exclusive by construction)
// - Style: Normal, Italic or SmallCaps
//
// Entities are produced by ingestion packages (hocr, gdocai) and consumed
// read-only by the synthesis engine.
package ocr
