package fonts

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/fnv"
	"math/bits"
	"sort"
)

var errMalformedFont = errors.New("fonts: malformed TrueType data")

// Subset returns a copy of f that only carries outlines for .notdef, the
// space glyph and the glyphs needed to render chars (including composite
// glyph components). Glyph ids are preserved, so widths and glyph codes
// computed against f stay valid for the subset.
//
// CFF-flavored fonts are returned unchanged; check IsSubset on the result.
func (s *Store) Subset(f *Font, chars []rune) (*Font, error) {
	return Subset(f, chars)
}

// Subset is the store-independent form of Store.Subset.
func Subset(f *Font, chars []rune) (*Font, error) {
	if f.cff {
		return f, nil
	}
	keep := map[uint16]bool{0: true, f.GlyphIndex(' '): true}
	for _, r := range chars {
		keep[f.GlyphIndex(r)] = true
	}

	data, err := subsetTrueType(f.data, keep)
	if err != nil {
		return nil, fmt.Errorf("fonts: failed to subset %s: %w", f.name, err)
	}
	sub, err := Parse(f.Family, f.Style, data)
	if err != nil {
		return nil, err
	}
	sub.Serif = f.Serif
	sub.subset = true
	sub.name = subsetTag(chars) + "+" + f.name
	return sub, nil
}

// subsetTag derives the six-letter subset prefix from the character set.
func subsetTag(chars []rune) string {
	sorted := append([]rune(nil), chars...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	h := fnv.New32a()
	for _, r := range sorted {
		var b [4]byte
		binary.BigEndian.PutUint32(b[:], uint32(r))
		h.Write(b[:])
	}
	sum := h.Sum32()
	tag := make([]byte, 6)
	for i := range tag {
		tag[i] = 'A' + byte(sum%26)
		sum /= 26
	}
	return string(tag)
}

type sfntTable struct {
	tag  string
	data []byte
}

// subsetTrueType empties the glyf entries of every glyph not in keep and
// rewrites loca in the long format.
func subsetTrueType(data []byte, keep map[uint16]bool) ([]byte, error) {
	be := binary.BigEndian
	if len(data) < 12 {
		return nil, errMalformedFont
	}
	numTables := int(be.Uint16(data[4:]))
	if len(data) < 12+16*numTables {
		return nil, errMalformedFont
	}

	tables := make(map[string][]byte, numTables)
	for i := 0; i < numTables; i++ {
		rec := data[12+16*i:]
		tag := string(rec[:4])
		off, length := be.Uint32(rec[8:]), be.Uint32(rec[12:])
		if uint64(off)+uint64(length) > uint64(len(data)) {
			return nil, fmt.Errorf("%w: table %q out of range", errMalformedFont, tag)
		}
		tables[tag] = data[off : off+length]
	}

	head, maxp, loca, glyf := tables["head"], tables["maxp"], tables["loca"], tables["glyf"]
	if len(head) < 54 || len(maxp) < 6 || loca == nil || glyf == nil {
		return nil, fmt.Errorf("%w: missing head, maxp, loca or glyf", errMalformedFont)
	}
	numGlyphs := int(be.Uint16(maxp[4:]))
	shortLoca := int16(be.Uint16(head[50:])) == 0

	offsets := make([]uint32, numGlyphs+1)
	for i := range offsets {
		switch {
		case shortLoca && len(loca) >= 2*i+2:
			offsets[i] = uint32(be.Uint16(loca[2*i:])) * 2
		case !shortLoca && len(loca) >= 4*i+4:
			offsets[i] = be.Uint32(loca[4*i:])
		default:
			return nil, fmt.Errorf("%w: loca too short", errMalformedFont)
		}
	}
	glyph := func(gid int) []byte {
		start, end := offsets[gid], offsets[gid+1]
		if start >= end || int(end) > len(glyf) {
			return nil
		}
		return glyf[start:end]
	}

	// Close the keep set over composite glyph components.
	queue := make([]uint16, 0, len(keep))
	for gid := range keep {
		queue = append(queue, gid)
	}
	for len(queue) > 0 {
		gid := queue[len(queue)-1]
		queue = queue[:len(queue)-1]
		if int(gid) >= numGlyphs {
			continue
		}
		for _, c := range compositeComponents(glyph(int(gid))) {
			if !keep[c] {
				keep[c] = true
				queue = append(queue, c)
			}
		}
	}

	var newGlyf []byte
	newLoca := make([]byte, 4*(numGlyphs+1))
	for gid := 0; gid < numGlyphs; gid++ {
		be.PutUint32(newLoca[4*gid:], uint32(len(newGlyf)))
		if keep[uint16(gid)] {
			newGlyf = append(newGlyf, glyph(gid)...)
			for len(newGlyf)%4 != 0 {
				newGlyf = append(newGlyf, 0)
			}
		}
	}
	be.PutUint32(newLoca[4*numGlyphs:], uint32(len(newGlyf)))

	newHead := append([]byte(nil), head...)
	be.PutUint32(newHead[8:], 0)  // checkSumAdjustment, recomputed below
	be.PutUint16(newHead[50:], 1) // indexToLocFormat: long

	tables["glyf"], tables["loca"], tables["head"] = newGlyf, newLoca, newHead
	delete(tables, "DSIG")

	ordered := make([]sfntTable, 0, len(tables))
	for tag, t := range tables {
		ordered = append(ordered, sfntTable{tag, t})
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].tag < ordered[j].tag })

	return writeSFNT(be.Uint32(data[0:]), ordered), nil
}

// compositeComponents lists the glyph ids referenced by a composite glyph.
func compositeComponents(g []byte) []uint16 {
	const (
		argsAreWords   = 0x0001
		haveScale      = 0x0008
		moreComponents = 0x0020
		haveXYScale    = 0x0040
		haveTwoByTwo   = 0x0080
	)
	be := binary.BigEndian
	if len(g) < 10 || int16(be.Uint16(g)) >= 0 {
		return nil
	}
	var out []uint16
	for p := 10; p+4 <= len(g); {
		flags := be.Uint16(g[p:])
		out = append(out, be.Uint16(g[p+2:]))
		p += 4
		if flags&argsAreWords != 0 {
			p += 4
		} else {
			p += 2
		}
		switch {
		case flags&haveScale != 0:
			p += 2
		case flags&haveXYScale != 0:
			p += 4
		case flags&haveTwoByTwo != 0:
			p += 8
		}
		if flags&moreComponents == 0 {
			break
		}
	}
	return out
}

func writeSFNT(version uint32, tables []sfntTable) []byte {
	be := binary.BigEndian
	n := len(tables)
	entrySelector := bits.Len(uint(n)) - 1
	searchRange := (1 << entrySelector) * 16

	out := make([]byte, 12+16*n)
	be.PutUint32(out[0:], version)
	be.PutUint16(out[4:], uint16(n))
	be.PutUint16(out[6:], uint16(searchRange))
	be.PutUint16(out[8:], uint16(entrySelector))
	be.PutUint16(out[10:], uint16(n*16-searchRange))

	headOffset := -1
	for i, t := range tables {
		offset := len(out)
		if t.tag == "head" {
			headOffset = offset
		}
		out = append(out, t.data...)
		for len(out)%4 != 0 {
			out = append(out, 0)
		}
		rec := out[12+16*i:]
		copy(rec[:4], t.tag)
		be.PutUint32(rec[4:], tableChecksum(out[offset:]))
		be.PutUint32(rec[8:], uint32(offset))
		be.PutUint32(rec[12:], uint32(len(t.data)))
	}
	if headOffset >= 0 {
		be.PutUint32(out[headOffset+8:], 0xB1B0AFBA-tableChecksum(out))
	}
	return out
}

// tableChecksum sums b as big-endian uint32 words. len(b) must be a multiple of 4.
func tableChecksum(b []byte) uint32 {
	var sum uint32
	for i := 0; i+4 <= len(b); i += 4 {
		sum += binary.BigEndian.Uint32(b[i:])
	}
	return sum
}
