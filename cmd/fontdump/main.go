// Command fontdump loads a font file and prints its table directory and
// basic metrics, in the same "open a file, print a summary" shape as
// cmd/dumpfont, rewired onto the sfnt/font packages instead of the old
// freetype.Context API.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/vectorfont/engine/font"
	"github.com/vectorfont/engine/sfnt"
)

var fontFile = flag.String("font", "", "filename of font to dump")

func main() {
	flag.Parse()

	data, err := os.ReadFile(*fontFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "fontdump: %v\n", err)
		os.Exit(1)
	}

	n, err := sfnt.NumFaces(data)
	if err != nil {
		fmt.Fprintf(os.Stderr, "fontdump: %v\n", err)
		os.Exit(1)
	}

	for i := 0; i < n; i++ {
		if err := dumpFace(data, i); err != nil {
			fmt.Fprintf(os.Stderr, "fontdump: face %d: %v\n", i, err)
			os.Exit(1)
		}
	}
}

func dumpFace(data []byte, faceIndex int) error {
	sf, err := sfnt.Parse(data, faceIndex)
	if err != nil {
		return err
	}

	fmt.Printf("face %d\n", faceIndex)
	fmt.Printf("  format:      %v\n", sf.Directory().Format)
	fmt.Printf("  units/em:    %d\n", sf.UnitsPerEm())
	fmt.Printf("  num glyphs:  %d\n", sf.NumGlyphs())
	fmt.Printf("  ascender:    %d\n", sf.Ascender())
	fmt.Printf("  descender:   %d\n", sf.Descender())
	fmt.Printf("  line gap:    %d\n", sf.LineGap())
	fmt.Printf("  has hinting: %v\n", sf.HasHinting())

	fmt.Printf("  tables:\n")
	for _, tag := range sf.Directory().Tags() {
		b, err := sf.Directory().Table(tag)
		if err != nil {
			continue
		}
		fmt.Printf("    %-6s %6d bytes\n", tag, len(b))
	}

	if _, err := font.NewFace(data, faceIndex, nil); err != nil {
		fmt.Printf("  NewFace: %v\n", err)
	} else {
		fmt.Printf("  NewFace: ok\n")
	}
	return nil
}
