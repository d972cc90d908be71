// Command cmd_debug_preproc writes the binarized version of a screenshot next
// to it and prints what tesseract reads from it.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"

	"deskdir/pkg/config"
	"deskdir/pkg/logging"
	"deskdir/pkg/ocr"
	"deskdir/pkg/ocr/tesseract"
)

func main() {
	cfg, err := config.Load("cmd_debug_preproc", os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	log := logging.New(cfg.LogLevel)
	if len(cfg.Args) < 1 {
		fmt.Println("usage: go run ./process/cmd_debug_preproc <image>")
		os.Exit(2)
	}
	in := cfg.Args[0]

	data, err := os.ReadFile(in)
	if err != nil {
		log.Fatalw("read", "file", in, "error", err)
	}
	img, err := ocr.DecodeImage(data)
	if err != nil {
		log.Fatalw("decode", "file", in, "error", err)
	}
	out := strings.TrimSuffix(in, filepath.Ext(in)) + ".preproc.png"
	if err := imaging.Save(ocr.Preprocess(img), out); err != nil {
		log.Fatalw("save", "file", out, "error", err)
	}
	fmt.Printf("binarized image written to %s\n", out)

	ext := ocr.NewExtractor(tesseract.New(cfg.OCRLanguage, cfg.OCRTimeout), ocr.WithMinHeight(cfg.OCRMinHeight))
	res, err := ext.ExtractImage(context.Background(), img)
	if err != nil {
		log.Fatalw("ocr", "error", err)
	}
	fmt.Printf("raw text:\n%s\n", res.RawText)
	fmt.Printf("cleaned=%q\n", ocr.CleanText(res.RawText))
	fmt.Printf("ids=%q\n", res.IDs)
}
