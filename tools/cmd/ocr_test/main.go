package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"deskdir/pkg/ocr"
	"deskdir/pkg/ocr/tesseract"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("usage: go run ./tools/cmd/ocr_test <image>...")
		os.Exit(2)
	}
	ext := ocr.NewExtractor(tesseract.New("eng", 0))
	for _, p := range os.Args[1:] {
		f, err := os.Open(p)
		if err != nil {
			fmt.Printf("%s: %v\n", p, err)
			continue
		}
		res, err := ext.Extract(context.Background(), f)
		f.Close()
		if err != nil {
			fmt.Printf("%s: %v\n", p, err)
			continue
		}
		fmt.Printf("%s: ids=[%s] raw=%q\n", p, strings.Join(res.IDs, ", "), res.RawText)
	}
}
