// Package main checks a content directory for authoring problems and exits
// non-zero when any are found.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/cory-johannsen/makavia/internal/content"
)

func main() {
	dir := flag.String("content", "content", "path to the content directory")
	startChapter := flag.String("start", "", "chapter new games start in; checked when set")
	limit := flag.Int("script-limit", 10000, "Lua instruction limit used to load helper scripts")
	flag.Parse()

	start := time.Now()
	bundle, err := content.Load(*dir, *limit, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	report := bundle.Validate()
	findings := len(report.Findings)
	for _, f := range report.Findings {
		fmt.Println(f.String())
	}
	if *startChapter != "" && !hasChapter(bundle, *startChapter) {
		fmt.Printf("start chapter %q is not defined\n", *startChapter)
		findings++
	}

	fmt.Printf("checked %d chapters, %d cast members, %d opponents in %s: %d findings\n",
		len(bundle.Chapters), len(bundle.Cast), len(bundle.Templates),
		time.Since(start).Round(time.Millisecond), findings)
	if findings > 0 {
		os.Exit(1)
	}
}

func hasChapter(b *content.Bundle, id string) bool {
	for _, c := range b.Chapters {
		if c.ID() == id {
			return true
		}
	}
	return false
}
