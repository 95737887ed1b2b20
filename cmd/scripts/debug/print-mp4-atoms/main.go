package main

import (
	"fmt"
	"os"

	"github.com/ondrejsika/audioserve-go/pkg/mp4"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s <m4b-file>\n", os.Args[0])
		os.Exit(1)
	}

	path := os.Args[1]
	meta, err := mp4.Parse(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing %s: %v\n", path, err)
		os.Exit(1)
	}

	fmt.Printf("Title: %q\n", meta.Title)
	fmt.Printf("Album: %q\n", meta.Album)
	fmt.Printf("Genre: %q\n", meta.Genre)
	fmt.Printf("Codec: %q\n", meta.Codec)
	fmt.Printf("Duration: %v\n", meta.Duration)
	fmt.Printf("Bitrate: %d kbps\n", meta.BitrateKbps)
	fmt.Printf("MediaType: %d\n", meta.MediaType)
	fmt.Printf("Chapters: %d\n", len(meta.Chapters))
	fmt.Printf("HasCover: %v\n", len(meta.CoverData) > 0)
	if len(meta.CoverData) > 0 {
		fmt.Printf("CoverMimeType: %s\n", meta.CoverMimeType)
		fmt.Printf("CoverSize: %d bytes\n", len(meta.CoverData))
	}

	if len(meta.Description) > 200 {
		fmt.Printf("Description: %q...\n", meta.Description[:200])
	} else {
		fmt.Printf("Description: %q\n", meta.Description)
	}

	fmt.Printf("\nFreeform atoms (%d):\n", len(meta.Freeform))
	for k, v := range meta.Freeform {
		if len(v) > 100 {
			fmt.Printf("  %s: %s...\n", k, v[:100])
		} else {
			fmt.Printf("  %s: %s\n", k, v)
		}
	}

	if len(meta.Chapters) > 0 {
		fmt.Printf("\nChapters:\n")
		for i, ch := range meta.Chapters {
			fmt.Printf("  %d. %s [%v - %v]\n", i+1, ch.Title, ch.Start, ch.End)
		}
	}
}
