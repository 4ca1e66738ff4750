// Command ixinspect opens an index file through resource.Open (which takes
// the same exclusive lock as any other user of the file), reads it without
// writing, and prints its resource header and a page-type histogram. It
// does not parse SQL, plan queries,
// or accept a REPL — a small, focused diagnostic tool in the style of the
// teacher's cmd/tinysqlpage and pager inspection helpers, rather than the
// full shell.
package main

import (
	"encoding/binary"
	"flag"
	"fmt"
	"log"
	"os"

	"ixdb/internal/page"
	"ixdb/internal/resource"
)

func main() {
	path := flag.String("path", "", "path to an index file")
	dump := flag.Bool("dump", false, "print every page's type and key count")
	flag.Parse()

	if *path == "" {
		fmt.Fprintln(os.Stderr, "usage: ixinspect -path <index file> [-dump]")
		os.Exit(2)
	}

	if err := inspect(*path, *dump); err != nil {
		log.Fatalf("ixinspect: %v", err)
	}
}

func inspect(path string, dump bool) error {
	rm, err := resource.Open(path)
	if err != nil {
		return err
	}
	defer rm.Close()

	h := rm.Header()
	fmt.Printf("resource:        %s\n", path)
	fmt.Printf("page size:       %d bytes\n", h.PageSizeBytes)
	fmt.Printf("indexed column:  %d\n", h.IndexedColumnNumber)
	fmt.Printf("unique:          %v\n", h.Unique())
	fmt.Printf("root page:       %d\n", h.RootPageNumber)
	fmt.Printf("first leaf page: %d\n", h.FirstLeafPageNumber)

	histogram := map[string]int{}
	n := page.Number(1)
	for {
		buf, err := rm.ReadPage(n)
		if err != nil {
			break
		}
		ph, err := page.UnmarshalHeader(buf)
		if err != nil {
			histogram["corrupt"]++
			n++
			continue
		}
		label := pageTypeLabel(ph.Type)
		histogram[label]++
		if dump {
			keys := binary.LittleEndian.Uint32(buf[page.HeaderSize:])
			fmt.Printf("page %-6d type=%-8s number=%d keys=%d\n", n, label, ph.Number, keys)
		}
		n++
	}

	fmt.Println("page types:")
	for label, count := range histogram {
		fmt.Printf("  %-8s %d\n", label, count)
	}
	return nil
}

func pageTypeLabel(t uint32) string {
	switch t {
	case page.TypeInner:
		return "inner"
	case page.TypeLeaf:
		return "leaf"
	default:
		return fmt.Sprintf("unknown(%d)", t)
	}
}
