// Package catalog supplies the list of game titles a crawl pass visits.
package catalog

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/JakeFAU/game-genres-crawler/internal/crawler"
	collyfetcher "github.com/JakeFAU/game-genres-crawler/internal/fetcher/colly"
)

// Provider returns the titles to crawl.
type Provider interface {
	Titles(ctx context.Context) ([]string, error)
}

// Static serves a fixed list.
type Static []string

// Titles implements Provider.
func (s Static) Titles(context.Context) ([]string, error) {
	return ParseList(s), nil
}

// File reads one title per line. Blank lines and lines starting with "#"
// are ignored.
type File struct {
	Path string
}

// Titles implements Provider.
func (f File) Titles(context.Context) ([]string, error) {
	fh, err := os.Open(f.Path)
	if err != nil {
		return nil, fmt.Errorf("open catalog %s: %w", f.Path, err)
	}
	defer fh.Close()

	lines, err := readLines(fh)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", f.Path, err)
	}
	return ParseList(lines), nil
}

// URL downloads the catalog. Without a LinkSelector the body is read as a
// plain text list; with one, the text of every matching HTML element is a
// title.
type URL struct {
	Fetcher      *collyfetcher.Fetcher
	Address      string
	LinkSelector string
}

// Titles implements Provider.
func (u URL) Titles(ctx context.Context) ([]string, error) {
	resp, err := u.Fetcher.Fetch(ctx, collyfetcher.Request{URL: u.Address})
	if err != nil {
		return nil, fmt.Errorf("fetch catalog %s: %w", u.Address, err)
	}
	if u.LinkSelector == "" {
		lines, err := readLines(bytes.NewReader(resp.Body))
		if err != nil {
			return nil, fmt.Errorf("read catalog %s: %w", u.Address, err)
		}
		return ParseList(lines), nil
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body))
	if err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", u.Address, err)
	}
	var titles []string
	doc.Find(u.LinkSelector).Each(func(_ int, s *goquery.Selection) {
		titles = append(titles, s.Text())
	})
	return ParseList(titles), nil
}

// ParseList cleans titles, drops empty ones and returns them unique and sorted.
func ParseList(titles []string) []string {
	cleaned := make([]string, 0, len(titles))
	for _, t := range titles {
		if t = crawler.CleanTitle(t); t != "" {
			cleaned = append(cleaned, t)
		}
	}
	return crawler.SortedSet(cleaned)
}

func readLines(r io.Reader) ([]string, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}
	return lines, scanner.Err()
}
