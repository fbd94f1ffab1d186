package extractor

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"profpipe/internal/models"
)

// Island extraction errors.
var (
	ErrIslandNotFound = errors.New("no record fragment found in script blocks")
	ErrInvalidIsland  = errors.New("record fragment is not valid JSON")
)

// islandPattern matches the comma-joined run of record objects embedded in
// the page's script blocks. The greedy middle spans every object in the run,
// so a single match covers the whole record array.
var islandPattern = regexp.MustCompile(`\{"i.*":\s*"(.*?)"\}`)

// LocateIsland scans the text of every script[type="text/javascript"] block
// in html and returns the first fragment matching the record pattern. When
// several candidates exist the first match wins.
func LocateIsland(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("failed to parse document: %w", err)
	}

	var sb strings.Builder

	doc.Find(`script[type="text/javascript"]`).Each(func(_ int, sel *goquery.Selection) {
		sb.WriteString(sel.Text())
		sb.WriteString("\n")
	})

	fragment := islandPattern.FindString(sb.String())
	if fragment == "" {
		return "", ErrIslandNotFound
	}

	return fragment, nil
}

// ParseIsland decodes a located fragment into flat records. The fragment is
// a bare comma-joined object run, so it is bracketed into a JSON array first.
func ParseIsland(fragment string) ([]models.RawRecord, error) {
	var records []models.RawRecord
	if err := json.Unmarshal([]byte("["+fragment+"]"), &records); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidIsland, err)
	}

	return records, nil
}
