// Package extractor detects priced rooms in free plan text.
//
// Matching is best effort: a line that does not look like
// "<name>, <number> [sqft], <finish>" contributes nothing and is never an error.
package extractor

import (
	"bufio"
	"io"
	"iter"
	"math"
	"regexp"
	"strconv"
	"strings"

	"construction_estimator/internal/domain/entities"
	"construction_estimator/internal/logger"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	UnitSqft     = "sqft"
	maxLineBytes = 1024 * 1024
)

const (
	separator   = `\s*(?:[,;:|]|\s[-–]\s)\s*`
	quantityTok = `(\d{1,3}(?:,\d{3})+(?:\.\d+)?|-?\d+(?:\.\d+)?|[^\s,;:|]+)`
	unitTok     = `(?:\s*(sq\.?\s?ft\.?|sqft|sf|ft2|ft²|square\s+feet|sq\.?\s?feet))?`
	finishTok   = `(basic|standard|premium)\b`
)

var linePattern = regexp.MustCompile(`(?i)^\s*(.+?)` + separator + quantityTok + unitTok + separator + finishTok)

// Extract returns a single-pass sequence of candidates read line by line from r.
// The sequence stops early if the consumer stops or r fails; a read failure or a
// line longer than 1 MiB ends the scan and is logged at debug level.
func Extract(r io.Reader) iter.Seq[entities.Candidate] {
	return func(yield func(entities.Candidate) bool) {
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
		caser := cases.Title(language.English)
		for scanner.Scan() {
			c, ok := parseLine(scanner.Text(), caser)
			if !ok {
				continue
			}
			if !yield(c) {
				return
			}
		}
		if err := scanner.Err(); err != nil {
			logger.Log.Debugf("[estimate][extractor] scan stopped early err=%v", err)
		}
	}
}

// ExtractText is Extract over an in-memory string.
func ExtractText(text string) iter.Seq[entities.Candidate] {
	return Extract(strings.NewReader(text))
}

// Collect drains a candidate sequence. An empty result means "no rooms detected".
func Collect(seq iter.Seq[entities.Candidate]) []entities.Candidate {
	var out []entities.Candidate
	for c := range seq {
		out = append(out, c)
	}
	return out
}

// ToRooms maps candidates onto room specs for pricing.
func ToRooms(candidates []entities.Candidate) []entities.RoomSpec {
	rooms := make([]entities.RoomSpec, 0, len(candidates))
	for _, c := range candidates {
		rooms = append(rooms, entities.RoomSpec{Name: c.Name, AreaSqft: c.Quantity, Finish: c.Finish})
	}
	return rooms
}

func parseLine(line string, caser cases.Caser) (entities.Candidate, bool) {
	m := linePattern.FindStringSubmatch(line)
	if m == nil {
		return entities.Candidate{}, false
	}

	name := strings.TrimSpace(m[1])
	if name == "" {
		return entities.Candidate{}, false
	}
	qty, ok := parseQuantity(m[2])
	if !ok {
		return entities.Candidate{}, false
	}

	c := entities.Candidate{
		Name:     caser.String(name),
		Quantity: qty,
		Finish:   strings.ToLower(m[4]),
	}
	if strings.TrimSpace(m[3]) != "" {
		c.Unit = UnitSqft
	}
	return c, true
}

func parseQuantity(tok string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.ReplaceAll(tok, ",", ""), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0, false
	}
	return v, true
}
