// Package chapters orders chapter folders of a series and merges their images
// into a single continuously numbered folder.
package chapters

import (
	"cmp"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"
)

// Priorities, lowest first.
const (
	PriorityChapter  = 1
	PriorityPrologue = 3
	PriorityEpilogue = 4
	PrioritySide     = 5
	PriorityNote     = 6
	PriorityUnknown  = 10
)

var (
	epilogueRe = regexp.MustCompile(`epilogue\s*\.?\s*(\d+(\.\d+)?)`)
	prologueRe = regexp.MustCompile(`prologue\s*\.?\s*(\d+(\.\d+)?)`)
	sideRe     = regexp.MustCompile(`side(?:\s*story)?\.?\s*(\d+(\.\d+)?)`)
	volumeRe   = regexp.MustCompile(`vol(?:ume)?\.?\s*(\d+)`)
	chapterRe  = regexp.MustCompile(`(?:chapter|ch|episode)\s*\.?\s*(\d+(\.\d+)?)`)
)

// Key is the sort key of a chapter folder name.
type Key struct {
	Priority int
	Volume   int
	Chapter  float64
	Name     string
}

func (k Key) String() string {
	return fmt.Sprintf("(%d, %d, %g, %q)", k.Priority, k.Volume, k.Chapter, k.Name)
}

// Compare orders keys by priority, volume, chapter number and finally name.
func (k Key) Compare(o Key) int {
	return cmp.Or(
		cmp.Compare(k.Priority, o.Priority),
		cmp.Compare(k.Volume, o.Volume),
		cmp.Compare(k.Chapter, o.Chapter),
		strings.Compare(k.Name, o.Name),
	)
}

// ParseChapter derives the sort key of a chapter folder from its name.
// Folders starting with a chapter keyword ignore any volume marker.
func ParseChapter(name string) Key {
	lower := strings.ToLower(strings.TrimSpace(name))

	switch {
	case strings.HasPrefix(lower, "oneshot"):
		return Key{PriorityChapter, 1, 1, name}
	case strings.HasPrefix(lower, "epilogue"):
		return Key{PriorityEpilogue, 1, firstNumber(epilogueRe, lower), name}
	case strings.HasPrefix(lower, "creator's note"):
		return Key{PriorityNote, 1, 0, name}
	case strings.HasPrefix(lower, "prologue"):
		return Key{PriorityPrologue, 1, firstNumber(prologueRe, lower), name}
	case strings.HasPrefix(lower, "side"):
		return Key{PrioritySide, 1, firstNumber(sideRe, lower), name}
	}

	volume := 1
	if !hasChapterPrefix(lower) {
		if m := volumeRe.FindStringSubmatch(lower); m != nil {
			if v, err := strconv.Atoi(m[1]); err == nil {
				volume = v
			}
		}
	}

	if m := chapterRe.FindStringSubmatch(lower); m != nil {
		ch, _ := strconv.ParseFloat(m[1], 64)
		return Key{PriorityChapter, volume, ch, name}
	}
	return Key{PriorityUnknown, volume, 0, name}
}

func hasChapterPrefix(lower string) bool {
	return strings.HasPrefix(lower, "chapter") || strings.HasPrefix(lower, "ch") || strings.HasPrefix(lower, "episode")
}

func firstNumber(re *regexp.Regexp, s string) float64 {
	m := re.FindStringSubmatch(s)
	if m == nil {
		return 0
	}
	f, _ := strconv.ParseFloat(m[1], 64)
	return f
}

// Sort orders chapter folder names in reading order.
func Sort(names []string) {
	slices.SortFunc(names, func(a, b string) int {
		return ParseChapter(a).Compare(ParseChapter(b))
	})
}

// FormatOrder renders names, already sorted, as a numbered listing with their keys.
func FormatOrder(names []string) string {
	var b strings.Builder
	for i, n := range names {
		fmt.Fprintf(&b, "%d. %s -> %s\n", i+1, n, ParseChapter(n))
	}
	return b.String()
}
