package tui

import (
	"sort"
	"strings"
	"sync"

	"jukebox/internal/jukebox"

	"github.com/junegunn/fzf/src/algo"
	"github.com/junegunn/fzf/src/util"
)

var initAlgo sync.Once

type scored struct {
	entry jukebox.Entry
	score int
}

// fuzzyFilter keeps the entries whose title or username fuzzy-matches query,
// best match first. Ties keep their original order.
func fuzzyFilter(entries []jukebox.Entry, query string) []jukebox.Entry {
	query = strings.TrimSpace(query)
	if query == "" {
		return entries
	}
	initAlgo.Do(func() { algo.Init("default") })

	pattern := []rune(strings.ToLower(query))
	slab := util.MakeSlab(16384, 1024)

	var hits []scored
	for _, e := range entries {
		chars := util.ToChars([]byte(strings.ToLower(e.Title + " " + e.Username)))
		res, _ := algo.FuzzyMatchV2(false, false, true, &chars, pattern, false, slab)
		if res.Start < 0 {
			continue
		}
		hits = append(hits, scored{entry: e, score: res.Score})
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].score > hits[j].score })

	out := make([]jukebox.Entry, len(hits))
	for i, h := range hits {
		out[i] = h.entry
	}
	return out
}
