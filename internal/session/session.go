// Package session implements the process-lifetime activity record the spec's
// data model calls Session: per-path read counts, per-query search counts,
// which (path, line) definitions have already been expanded, and how many
// tilth_map calls were made. tilth_session's summary/reset actions and the
// match-expansion pipeline's cross-response dedup both read and write it.
package session

import (
	"fmt"
	"strconv"
	"sync"
)

// Session is a concurrent, process-lifetime activity record.
type Session struct {
	mu         sync.Mutex
	reads      map[string]int
	searches   map[string]int
	expansions map[string]bool
	mapCalls   int
}

// New returns an empty session.
func New() *Session {
	return &Session{
		reads:      make(map[string]int),
		searches:   make(map[string]int),
		expansions: make(map[string]bool),
	}
}

// RecordRead increments path's read count.
func (s *Session) RecordRead(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.reads[path]++
}

// RecordSearch increments query's search count.
func (s *Session) RecordSearch(query string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.searches[query]++
}

// RecordMapCall increments the tilth_map call counter.
func (s *Session) RecordMapCall() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.mapCalls++
}

func expansionKey(path string, line int) string {
	return path + ":" + strconv.Itoa(line)
}

// ExpansionSeen reports whether (path, line) has already been expanded this
// session.
func (s *Session) ExpansionSeen(path string, line int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.expansions[expansionKey(path, line)]
}

// MarkExpansion records (path, line) as expanded.
func (s *Session) MarkExpansion(path string, line int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.expansions[expansionKey(path, line)] = true
}

// Summary is the tilth_session "summary" action's response payload.
type Summary struct {
	ReadCount       int
	DistinctReads   int
	SearchCount     int
	DistinctQueries int
	ExpansionCount  int
	MapCalls        int
}

// Summarize aggregates the session's counters.
func (s *Session) Summarize() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()

	var sum Summary

	for _, n := range s.reads {
		sum.ReadCount += n
	}

	sum.DistinctReads = len(s.reads)

	for _, n := range s.searches {
		sum.SearchCount += n
	}

	sum.DistinctQueries = len(s.searches)
	sum.ExpansionCount = len(s.expansions)
	sum.MapCalls = s.mapCalls

	return sum
}

// Reset clears every counter, per the tilth_session "reset" action.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.reads = make(map[string]int)
	s.searches = make(map[string]int)
	s.expansions = make(map[string]bool)
	s.mapCalls = 0
}

// FormatSummary renders sum as the tilth_session response text.
func FormatSummary(sum Summary) string {
	return fmt.Sprintf(
		"# Session summary\nreads: %d (%d distinct)\nsearches: %d (%d distinct)\nexpansions: %d\nmap calls: %d",
		sum.ReadCount, sum.DistinctReads, sum.SearchCount, sum.DistinctQueries, sum.ExpansionCount, sum.MapCalls,
	)
}
