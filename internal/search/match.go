// Package search implements tilth's symbol, content, and glob search modes:
// candidate discovery over a directory scope, deterministic ranking,
// faceting for large result sets, and text rendering of the response
// returned by the tilth_search and tilth_files tools.
package search

import (
	"time"

	"github.com/pityka/tilth/internal/decl"
)

// Match is one search hit, either a definition or a usage line.
type Match struct {
	Path         string
	Line         int
	Text         string
	IsDefinition bool
	Exact        bool
	DefWeight    int
	Kind         decl.Kind
	// DefRange is the definition node's [start,end] line span, used by match
	// expansion to render the whole declaration instead of a fixed window.
	// Zero value ([2]int{}) means no range is known (usages, or content hits).
	DefRange [2]int
	// ImplTarget is set when this match is a Rust impl block matched by its
	// trait name: the type the trait is implemented for.
	ImplTarget string
	FileLines  int
	MTime      time.Time
}

// RankPath implements rank.Scored.
func (m Match) RankPath() string { return m.Path }

// RankLine implements rank.Scored.
func (m Match) RankLine() int { return m.Line }

// RankIsDefinition implements rank.Scored.
func (m Match) RankIsDefinition() bool { return m.IsDefinition }

// RankDefWeight implements rank.Scored.
func (m Match) RankDefWeight() int { return m.DefWeight }

// RankExact implements rank.Scored.
func (m Match) RankExact() bool { return m.Exact }

// RankFileLines implements rank.Scored.
func (m Match) RankFileLines() int { return m.FileLines }

// RankMTime implements rank.Scored.
func (m Match) RankMTime() time.Time { return m.MTime }

// Result is a complete search response: the ranked, truncated match list
// plus the counts needed to render the response header.
type Result struct {
	Query       string
	Scope       string
	Matches     []Match
	TotalFound  int
	Definitions int
	Usages      int
}

// MaxMatches caps how many matches a search response carries after ranking;
// the header reports TotalFound separately so callers know how much was cut.
const MaxMatches = 50
