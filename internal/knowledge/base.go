// Package knowledge loads curated remediation entries from a YAML file and
// attaches the relevant ones to analysis results. Matching is score-based:
// each entry declares the root cause types and keywords it speaks to, and an
// entry is attached to a root cause when its relevance score clears a fixed
// threshold.
package knowledge

import (
	"fmt"
	"sort"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/inquesthq/inquest/internal/analysis"
)

// Scoring weights and limits. A cause-type match contributes 0.6, keyword
// overlap contributes up to 0.4, and the sum is scaled by the entry weight.
const (
	causeTypeScore     = 0.6
	keywordScore       = 0.4
	relevanceThreshold = 0.3
	maxMatchesPerCause = 5
)

// Entry is one curated knowledge-base record.
//
// Example YAML structure:
//
//	schemaVersion: v1
//	entries:
//	  - id: kb-db-pool
//	    title: Database connection pool exhaustion
//	    causeTypes: [DB_CONNECTION_ERROR]
//	    keywords: [pool, "connection refused"]
//	    guidance: Check pool sizing and database max_connections.
//	    links:
//	      - https://runbooks.example.com/db-pool
//	    weight: 1.0
type Entry struct {
	// ID is the unique entry identifier, used for deduplication and display
	ID string `yaml:"id"`

	// Title is a short human-readable summary
	Title string `yaml:"title"`

	// CauseTypes lists the root cause types this entry speaks to
	// (e.g. NETWORK_TIMEOUT). Compared case-insensitively.
	CauseTypes []string `yaml:"causeTypes"`

	// Keywords are matched against the root cause description and the
	// error message. Compared case-insensitively.
	Keywords []string `yaml:"keywords"`

	// Guidance is the remediation text attached to matching root causes
	Guidance string `yaml:"guidance"`

	// Links point at runbooks or documentation
	Links []string `yaml:"links"`

	// Weight scales the relevance score. Omitted or zero means 1.0.
	Weight float64 `yaml:"weight"`
}

// baseFile is the top-level structure of the knowledge-base YAML file.
type baseFile struct {
	// SchemaVersion is the optional explicit schema version. Only "v1"
	// (or absent) is accepted.
	SchemaVersion string `yaml:"schemaVersion"`

	// Entries is the list of knowledge entries
	Entries []Entry `yaml:"entries"`
}

// validate checks the parsed file before it becomes an active base.
// Returns descriptive errors for validation failures.
func (f *baseFile) validate() error {
	if f.SchemaVersion != "" && f.SchemaVersion != "v1" {
		return fmt.Errorf("unsupported schemaVersion: %q (expected \"v1\")", f.SchemaVersion)
	}

	seenIDs := make(map[string]bool)
	for i, entry := range f.Entries {
		if strings.TrimSpace(entry.ID) == "" {
			return fmt.Errorf("entry[%d]: id is required", i)
		}
		if strings.TrimSpace(entry.Title) == "" {
			return fmt.Errorf("entry[%d] (%s): title is required", i, entry.ID)
		}
		if entry.Weight < 0 {
			return fmt.Errorf("entry[%d] (%s): weight must not be negative", i, entry.ID)
		}
		if len(entry.CauseTypes) == 0 && len(entry.Keywords) == 0 {
			return fmt.Errorf("entry[%d] (%s): at least one causeType or keyword is required", i, entry.ID)
		}
		if seenIDs[entry.ID] {
			return fmt.Errorf("entry[%d]: duplicate entry id %q", i, entry.ID)
		}
		seenIDs[entry.ID] = true
	}
	return nil
}

// Base is an immutable, loaded knowledge base. Reloads produce a fresh Base
// rather than mutating an existing one, so readers never need a lock.
type Base struct {
	entries []Entry
	path    string
}

// LoadFile loads and validates a knowledge-base file using Koanf.
// Returns the ready-to-query Base or an error.
//
// Error cases:
//   - File not found or cannot be read
//   - Invalid YAML syntax
//   - Schema validation failure (missing required fields, duplicate ids,
//     negative weights)
func LoadFile(path string) (*Base, error) {
	k := koanf.New(".")

	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("failed to load knowledge base from %q: %w", path, err)
	}

	var f baseFile
	if err := k.UnmarshalWithConf("", &f, koanf.UnmarshalConf{Tag: "yaml"}); err != nil {
		return nil, fmt.Errorf("failed to parse knowledge base from %q: %w", path, err)
	}

	if err := f.validate(); err != nil {
		return nil, fmt.Errorf("knowledge base validation failed for %q: %w", path, err)
	}

	entries := make([]Entry, 0, len(f.Entries))
	for _, entry := range f.Entries {
		entries = append(entries, normalizeEntry(entry))
	}

	return &Base{entries: entries, path: path}, nil
}

// normalizeEntry canonicalizes an entry so matching never has to fold case
// again: cause types are uppercased, keywords lowercased, blanks dropped.
func normalizeEntry(entry Entry) Entry {
	entry.ID = strings.TrimSpace(entry.ID)
	entry.Title = strings.TrimSpace(entry.Title)
	entry.Guidance = strings.TrimSpace(entry.Guidance)

	causeTypes := make([]string, 0, len(entry.CauseTypes))
	for _, ct := range entry.CauseTypes {
		if ct = strings.ToUpper(strings.TrimSpace(ct)); ct != "" {
			causeTypes = append(causeTypes, ct)
		}
	}
	entry.CauseTypes = causeTypes

	keywords := make([]string, 0, len(entry.Keywords))
	for _, kw := range entry.Keywords {
		if kw = strings.ToLower(strings.TrimSpace(kw)); kw != "" {
			keywords = append(keywords, kw)
		}
	}
	entry.Keywords = keywords

	if entry.Weight == 0 {
		entry.Weight = 1
	}
	return entry
}

// Len returns the number of loaded entries.
func (b *Base) Len() int {
	return len(b.entries)
}

// Path returns the file the base was loaded from.
func (b *Base) Path() string {
	return b.path
}

// Ref is one knowledge reference attached to a root cause.
type Ref struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	Guidance string  `json:"guidance"`
	Score    float64 `json:"score"`
}

// Match scores every entry against one root cause and returns the references
// that clear the relevance threshold, highest score first, capped at
// maxMatchesPerCause. Ties are broken by entry id so results are stable.
func (b *Base) Match(cause analysis.RootCause, rec analysis.ErrorRecord) []Ref {
	causeType := strings.ToUpper(cause.Type)
	haystack := strings.ToLower(cause.Description + " " + rec.Message)

	var refs []Ref
	for _, entry := range b.entries {
		score := entry.score(causeType, haystack)
		if score < relevanceThreshold {
			continue
		}
		refs = append(refs, Ref{
			ID:       entry.ID,
			Title:    entry.Title,
			Guidance: entry.Guidance,
			Score:    score,
		})
	}

	sort.SliceStable(refs, func(i, j int) bool {
		if refs[i].Score != refs[j].Score {
			return refs[i].Score > refs[j].Score
		}
		return refs[i].ID < refs[j].ID
	})

	if len(refs) > maxMatchesPerCause {
		refs = refs[:maxMatchesPerCause]
	}
	return refs
}

// score computes the relevance of one entry for a root cause. The entry is
// expected to be normalized; causeType must be uppercase and haystack
// lowercase.
func (e Entry) score(causeType, haystack string) float64 {
	score := 0.0

	for _, ct := range e.CauseTypes {
		if ct == causeType {
			score += causeTypeScore
			break
		}
	}

	if len(e.Keywords) > 0 {
		matched := 0
		for _, kw := range e.Keywords {
			if strings.Contains(haystack, kw) {
				matched++
			}
		}
		score += keywordScore * float64(matched) / float64(len(e.Keywords))
	}

	score *= e.Weight
	if score > 1 {
		score = 1
	}
	return score
}
