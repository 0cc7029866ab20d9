package dedup

import (
	"github.com/google/uuid"

	"github.com/helixir/dataset-discovery-service/internal/domain"
)

const (
	// DefaultTitleThreshold is the default normalized title similarity above
	// which two publications are title-equivalent.
	DefaultTitleThreshold = 0.85

	// DefaultAuthorThreshold is the default author overlap ratio above which
	// two publications share an author set.
	DefaultAuthorThreshold = 0.70

	// DefaultYearTolerance is the maximum publication year difference for a
	// fuzzy match. Preprint and journal versions of the same work commonly
	// straddle a year boundary.
	DefaultYearTolerance = 1
)

// Config holds the thresholds for duplicate detection.
type Config struct {
	// TitleThreshold is the minimum normalized title similarity.
	TitleThreshold float64

	// AuthorThreshold is the minimum author overlap ratio.
	AuthorThreshold float64

	// YearTolerance is the maximum year difference for a fuzzy match.
	YearTolerance int
}

// DefaultConfig returns the default deduplication thresholds.
func DefaultConfig() Config {
	return Config{
		TitleThreshold:  DefaultTitleThreshold,
		AuthorThreshold: DefaultAuthorThreshold,
		YearTolerance:   DefaultYearTolerance,
	}
}

// Deduplicator collapses publications describing the same work into single
// records, merging their metadata.
type Deduplicator struct {
	cfg Config
}

// New creates a Deduplicator. Zero-valued config fields fall back to the
// defaults.
func New(cfg Config) *Deduplicator {
	if cfg.TitleThreshold == 0 {
		cfg.TitleThreshold = DefaultTitleThreshold
	}
	if cfg.AuthorThreshold == 0 {
		cfg.AuthorThreshold = DefaultAuthorThreshold
	}
	if cfg.YearTolerance == 0 {
		cfg.YearTolerance = DefaultYearTolerance
	}
	return &Deduplicator{cfg: cfg}
}

// Deduplicate collapses duplicates in the input list, preserving first-seen
// order of the surviving records. It returns the deduplicated list and the
// number of records that were absorbed into another. The operation is
// idempotent: running it on an already-deduplicated list changes nothing.
func (d *Deduplicator) Deduplicate(pubs []*domain.Publication) ([]*domain.Publication, int) {
	kept := make([]*domain.Publication, 0, len(pubs))
	merged := 0

	for _, pub := range pubs {
		if pub == nil {
			continue
		}

		var target *domain.Publication
		for _, existing := range kept {
			if d.SameEntity(existing, pub) {
				target = existing
				break
			}
		}

		if target == nil {
			kept = append(kept, pub)
			continue
		}

		Merge(target, pub)
		merged++
	}

	return kept, merged
}

// SameEntity reports whether two publications describe the same work: any
// exact identifier match short-circuits; otherwise title similarity, author
// overlap and year proximity must all hold.
func (d *Deduplicator) SameEntity(a, b *domain.Publication) bool {
	if identifiersIntersect(a.Identifiers, b.Identifiers) {
		return true
	}

	if TitleSimilarity(a.Title, b.Title) < d.cfg.TitleThreshold {
		return false
	}
	if AuthorOverlap(a.Authors, b.Authors) < d.cfg.AuthorThreshold {
		return false
	}
	return yearsWithin(a.Year, b.Year, d.cfg.YearTolerance)
}

// identifiersIntersect reports whether any identifier is present and equal in
// both sets.
func identifiersIntersect(a, b domain.PublicationIdentifiers) bool {
	pairs := [][2]string{
		{a.DOI, b.DOI},
		{a.PubMedID, b.PubMedID},
		{a.PMCID, b.PMCID},
		{a.ArXivID, b.ArXivID},
		{a.SemanticScholarID, b.SemanticScholarID},
		{a.OpenAlexID, b.OpenAlexID},
		{a.EuropePMCID, b.EuropePMCID},
	}
	for _, pair := range pairs {
		if pair[0] != "" && pair[0] == pair[1] {
			return true
		}
	}
	return false
}

// yearsWithin reports whether two publication years are within the given
// tolerance. An unknown year (zero) matches anything; sources disagree on
// dates often enough that a missing year must not block a merge that the
// title and author evidence supports.
func yearsWithin(a, b, tolerance int) bool {
	if a == 0 || b == 0 {
		return true
	}
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	return diff <= tolerance
}

// Merge absorbs src into dst. The merge is commutative in content: whichever
// record arrives first, the surviving record carries the union of identifiers,
// authors, keywords and provenance, the longer title, abstract and venue, the
// earliest year and date, and the higher citation count. The surviving record
// keeps its own ID.
func Merge(dst, src *domain.Publication) {
	if dst.ID == uuid.Nil {
		dst.ID = src.ID
	}

	mergeIdentifiers(&dst.Identifiers, src.Identifiers)
	dst.CanonicalID = domain.GenerateCanonicalID(dst.Identifiers)

	if len(src.Abstract) > len(dst.Abstract) {
		dst.Abstract = src.Abstract
	}
	if len(src.Title) > len(dst.Title) {
		dst.Title = src.Title
	}
	if len(src.Venue) > len(dst.Venue) {
		dst.Venue = src.Venue
	}
	if src.Year != 0 && (dst.Year == 0 || src.Year < dst.Year) {
		dst.Year = src.Year
	}
	if src.PublishedDate != nil && (dst.PublishedDate == nil || src.PublishedDate.Before(*dst.PublishedDate)) {
		dst.PublishedDate = src.PublishedDate
	}
	if src.CitationCount > dst.CitationCount {
		dst.CitationCount = src.CitationCount
	}

	dst.Authors = unionAuthors(dst.Authors, src.Authors)
	dst.Keywords = unionStrings(dst.Keywords, src.Keywords)
	for _, source := range src.Sources {
		dst.AddSource(source)
	}
	for key, value := range src.RawMetadata {
		if dst.RawMetadata == nil {
			dst.RawMetadata = make(map[string]interface{})
		}
		if _, ok := dst.RawMetadata[key]; !ok {
			dst.RawMetadata[key] = value
		}
	}

	if !src.CreatedAt.IsZero() && (dst.CreatedAt.IsZero() || src.CreatedAt.Before(dst.CreatedAt)) {
		dst.CreatedAt = src.CreatedAt
	}
	if src.UpdatedAt.After(dst.UpdatedAt) {
		dst.UpdatedAt = src.UpdatedAt
	}
}

// mergeIdentifiers fills every identifier dst is missing from src. Existing
// values are never overwritten, so provenance is retained from both sides.
func mergeIdentifiers(dst *domain.PublicationIdentifiers, src domain.PublicationIdentifiers) {
	if dst.DOI == "" {
		dst.DOI = src.DOI
	}
	if dst.PubMedID == "" {
		dst.PubMedID = src.PubMedID
	}
	if dst.PMCID == "" {
		dst.PMCID = src.PMCID
	}
	if dst.ArXivID == "" {
		dst.ArXivID = src.ArXivID
	}
	if dst.SemanticScholarID == "" {
		dst.SemanticScholarID = src.SemanticScholarID
	}
	if dst.OpenAlexID == "" {
		dst.OpenAlexID = src.OpenAlexID
	}
	if dst.EuropePMCID == "" {
		dst.EuropePMCID = src.EuropePMCID
	}
}

// unionAuthors unions two author lists in first-seen order, dropping exact
// duplicate names after normalization.
func unionAuthors(a, b []domain.Author) []domain.Author {
	seen := make(map[string]struct{}, len(a)+len(b))
	result := make([]domain.Author, 0, len(a)+len(b))

	for _, list := range [][]domain.Author{a, b} {
		for _, author := range list {
			key := NormalizeName(author.Name)
			if key == "" {
				continue
			}
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			result = append(result, author)
		}
	}
	return result
}

// unionStrings unions two string slices in first-seen order, case-insensitive.
func unionStrings(a, b []string) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	var result []string

	for _, list := range [][]string{a, b} {
		for _, s := range list {
			key := normalizeKey(s)
			if key == "" {
				continue
			}
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			result = append(result, s)
		}
	}
	return result
}

func normalizeKey(s string) string {
	return NormalizeTitle(s)
}
