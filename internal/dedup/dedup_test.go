package dedup

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixir/dataset-discovery-service/internal/domain"
)

func pubWithDOI(doi, title string, year int, authorNames ...string) *domain.Publication {
	authors := make([]domain.Author, 0, len(authorNames))
	for _, name := range authorNames {
		authors = append(authors, domain.Author{Name: name})
	}
	ids := domain.PublicationIdentifiers{DOI: doi}
	return &domain.Publication{
		CanonicalID: domain.GenerateCanonicalID(ids),
		Identifiers: ids,
		Title:       title,
		Authors:     authors,
		Year:        year,
	}
}

func TestDeduplicate_NearIdenticalTitlesMerge(t *testing.T) {
	d := New(DefaultConfig())

	a := pubWithDOI("10.1/a", "CD105+ Fibroblasts Support Immune Escape", 2024, "Smith", "Lee")
	a.Sources = []domain.SourceType{domain.SourceTypeOpenAlex}
	b := pubWithDOI("10.1/b", "CD105 Fibroblasts Support Immune Escape", 2024, "Smith", "Lee", "Patel")
	b.Sources = []domain.SourceType{domain.SourceTypeSemanticScholar}

	result, merged := d.Deduplicate([]*domain.Publication{a, b})

	require.Len(t, result, 1)
	assert.Equal(t, 1, merged)
	assert.Len(t, result[0].Authors, 3)
	assert.Equal(t, []domain.SourceType{
		domain.SourceTypeOpenAlex,
		domain.SourceTypeSemanticScholar,
	}, result[0].Sources)
}

func TestDeduplicate_ExactIdentifierShortCircuits(t *testing.T) {
	d := New(DefaultConfig())

	// Titles are completely different; the shared DOI alone decides.
	a := pubWithDOI("10.1/same", "Original title", 2020, "Smith")
	b := pubWithDOI("10.1/same", "Retitled in another index", 2021, "Doe")

	result, merged := d.Deduplicate([]*domain.Publication{a, b})

	require.Len(t, result, 1)
	assert.Equal(t, 1, merged)
}

func TestDeduplicate_DistinctPublicationsSurvive(t *testing.T) {
	d := New(DefaultConfig())

	a := pubWithDOI("10.1/a", "Single-cell atlas of the human heart", 2023, "Smith", "Lee")
	b := pubWithDOI("10.1/b", "Proteomic analysis of mouse kidney tissue", 2023, "Johnson", "Wang")

	result, merged := d.Deduplicate([]*domain.Publication{a, b})

	assert.Len(t, result, 2)
	assert.Equal(t, 0, merged)
}

func TestDeduplicate_YearGapBlocksFuzzyMatch(t *testing.T) {
	d := New(DefaultConfig())

	a := pubWithDOI("10.1/a", "Genomic landscape of colorectal cancer", 2018, "Smith", "Lee")
	b := pubWithDOI("10.1/b", "Genomic landscape of colorectal cancer", 2024, "Smith", "Lee")

	result, _ := d.Deduplicate([]*domain.Publication{a, b})
	assert.Len(t, result, 2)
}

func TestDeduplicate_PreprintJournalYearStraddleMerges(t *testing.T) {
	d := New(DefaultConfig())

	preprint := pubWithDOI("10.1101/x", "Spatial transcriptomics of tumor margins", 2023, "Smith", "Lee")
	journal := pubWithDOI("10.1038/y", "Spatial transcriptomics of tumor margins", 2024, "Smith", "Lee")

	result, merged := d.Deduplicate([]*domain.Publication{preprint, journal})

	require.Len(t, result, 1)
	assert.Equal(t, 1, merged)
}

func TestDeduplicate_Idempotent(t *testing.T) {
	d := New(DefaultConfig())

	pubs := []*domain.Publication{
		pubWithDOI("10.1/a", "CD105+ Fibroblasts Support Immune Escape", 2024, "Smith", "Lee"),
		pubWithDOI("10.1/b", "CD105 Fibroblasts Support Immune Escape", 2024, "Smith", "Lee", "Patel"),
		pubWithDOI("10.1/c", "An unrelated study of liver organoids", 2022, "Chen"),
	}

	once, _ := d.Deduplicate(pubs)
	twice, merged := d.Deduplicate(once)

	assert.Equal(t, 0, merged)
	assert.Equal(t, once, twice)
}

func TestDeduplicate_OrderInsensitiveContent(t *testing.T) {
	d := New(DefaultConfig())

	build := func() (*domain.Publication, *domain.Publication) {
		a := pubWithDOI("10.1/a", "CD105+ Fibroblasts Support Immune Escape", 2024, "Smith", "Lee")
		a.Abstract = "Short."
		a.Venue = "bioRxiv"
		a.CitationCount = 3
		a.Identifiers.PubMedID = "111"
		b := pubWithDOI("10.1/b", "CD105 Fibroblasts Support Immune Escape", 2023, "Smith", "Lee", "Patel")
		b.Abstract = "A considerably longer abstract with more substance."
		b.Venue = "Cancer Cell"
		b.CitationCount = 9
		b.Identifiers.PMCID = "PMC222"
		return a, b
	}

	a1, b1 := build()
	forward, _ := d.Deduplicate([]*domain.Publication{a1, b1})
	a2, b2 := build()
	reverse, _ := d.Deduplicate([]*domain.Publication{b2, a2})

	require.Len(t, forward, 1)
	require.Len(t, reverse, 1)

	f, r := forward[0], reverse[0]
	assert.Equal(t, f.Title, r.Title)
	assert.Equal(t, f.Abstract, r.Abstract)
	assert.Equal(t, f.Venue, r.Venue)
	assert.Equal(t, f.Year, r.Year)
	assert.Equal(t, f.CitationCount, r.CitationCount)
	assert.ElementsMatch(t, f.AuthorNames(), r.AuthorNames())
	assert.Equal(t, "111", f.Identifiers.PubMedID)
	assert.Equal(t, "PMC222", f.Identifiers.PMCID)
	assert.Equal(t, "111", r.Identifiers.PubMedID)
	assert.Equal(t, "PMC222", r.Identifiers.PMCID)

	// The longer-wins and earliest-wins rules pick concrete values, not just
	// matching ones.
	assert.Equal(t, "CD105+ Fibroblasts Support Immune Escape", f.Title)
	assert.Equal(t, "Cancer Cell", f.Venue)
	assert.Equal(t, 2023, f.Year)
}

func TestMerge_Policy(t *testing.T) {
	earlier := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	later := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	dst := &domain.Publication{
		Identifiers:   domain.PublicationIdentifiers{PubMedID: "111"},
		CanonicalID:   "pubmed:111",
		Title:         "Study of dataset reuse",
		Abstract:      "Short abstract.",
		Authors:       []domain.Author{{Name: "John Smith"}},
		CitationCount: 2,
		Keywords:      []string{"genomics"},
		Sources:       []domain.SourceType{domain.SourceTypePubMed},
		CreatedAt:     later,
		UpdatedAt:     earlier,
	}
	src := &domain.Publication{
		Identifiers:   domain.PublicationIdentifiers{DOI: "10.1/x", PubMedID: "111"},
		CanonicalID:   "doi:10.1/x",
		Title:         "Study of dataset reuse",
		Abstract:      "A much longer abstract carrying the full detail of the work.",
		Authors:       []domain.Author{{Name: "Smith, John"}, {Name: "Jane Doe"}},
		Venue:         "Nature Methods",
		Year:          2024,
		CitationCount: 10,
		Keywords:      []string{"Genomics", "reuse"},
		Sources:       []domain.SourceType{domain.SourceTypeOpenAlex},
		CreatedAt:     earlier,
		UpdatedAt:     later,
	}

	Merge(dst, src)

	// DOI arrives from src, so the canonical ID is promoted.
	assert.Equal(t, "doi:10.1/x", dst.CanonicalID)
	assert.Equal(t, "111", dst.Identifiers.PubMedID)
	assert.Equal(t, src.Abstract, dst.Abstract)
	assert.Equal(t, "Nature Methods", dst.Venue)
	assert.Equal(t, 2024, dst.Year)
	assert.Equal(t, 10, dst.CitationCount)
	// "Smith, John" normalizes to the same name as "John Smith" and is dropped.
	assert.Equal(t, []string{"John Smith", "Jane Doe"}, dst.AuthorNames())
	assert.Equal(t, []string{"genomics", "reuse"}, dst.Keywords)
	assert.Equal(t, []domain.SourceType{domain.SourceTypePubMed, domain.SourceTypeOpenAlex}, dst.Sources)
	assert.Equal(t, earlier, dst.CreatedAt)
	assert.Equal(t, later, dst.UpdatedAt)
}

func TestMerge_SurvivorKeepsItsID(t *testing.T) {
	dst := pubWithDOI("10.1/same", "Study of dataset reuse", 2024, "Smith")
	dst.ID = uuid.New()
	src := pubWithDOI("10.1/same", "Study of dataset reuse", 2024, "Smith")
	src.ID = uuid.New()

	want := dst.ID
	Merge(dst, src)
	assert.Equal(t, want, dst.ID)
}

func TestMerge_FillsMissingID(t *testing.T) {
	dst := pubWithDOI("10.1/same", "Study of dataset reuse", 2024, "Smith")
	src := pubWithDOI("10.1/same", "Study of dataset reuse", 2024, "Smith")
	src.ID = uuid.New()

	Merge(dst, src)
	assert.Equal(t, src.ID, dst.ID)
}

func TestSameEntity_UnknownYearDoesNotBlock(t *testing.T) {
	d := New(DefaultConfig())

	a := pubWithDOI("10.1/a", "Multi-omic profiling of gliomas", 0, "Smith", "Lee")
	b := pubWithDOI("10.1/b", "Multi-omic profiling of gliomas", 2024, "Smith", "Lee")

	assert.True(t, d.SameEntity(a, b))
}
