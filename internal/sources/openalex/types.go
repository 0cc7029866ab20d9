// Package openalex provides the OpenAlex source client.
//
// OpenAlex is an open catalog of scholarly works with a citation graph.
// This package implements sources.PublicationSource: it resolves the
// dataset's primary publication to an OpenAlex work and walks its incoming
// citations, and additionally searches for works mentioning the dataset
// identifier in their full text.
//
// API documentation: https://docs.openalex.org/
package openalex

// WorksResponse is the response envelope of the /works list endpoint.
type WorksResponse struct {
	Meta    Meta   `json:"meta"`
	Results []Work `json:"results"`
}

// Meta carries result-set metadata for a works listing.
type Meta struct {
	Count   int `json:"count"`
	Page    int `json:"page"`
	PerPage int `json:"per_page"`
}

// Work represents one OpenAlex work.
type Work struct {
	ID                    string           `json:"id"`
	DOI                   string           `json:"doi"`
	Title                 string           `json:"title"`
	DisplayName           string           `json:"display_name"`
	PublicationYear       int              `json:"publication_year"`
	PublicationDate       string           `json:"publication_date"`
	Type                  string           `json:"type"`
	CitedByCount          int              `json:"cited_by_count"`
	Authorships           []Authorship     `json:"authorships"`
	PrimaryLocation       *Location        `json:"primary_location,omitempty"`
	IDs                   IDs              `json:"ids"`
	Keywords              []Keyword        `json:"keywords,omitempty"`
	AbstractInvertedIndex map[string][]int `json:"abstract_inverted_index,omitempty"`
}

// IDs contains the external identifiers OpenAlex knows for a work.
type IDs struct {
	OpenAlex string `json:"openalex,omitempty"`
	DOI      string `json:"doi,omitempty"`
	PMID     string `json:"pmid,omitempty"`
	PMCID    string `json:"pmcid,omitempty"`
}

// Authorship links a work to one author with their institutions.
type Authorship struct {
	Author       AuthorInfo    `json:"author"`
	Institutions []Institution `json:"institutions,omitempty"`
}

// AuthorInfo identifies one author.
type AuthorInfo struct {
	ID          string `json:"id,omitempty"`
	DisplayName string `json:"display_name"`
	Orcid       string `json:"orcid,omitempty"`
}

// Institution identifies one affiliation.
type Institution struct {
	ID          string `json:"id,omitempty"`
	DisplayName string `json:"display_name"`
}

// Location is the hosting venue of a work.
type Location struct {
	Source *Source `json:"source,omitempty"`
}

// Source is the venue (journal, repository) hosting a work.
type Source struct {
	ID          string `json:"id,omitempty"`
	DisplayName string `json:"display_name"`
	Type        string `json:"type,omitempty"`
}

// Keyword is a subject keyword OpenAlex assigned to a work.
type Keyword struct {
	DisplayName string  `json:"display_name"`
	Score       float64 `json:"score,omitempty"`
}
