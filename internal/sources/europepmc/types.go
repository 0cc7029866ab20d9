// Package europepmc provides the Europe PMC source client.
//
// Europe PMC aggregates life-science literature from MEDLINE, PMC and
// preprint servers behind one REST API. The client searches for articles
// mentioning the dataset accession and lists the articles citing the
// dataset's primary publication.
//
// API documentation: https://europepmc.org/RestfulWebService
package europepmc

// SearchResponse is the response of the search endpoint.
type SearchResponse struct {
	HitCount   int        `json:"hitCount"`
	ResultList ResultList `json:"resultList"`
}

// ResultList wraps the search results.
type ResultList struct {
	Results []Result `json:"result"`
}

// Result is one article record from a core-resultType search.
type Result struct {
	ID                   string       `json:"id"`
	Source               string       `json:"source"`
	PMID                 string       `json:"pmid,omitempty"`
	PMCID                string       `json:"pmcid,omitempty"`
	DOI                  string       `json:"doi,omitempty"`
	Title                string       `json:"title"`
	AuthorString         string       `json:"authorString,omitempty"`
	AuthorList           *AuthorList  `json:"authorList,omitempty"`
	JournalInfo          *JournalInfo `json:"journalInfo,omitempty"`
	PubYear              string       `json:"pubYear,omitempty"`
	FirstPublicationDate string       `json:"firstPublicationDate,omitempty"`
	AbstractText         string       `json:"abstractText,omitempty"`
	CitedByCount         int          `json:"citedByCount"`
	KeywordList          *KeywordList `json:"keywordList,omitempty"`
}

// AuthorList wraps the structured author records.
type AuthorList struct {
	Authors []Author `json:"author"`
}

// Author is one structured author record.
type Author struct {
	FullName    string       `json:"fullName,omitempty"`
	FirstName   string       `json:"firstName,omitempty"`
	LastName    string       `json:"lastName,omitempty"`
	AuthorID    *AuthorID    `json:"authorId,omitempty"`
	Affiliation string       `json:"affiliation,omitempty"`
	AffDetails  []AffDetails `json:"authorAffiliationDetailsList,omitempty"`
}

// AuthorID is an author identifier (type ORCID).
type AuthorID struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// AffDetails is one affiliation entry.
type AffDetails struct {
	Affiliation string `json:"affiliation"`
}

// JournalInfo wraps the journal record.
type JournalInfo struct {
	Journal Journal `json:"journal"`
}

// Journal holds journal naming.
type Journal struct {
	Title string `json:"title,omitempty"`
}

// KeywordList wraps author-provided keywords.
type KeywordList struct {
	Keywords []string `json:"keyword"`
}

// CitationsResponse is the response of the citations endpoint.
type CitationsResponse struct {
	HitCount     int          `json:"hitCount"`
	CitationList CitationList `json:"citationList"`
}

// CitationList wraps the citation records.
type CitationList struct {
	Citations []Citation `json:"citation"`
}

// Citation is one citing-article record. Citation records are lighter than
// search results: no abstract, DOI or structured authors.
type Citation struct {
	ID                  string `json:"id"`
	Source              string `json:"source"`
	Title               string `json:"title"`
	AuthorString        string `json:"authorString,omitempty"`
	JournalAbbreviation string `json:"journalAbbreviation,omitempty"`
	PubYear             int    `json:"pubYear,omitempty"`
	CitedByCount        int    `json:"citedByCount"`
}
