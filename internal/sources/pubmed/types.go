// Package pubmed provides the PubMed E-utilities source client.
//
// PubMed is the NCBI biomedical literature database. This package implements
// sources.PublicationSource: it traverses the "cited in" link of the
// dataset's primary publication via eLink and searches for the dataset
// accession as a free-text term via eSearch, fetching article metadata for
// the resulting PMIDs via eFetch.
//
// E-utilities documentation: https://www.ncbi.nlm.nih.gov/books/NBK25499/
package pubmed

import "encoding/xml"

// ESearchResult is the response of the esearch.fcgi endpoint: a list of
// PMIDs matching a term query.
type ESearchResult struct {
	XMLName   xml.Name   `xml:"eSearchResult"`
	Count     int        `xml:"Count"`
	IDList    IDList     `xml:"IdList"`
	ErrorList *ErrorList `xml:"ErrorList,omitempty"`
}

// IDList contains the list of PMIDs returned by a search.
type IDList struct {
	IDs []string `xml:"Id"`
}

// ErrorList contains errors from the E-utilities API. A PhraseNotFound entry
// means the term simply matched nothing.
type ErrorList struct {
	PhraseNotFound []string `xml:"PhraseNotFound,omitempty"`
	FieldNotFound  []string `xml:"FieldNotFound,omitempty"`
}

// ELinkResult is the response of the elink.fcgi endpoint used for
// citation-graph traversal (linkname pubmed_pubmed_citedin).
type ELinkResult struct {
	XMLName  xml.Name  `xml:"eLinkResult"`
	LinkSets []LinkSet `xml:"LinkSet"`
}

// LinkSet groups the links found for one input ID.
type LinkSet struct {
	LinkSetDBs []LinkSetDB `xml:"LinkSetDb"`
}

// LinkSetDB holds the linked IDs for one link name.
type LinkSetDB struct {
	LinkName string `xml:"LinkName"`
	Links    []Link `xml:"Link"`
}

// Link is one linked PMID.
type Link struct {
	ID string `xml:"Id"`
}

// PubmedArticleSet is the response of the efetch.fcgi endpoint: full article
// metadata for a list of PMIDs.
type PubmedArticleSet struct {
	XMLName  xml.Name        `xml:"PubmedArticleSet"`
	Articles []PubmedArticle `xml:"PubmedArticle"`
}

// PubmedArticle is a single article record.
type PubmedArticle struct {
	MedlineCitation MedlineCitation `xml:"MedlineCitation"`
	PubmedData      PubmedData      `xml:"PubmedData"`
}

// MedlineCitation contains the core bibliographic information.
type MedlineCitation struct {
	PMID        PMID         `xml:"PMID"`
	Article     Article      `xml:"Article"`
	KeywordList *KeywordList `xml:"KeywordList,omitempty"`
}

// PMID is the PubMed identifier.
type PMID struct {
	Value string `xml:",chardata"`
}

// Article contains the article metadata.
type Article struct {
	Journal      Journal       `xml:"Journal"`
	ArticleTitle string        `xml:"ArticleTitle"`
	ELocationID  []ELocationID `xml:"ELocationID,omitempty"`
	Abstract     *Abstract     `xml:"Abstract,omitempty"`
	AuthorList   *AuthorList   `xml:"AuthorList,omitempty"`
}

// Journal contains journal information.
type Journal struct {
	Title        string       `xml:"Title,omitempty"`
	JournalIssue JournalIssue `xml:"JournalIssue"`
}

// JournalIssue carries the publication date.
type JournalIssue struct {
	PubDate PubDate `xml:"PubDate"`
}

// PubDate is the publication date, which may have several formats.
type PubDate struct {
	Year        string `xml:"Year,omitempty"`
	Month       string `xml:"Month,omitempty"`
	Day         string `xml:"Day,omitempty"`
	MedlineDate string `xml:"MedlineDate,omitempty"`
}

// ELocationID is an electronic location identifier (DOI or PII).
type ELocationID struct {
	EIdType string `xml:"EIdType,attr"`
	Value   string `xml:",chardata"`
}

// Abstract contains the article abstract, possibly in labeled sections.
type Abstract struct {
	AbstractTexts []AbstractText `xml:"AbstractText"`
}

// AbstractText is one section of a structured abstract.
type AbstractText struct {
	Label string `xml:"Label,attr,omitempty"`
	Value string `xml:",chardata"`
}

// AuthorList contains the list of authors.
type AuthorList struct {
	Authors []Author `xml:"Author"`
}

// Author is a single author with name parts and optional identifiers.
type Author struct {
	LastName        string            `xml:"LastName,omitempty"`
	ForeName        string            `xml:"ForeName,omitempty"`
	Initials        string            `xml:"Initials,omitempty"`
	CollectiveName  string            `xml:"CollectiveName,omitempty"`
	Identifiers     []Identifier      `xml:"Identifier,omitempty"`
	AffiliationInfo []AffiliationInfo `xml:"AffiliationInfo,omitempty"`
}

// Identifier is an author identifier (e.g., ORCID).
type Identifier struct {
	Source string `xml:"Source,attr"`
	Value  string `xml:",chardata"`
}

// AffiliationInfo contains author affiliation information.
type AffiliationInfo struct {
	Affiliation string `xml:"Affiliation"`
}

// KeywordList contains author-provided keywords.
type KeywordList struct {
	Keywords []Keyword `xml:"Keyword"`
}

// Keyword is a single keyword.
type Keyword struct {
	Value string `xml:",chardata"`
}

// PubmedData contains additional PubMed-specific data.
type PubmedData struct {
	ArticleIdList ArticleIdList `xml:"ArticleIdList"`
}

// ArticleIdList contains the article's identifiers across systems.
type ArticleIdList struct {
	ArticleIds []ArticleId `xml:"ArticleId"`
}

// ArticleId is one identifier (pubmed, doi, pmc).
type ArticleId struct {
	IdType string `xml:"IdType,attr"`
	Value  string `xml:",chardata"`
}
