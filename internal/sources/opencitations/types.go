// Package opencitations provides the OpenCitations COCI source client.
//
// COCI is the OpenCitations index of Crossref DOI-to-DOI citations. The
// client lists the citations pointing at the dataset's primary publication
// and resolves the citing DOIs through the metadata endpoint. Because the
// whole index is keyed by DOI, the source only contributes when the primary
// publication has one.
//
// API documentation: https://opencitations.net/index/coci/api/v1
package opencitations

// CitationRecord is one entry of the citations endpoint: a single edge of
// the citation graph.
type CitationRecord struct {
	OCI      string `json:"oci"`
	Citing   string `json:"citing"`
	Cited    string `json:"cited"`
	Creation string `json:"creation"`
	Timespan string `json:"timespan"`
}

// MetadataRecord is one entry of the metadata endpoint. All fields are
// strings, including numeric ones; Author packs the full author list as
// "Last, First; Last, First".
type MetadataRecord struct {
	Author        string `json:"author"`
	Year          string `json:"year"`
	Title         string `json:"title"`
	SourceTitle   string `json:"source_title"`
	Volume        string `json:"volume"`
	Issue         string `json:"issue"`
	Page          string `json:"page"`
	DOI           string `json:"doi"`
	CitationCount string `json:"citation_count"`
	OALink        string `json:"oa_link"`
}
