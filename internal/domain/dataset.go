package domain

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// validate is the shared struct validator. It is safe for concurrent use.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report json field names in validation errors.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// DatasetContext is the subject of a discovery call: the dataset's own
// identity and descriptive text, not a publication. It is immutable for the
// duration of one discovery call.
type DatasetContext struct {
	// DatasetID is the accession or repository identifier (e.g. "GSE157103").
	DatasetID string `json:"dataset_id" validate:"required"`
	// Title is the dataset's human-readable title.
	Title string `json:"title" validate:"required"`
	// Summary is the free-text description of the dataset.
	Summary string `json:"summary,omitempty"`
	// Organisms lists organism names associated with the dataset.
	Organisms []string `json:"organisms,omitempty"`
	// DomainTags lists assay, technique, or subject-area terms.
	DomainTags []string `json:"domain_tags,omitempty"`
	// PrimaryPublicationID optionally identifies the publication that
	// originally produced the dataset (DOI or PMID).
	PrimaryPublicationID string `json:"primary_publication_id,omitempty"`
}

// Validate checks that the context carries the fields discovery requires.
// It is called by the orchestrator before any network activity; the returned
// error wraps ErrInvalidInput.
func (d DatasetContext) Validate() error {
	if err := validate.Struct(d); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return NewValidationError(fe.Field(), "failed "+fe.Tag()+" check")
		}
		return NewValidationError("dataset_context", err.Error())
	}
	if strings.TrimSpace(d.DatasetID) == "" {
		return NewValidationError("dataset_id", "must not be blank")
	}
	if strings.TrimSpace(d.Title) == "" {
		return NewValidationError("title", "must not be blank")
	}
	return nil
}

// SearchTerms returns the free-text terms that describe the dataset, used by
// source clients for text-search strategies: the dataset identifier itself,
// title, and domain tags.
func (d DatasetContext) SearchTerms() []string {
	terms := make([]string, 0, 2+len(d.DomainTags))
	if d.DatasetID != "" {
		terms = append(terms, d.DatasetID)
	}
	if d.Title != "" {
		terms = append(terms, d.Title)
	}
	terms = append(terms, d.DomainTags...)
	return terms
}

// HasPrimaryPublication reports whether a producing publication is known.
func (d DatasetContext) HasPrimaryPublication() bool {
	return strings.TrimSpace(d.PrimaryPublicationID) != ""
}
