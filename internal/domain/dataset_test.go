package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDatasetContext_Validate(t *testing.T) {
	tests := []struct {
		name      string
		dataset   DatasetContext
		wantErr   bool
		wantField string
	}{
		{
			name: "valid minimal context",
			dataset: DatasetContext{
				DatasetID: "GSE157103",
				Title:     "COVID-19 multi-omic profiling",
			},
			wantErr: false,
		},
		{
			name: "valid full context",
			dataset: DatasetContext{
				DatasetID:            "GSE157103",
				Title:                "COVID-19 multi-omic profiling",
				Summary:              "Plasma and leukocyte profiling of 128 patients.",
				Organisms:            []string{"Homo sapiens"},
				DomainTags:           []string{"RNA-seq", "proteomics"},
				PrimaryPublicationID: "10.1016/j.cels.2020.10.003",
			},
			wantErr: false,
		},
		{
			name: "missing dataset id",
			dataset: DatasetContext{
				Title: "Some dataset",
			},
			wantErr:   true,
			wantField: "dataset_id",
		},
		{
			name: "missing title",
			dataset: DatasetContext{
				DatasetID: "GSE157103",
			},
			wantErr:   true,
			wantField: "title",
		},
		{
			name:    "missing both",
			dataset: DatasetContext{},
			wantErr: true,
		},
		{
			name: "whitespace-only dataset id",
			dataset: DatasetContext{
				DatasetID: "   ",
				Title:     "Some dataset",
			},
			wantErr:   true,
			wantField: "dataset_id",
		},
		{
			name: "whitespace-only title",
			dataset: DatasetContext{
				DatasetID: "GSE157103",
				Title:     "\t\n",
			},
			wantErr:   true,
			wantField: "title",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.dataset.Validate()

			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}

			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidInput)

			if tt.wantField != "" {
				var ve *ValidationError
				require.ErrorAs(t, err, &ve)
				assert.Equal(t, tt.wantField, ve.Field)
			}
		})
	}
}

func TestDatasetContext_SearchTerms(t *testing.T) {
	t.Run("includes id, title, and tags in order", func(t *testing.T) {
		dataset := DatasetContext{
			DatasetID:  "GSE157103",
			Title:      "COVID-19 multi-omic profiling",
			DomainTags: []string{"RNA-seq", "proteomics"},
		}

		terms := dataset.SearchTerms()

		assert.Equal(t, []string{
			"GSE157103",
			"COVID-19 multi-omic profiling",
			"RNA-seq",
			"proteomics",
		}, terms)
	})

	t.Run("omits empty fields", func(t *testing.T) {
		dataset := DatasetContext{DatasetID: "GSE157103"}

		terms := dataset.SearchTerms()

		assert.Equal(t, []string{"GSE157103"}, terms)
	})
}

func TestDatasetContext_HasPrimaryPublication(t *testing.T) {
	tests := []struct {
		name     string
		id       string
		expected bool
	}{
		{"DOI set", "10.1016/j.cels.2020.10.003", true},
		{"PMID set", "33096026", true},
		{"empty", "", false},
		{"whitespace only", "  ", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dataset := DatasetContext{
				DatasetID:            "GSE157103",
				Title:                "t",
				PrimaryPublicationID: tt.id,
			}
			assert.Equal(t, tt.expected, dataset.HasPrimaryPublication())
		})
	}
}
