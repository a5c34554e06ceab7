package search

import (
	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/mapping"
)

// buildIndexMapping creates the Bleve index mapping for recipe documents.
//
// The mapping is designed with these priorities:
//  1. Fast full-text search on titles with English stemming
//  2. Tag and ingredient names searchable as regular text
//  3. Exact keyword matching on the owner for per-user scoping
//  4. Numeric range queries on cooking time
//  5. Term vectors enabled on key fields for highlighting
func buildIndexMapping() mapping.IndexMapping {
	// Create the index mapping
	indexMapping := bleve.NewIndexMapping()

	// Use English analyzer as default for text fields
	indexMapping.DefaultAnalyzer = en.AnalyzerName

	// Create document mapping
	docMapping := bleve.NewDocumentMapping()

	// --- Text fields (full-text searchable) ---

	// Name field - primary search target, boosted
	nameFieldMapping := bleve.NewTextFieldMapping()
	nameFieldMapping.Analyzer = en.AnalyzerName
	nameFieldMapping.Store = true
	nameFieldMapping.IncludeTermVectors = true // For highlighting
	docMapping.AddFieldMappingsAt("name", nameFieldMapping)

	// Description - searchable text
	descFieldMapping := bleve.NewTextFieldMapping()
	descFieldMapping.Analyzer = en.AnalyzerName
	descFieldMapping.Store = true
	descFieldMapping.IncludeTermVectors = true
	docMapping.AddFieldMappingsAt("description", descFieldMapping)

	// Tag names - short free-form phrases, analyzed like text so
	// "vegan" matches the tag "Vegan dinner"
	tagsFieldMapping := bleve.NewTextFieldMapping()
	tagsFieldMapping.Analyzer = en.AnalyzerName
	tagsFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("tags", tagsFieldMapping)

	// Ingredient names - same treatment as tags
	ingredientsFieldMapping := bleve.NewTextFieldMapping()
	ingredientsFieldMapping.Analyzer = en.AnalyzerName
	ingredientsFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("ingredients", ingredientsFieldMapping)

	// --- Keyword fields (exact match) ---

	// Document ID
	idFieldMapping := bleve.NewTextFieldMapping()
	idFieldMapping.Analyzer = keyword.Name
	idFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("id", idFieldMapping)

	// Owner - every search query filters on this field
	userFieldMapping := bleve.NewTextFieldMapping()
	userFieldMapping.Analyzer = keyword.Name
	userFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("user_id", userFieldMapping)

	// --- Numeric fields ---

	// Cooking time for range filters
	timeFieldMapping := bleve.NewNumericFieldMapping()
	timeFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("time_minutes", timeFieldMapping)

	// Timestamps for sorting
	createdFieldMapping := bleve.NewNumericFieldMapping()
	createdFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("created_at", createdFieldMapping)

	updatedFieldMapping := bleve.NewNumericFieldMapping()
	updatedFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("updated_at", updatedFieldMapping)

	indexMapping.DefaultMapping = docMapping

	return indexMapping
}
