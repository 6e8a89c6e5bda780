// Package ingest converts uploaded tabular data into business records.
package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/juanroddotdev/LeadForge/internal/address"
	"github.com/juanroddotdev/LeadForge/internal/lead"
)

// FromCSV ingests the upload path: bindings map each logical field to a
// source column of the input. All three logical fields must be bound and
// every bound column must exist in the header; either violation fails with
// a ValidationError and no records are produced. Rows with an empty value
// in any logical field are dropped. Input order is preserved.
func FromCSV(
	r io.Reader,
	mapping lead.ColumnMapping,
	bindings map[string]string,
	idGen lead.IDGenerator,
) ([]lead.Business, error) {
	var missing []string
	for _, field := range lead.LogicalFields {
		if _, ok := bindings[field]; !ok {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		return nil, lead.NewValidationError(
			"Missing required field mappings: %s", strings.Join(missing, ", "))
	}

	header, rows, err := readCSV(r)
	if err != nil {
		return nil, err
	}

	var invalid []string
	for _, column := range bindings {
		if _, ok := header[column]; !ok {
			invalid = append(invalid, column)
		}
	}
	if len(invalid) > 0 {
		sort.Strings(invalid)
		return nil, lead.NewValidationError(
			"Invalid column mappings: %s", strings.Join(invalid, ", "))
	}

	industryLabel := displayName(mapping, lead.FieldIndustry)
	records := make([]lead.Business, 0, len(rows))
	for _, row := range rows {
		name := cell(row, header, bindings[lead.FieldBusinessName])
		industry := cell(row, header, bindings[lead.FieldIndustry])
		location := cell(row, header, bindings[lead.FieldLocation])
		if name == "" || industry == "" || location == "" {
			continue
		}
		id, err := idGen.NewID()
		if err != nil {
			return nil, fmt.Errorf("assign record id: %w", err)
		}
		records = append(records, lead.Business{
			ID:                  id,
			BusinessName:        name,
			Industry:            industry,
			IndustryDisplayName: industryLabel,
			Location:            location,
		})
	}
	return records, nil
}

// FromCanonicalCSV ingests a CSV that already uses the canonical column
// names. On top of the upload path it runs the address parser per record
// to populate city and state. Used for boot-time seeding.
func FromCanonicalCSV(
	r io.Reader,
	mapping lead.ColumnMapping,
	idGen lead.IDGenerator,
) ([]lead.Business, error) {
	header, rows, err := readCSV(r)
	if err != nil {
		return nil, err
	}

	var missing []string
	for _, field := range lead.LogicalFields {
		if _, ok := header[field]; !ok {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		return nil, lead.NewValidationError(
			"Missing required columns: %s", strings.Join(missing, ", "))
	}

	industryLabel := displayName(mapping, lead.FieldIndustry)
	records := make([]lead.Business, 0, len(rows))
	for _, row := range rows {
		name := cell(row, header, lead.FieldBusinessName)
		industry := cell(row, header, lead.FieldIndustry)
		location := cell(row, header, lead.FieldLocation)
		if name == "" || industry == "" || location == "" {
			continue
		}
		id, err := idGen.NewID()
		if err != nil {
			return nil, fmt.Errorf("assign record id: %w", err)
		}
		city, state := address.Parse(location)
		records = append(records, lead.Business{
			ID:                  id,
			BusinessName:        name,
			Industry:            industry,
			IndustryDisplayName: industryLabel,
			Location:            location,
			City:                city,
			State:               state,
		})
	}
	return records, nil
}

// readCSV decodes the input into a header index and raw rows. Ragged rows
// are tolerated; absent cells read as empty and drop the row later.
func readCSV(r io.Reader) (map[string]int, [][]string, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1

	headerRow, err := cr.Read()
	if err == io.EOF {
		return nil, nil, lead.NewValidationError("empty CSV file")
	}
	if err != nil {
		return nil, nil, lead.NewValidationError("malformed CSV header: %v", err)
	}

	header := make(map[string]int, len(headerRow))
	for i, name := range headerRow {
		header[strings.TrimSpace(name)] = i
	}

	var rows [][]string
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, lead.NewValidationError("malformed CSV row: %v", err)
		}
		rows = append(rows, row)
	}
	return header, rows, nil
}

func cell(row []string, header map[string]int, column string) string {
	idx, ok := header[column]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func displayName(mapping lead.ColumnMapping, field string) string {
	if fm, ok := mapping[field]; ok && fm.DisplayName != "" {
		return fm.DisplayName
	}
	return "Industry"
}
