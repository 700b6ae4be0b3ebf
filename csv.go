package main

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"
)

var datasetColumns = []string{
	"startTime",
	"invoicedConsumption",
	"totalConsumption",
	"production",
	"soldProduction",
	"compensatedProduction",
	"product",
	"fee",
	"temperature",
}

// formatDecimal renders a numeric value with a comma as the decimal
// separator, matching the locale convention of the dataset.
func formatDecimal(v float64) string {
	return strings.ReplaceAll(strconv.FormatFloat(v, 'f', -1, 64), ".", ",")
}

// formatOptional renders an optional numeric field, defaulting to 0 when the
// source record omitted it.
func formatOptional(v *float64) string {
	if v == nil {
		return "0"
	}
	return formatDecimal(*v)
}

type datasetRow struct {
	startTime time.Time
	fields    []string
}

// datasetRowFor transforms a raw consumption record into a dataset row. The
// timestamp is normalized to UTC at second precision; product and fee come
// from the first distribution fee entry.
func datasetRowFor(rec ConsumptionRecord) (datasetRow, error) {
	start := time.Time(rec.Timestamp).UTC().Truncate(time.Second)
	if len(rec.DistributionFees) == 0 {
		return datasetRow{}, fmt.Errorf("%w: record at %s has no distribution fee parts",
			ErrDataShape, start.Format(time.RFC3339))
	}
	first := rec.DistributionFees[0]

	return datasetRow{
		startTime: start,
		fields: []string{
			start.Format(time.RFC3339),
			formatOptional(rec.InvoicedConsumption),
			formatOptional(rec.TotalConsumption),
			formatOptional(rec.Production),
			formatOptional(rec.SoldProduction),
			formatOptional(rec.CompensatedProduction),
			first.Product,
			formatDecimal(first.Fee),
			formatOptional(rec.Temperature),
		},
	}, nil
}

// existingStartTimes collects the startTime values already present in the
// dataset file. A missing file is not an error; it means a fresh dataset.
func existingStartTimes(path string) (map[string]struct{}, bool, error) {
	file, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]struct{}{}, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading dataset %s: %w", path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.Comma = ';'
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, false, fmt.Errorf("parsing dataset %s: %w", path, err)
	}

	seen := map[string]struct{}{}
	for i, row := range rows {
		if i == 0 || len(row) == 0 {
			continue // header
		}
		seen[row[0]] = struct{}{}
	}
	return seen, true, nil
}

// mergeAndAppend appends the given records to the dataset, skipping any whose
// startTime is already present in the file or earlier in the batch. Rows are
// appended in ascending startTime order; the header is written only when the
// file is created. Running it twice with the same records leaves the file
// unchanged the second time. Returns the number of rows appended.
func mergeAndAppend(path string, records []ConsumptionRecord) (int, error) {
	existing, fileExists, err := existingStartTimes(path)
	if err != nil {
		return 0, err
	}

	var rows []datasetRow
	for _, rec := range records {
		row, err := datasetRowFor(rec)
		if err != nil {
			return 0, err
		}
		key := row.fields[0]
		if _, ok := existing[key]; ok {
			continue
		}
		existing[key] = struct{}{}
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return 0, nil
	}

	sort.Slice(rows, func(i, j int) bool {
		return rows[i].startTime.Before(rows[j].startTime)
	})

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return 0, fmt.Errorf("opening dataset %s: %w", path, err)
	}

	writer := csv.NewWriter(file)
	writer.Comma = ';'

	if !fileExists {
		if err := writer.Write(datasetColumns); err != nil {
			file.Close()
			return 0, err
		}
	}
	for _, row := range rows {
		if err := writer.Write(row.fields); err != nil {
			file.Close()
			return 0, err
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		file.Close()
		return 0, fmt.Errorf("writing dataset %s: %w", path, err)
	}
	if err := file.Close(); err != nil {
		return 0, fmt.Errorf("closing dataset %s: %w", path, err)
	}
	return len(rows), nil
}
