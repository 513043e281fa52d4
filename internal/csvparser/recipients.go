// Package csvparser turns an exported spreadsheet of a group's data
// vault into recipient descriptors for a mail job.
package csvparser

import (
	"encoding/csv"
	"errors"
	"io"
	"strings"

	"github.com/shivangsaraswat/certiflow/internal/models"
)

// Column headers with reserved meaning, matched case-insensitively.
// Every other column becomes a custom template field.
const (
	colEmail       = "email"
	colName        = "name"
	colCertificate = "certificate"
)

// ParseRecipients parses a CSV with a header row containing an Email
// column. Name and Certificate columns, when present, map to the
// recipient's display name and certificate reference; the rest become
// custom fields keyed by header.
//
// maxRows limits how many data rows are parsed (excluding header).
func ParseRecipients(r io.Reader, maxRows int) ([]models.Recipient, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	headers, err := reader.Read()
	if err != nil {
		return nil, err
	}
	if len(headers) == 0 {
		return nil, errors.New("csv header row is empty")
	}

	emailIdx, nameIdx, certIdx := -1, -1, -1
	normalized := make([]string, len(headers))
	for i, h := range headers {
		h = strings.TrimSpace(h)
		normalized[i] = h
		switch {
		case strings.EqualFold(h, colEmail):
			emailIdx = i
		case strings.EqualFold(h, colName):
			nameIdx = i
		case strings.EqualFold(h, colCertificate):
			certIdx = i
		}
	}
	if emailIdx == -1 {
		return nil, errors.New("csv must contain an Email column")
	}

	if maxRows <= 0 {
		maxRows = 1000
	}

	recipients := make([]models.Recipient, 0)
	for len(recipients) < maxRows {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(record) != len(headers) {
			// skip malformed row
			continue
		}

		email := strings.TrimSpace(record[emailIdx])
		if email == "" {
			continue
		}

		rcpt := models.Recipient{Email: email}

		fields := make(map[string]string, len(headers)-1)
		for i := range record {
			value := strings.TrimSpace(record[i])
			switch i {
			case emailIdx:
			case nameIdx:
				rcpt.Name = value
			case certIdx:
				rcpt.CertificateRef = value
			default:
				if key := normalized[i]; key != "" {
					fields[key] = value
				}
			}
		}
		if len(fields) > 0 {
			rcpt.Fields = fields
		}

		recipients = append(recipients, rcpt)
	}

	if len(recipients) == 0 {
		return nil, errors.New("csv must contain at least one data row")
	}

	return recipients, nil
}
