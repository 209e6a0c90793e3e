package catalogsync

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/turtacn/RxMatch-Intelligence/internal/domain/catalog"
	apperrors "github.com/turtacn/RxMatch-Intelligence/pkg/errors"
)

// dumpRecord is the wire shape of one catalog row in a bulk dump.
type dumpRecord struct {
	BrandName        string `json:"brand_name"`
	GenericName      string `json:"generic_name"`
	OfficialStrength string `json:"official_strength"`
	Form             string `json:"form"`
	CombinationFlag  bool   `json:"combination_flag"`
}

// ParseDump decodes a bulk catalog dump.  Both a single JSON array and
// newline-delimited JSON objects are accepted; anything else, or a record
// without brand and generic names, is rejected as an invalid dump.
func ParseDump(data []byte) ([]*catalog.Record, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, apperrors.New(apperrors.ErrCodeCatalogDumpInvalid, "dump is empty")
	}

	var raw []dumpRecord
	if trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &raw); err != nil {
			return nil, apperrors.Wrap(err, apperrors.ErrCodeCatalogDumpInvalid, "dump is not a valid JSON array")
		}
	} else {
		scanner := bufio.NewScanner(bytes.NewReader(trimmed))
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		line := 0
		for scanner.Scan() {
			line++
			text := strings.TrimSpace(scanner.Text())
			if text == "" {
				continue
			}
			var rec dumpRecord
			if err := json.Unmarshal([]byte(text), &rec); err != nil {
				return nil, apperrors.Wrap(err, apperrors.ErrCodeCatalogDumpInvalid,
					fmt.Sprintf("dump line %d is not a valid JSON object", line))
			}
			raw = append(raw, rec)
		}
		if err := scanner.Err(); err != nil {
			return nil, apperrors.Wrap(err, apperrors.ErrCodeCatalogDumpInvalid, "dump scan failed")
		}
	}

	if len(raw) == 0 {
		return nil, apperrors.New(apperrors.ErrCodeCatalogDumpInvalid, "dump contains no records")
	}

	records := make([]*catalog.Record, 0, len(raw))
	for n, r := range raw {
		if strings.TrimSpace(r.BrandName) == "" || strings.TrimSpace(r.GenericName) == "" {
			return nil, apperrors.New(apperrors.ErrCodeCatalogDumpInvalid,
				fmt.Sprintf("dump record %d is missing brand or generic name", n+1))
		}
		records = append(records, &catalog.Record{
			BrandName:        strings.TrimSpace(r.BrandName),
			GenericName:      strings.TrimSpace(r.GenericName),
			OfficialStrength: strings.TrimSpace(r.OfficialStrength),
			Form:             strings.TrimSpace(r.Form),
			CombinationFlag:  r.CombinationFlag,
		})
	}
	return records, nil
}
