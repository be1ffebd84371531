package ingest

import (
	"encoding/json"
	"strings"

	"github.com/google/uuid"

	"github.com/daolmedo/chartistry/internal/entity"
)

const (
	maxSampleValues = 5
	distinctCap     = 10000
)

// BuildColumnDescriptors computes the per-column descriptive records persisted
// after a successful load: original and sanitized names, inferred types,
// nullability, up to 5 sample non-null values and a capped distinct count.
func BuildColumnDescriptors(datasetID uuid.UUID, t *Table, types []LogicalType, sanitized []string) []entity.Column {
	out := make([]entity.Column, len(t.Headers))
	for i := range t.Headers {
		samples := make([]string, 0, maxSampleValues)
		distinct := make(map[string]struct{})
		nullable := false

		for _, v := range t.Columns[i] {
			v = strings.TrimSpace(v)
			if v == "" {
				nullable = true
				continue
			}
			if len(samples) < maxSampleValues {
				samples = append(samples, v)
			}
			if len(distinct) < distinctCap {
				distinct[v] = struct{}{}
			}
		}

		// The sample list is small and contains only strings; this cannot fail.
		sampleJSON, _ := json.Marshal(samples)

		out[i] = entity.Column{
			DatasetID:     datasetID,
			ColumnIndex:   i,
			Name:          t.Headers[i],
			SanitizedName: sanitized[i],
			LogicalType:   string(types[i]),
			StorageType:   types[i].StorageType(),
			Nullable:      nullable,
			SampleValues:  string(sampleJSON),
			DistinctCount: int64(len(distinct)),
		}
	}
	return out
}
