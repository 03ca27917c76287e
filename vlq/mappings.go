package vlq

import (
	"fmt"
	"strings"
)

// DecodeMappings splits a source map mappings field into generated lines
// (';') and segments (',') and decodes each segment. The values are returned
// exactly as decoded; fields that are relative to a previous segment are not
// resolved.
//
// Empty segments are skipped. Empty lines are kept so that the index into
// the result is the generated line number, starting at 0.
func DecodeMappings(mappings string) ([][][]int, error) {
	return decodeMappings(mappings, Decode)
}

func decodeMappings(mappings string, decode func(string) ([]int, error)) ([][][]int, error) {
	lines := [][][]int{}
	if mappings == "" {
		return lines, nil
	}

	for i, group := range strings.Split(mappings, ";") {
		segments := [][]int{}

		for j, segment := range strings.Split(group, ",") {
			if segment == "" {
				continue
			}

			values, err := decode(segment)
			if err != nil {
				return nil, fmt.Errorf("line %d, segment %d: %w", i+1, j, err)
			}

			segments = append(segments, values)
		}

		lines = append(lines, segments)
	}

	return lines, nil
}
