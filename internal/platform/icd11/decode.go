package icd11

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedResponse reports a body that does not match the positional
// search response shape.
var ErrMalformedResponse = errors.New("malformed search response")

// minResponseLen covers [total, codes, extra, displays]; the trailing
// code-systems element is optional and ignored.
const minResponseLen = 4

// DecodeSearchResponse decodes the positional array
// [totalCount, codes[], <ignored>, displayTuples[], <ignored>] where
// displayTuples[i] = [fullDisplay, display, matchType] describes codes[i].
//
// A well-formed array that is shorter than the expected shape yields no
// results and no error. Anything that is not an array, or whose elements
// have the wrong types, is ErrMalformedResponse.
func DecodeSearchResponse(body []byte) ([]ExternalConcept, error) {
	var parts []json.RawMessage
	if err := json.Unmarshal(body, &parts); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if len(parts) < minResponseLen {
		return []ExternalConcept{}, nil
	}

	var total float64
	if err := json.Unmarshal(parts[0], &total); err != nil {
		return nil, fmt.Errorf("%w: total count: %v", ErrMalformedResponse, err)
	}

	var codes []*string
	if err := json.Unmarshal(parts[1], &codes); err != nil {
		return nil, fmt.Errorf("%w: codes: %v", ErrMalformedResponse, err)
	}

	var tuples [][]*string
	if !isNull(parts[3]) {
		if err := json.Unmarshal(parts[3], &tuples); err != nil {
			return nil, fmt.Errorf("%w: display tuples: %v", ErrMalformedResponse, err)
		}
	}

	n := len(codes)
	if len(tuples) < n {
		n = len(tuples)
	}

	concepts := make([]ExternalConcept, 0, n)
	for i := 0; i < n; i++ {
		code := deref(codes[i])
		if code == "" {
			continue
		}
		tuple := tuples[i]
		fullDisplay := tupleField(tuple, 0)
		display := tupleField(tuple, 1)
		if display == "" {
			display = fullDisplay
		}
		concepts = append(concepts, newExternalConcept(code, display, fullDisplay, tupleField(tuple, 2)))
	}
	return concepts, nil
}

func tupleField(tuple []*string, i int) string {
	if i >= len(tuple) {
		return ""
	}
	return strings.TrimSpace(deref(tuple[i]))
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || string(raw) == "null"
}
