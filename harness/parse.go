package harness

import (
	"fmt"
	"strconv"
	"strings"
)

// Markers the client prints around its two summary figures.
const (
	requestsMarker = "Finished "
	requestsSuffix = " requests"
	elapsedMarker  = "Time elapsed: "
	elapsedSuffix  = " us"
)

// ParseSummary extracts the request count and elapsed microseconds
// from a client's captured standard output. Every deviation from the
// expected format is a *ParseError: a mis-parsed figure must never
// reach the results table.
func ParseSummary(out string) (Summary, error) {
	reqText, err := cut(out, requestsMarker, requestsSuffix)
	if err != nil {
		return Summary{}, err
	}

	requests, convErr := strconv.Atoi(reqText)
	if convErr != nil {
		return Summary{}, &ParseError{
			Reason: fmt.Sprintf("request count %q is not an integer", reqText),
			Output: out,
		}
	}

	if requests < 0 {
		return Summary{}, &ParseError{
			Reason: fmt.Sprintf("negative request count %d", requests),
			Output: out,
		}
	}

	elapsedText, err := cut(out, elapsedMarker, elapsedSuffix)
	if err != nil {
		return Summary{}, err
	}

	elapsed, convErr := strconv.ParseFloat(elapsedText, 64)
	if convErr != nil {
		return Summary{}, &ParseError{
			Reason: fmt.Sprintf("elapsed time %q is not a number", elapsedText),
			Output: out,
		}
	}

	if !(elapsed > 0) {
		return Summary{}, &ParseError{
			Reason: fmt.Sprintf("elapsed time %v us is not positive", elapsed),
			Output: out,
		}
	}

	return Summary{Requests: requests, ElapsedUS: elapsed}, nil
}

// cut returns the text between the first occurrence of marker and the
// next occurrence of suffix after it.
func cut(out, marker, suffix string) (string, error) {
	start := strings.Index(out, marker)
	if start < 0 {
		return "", &ParseError{
			Reason: fmt.Sprintf("marker %q not found", marker),
			Output: out,
		}
	}

	rest := out[start+len(marker):]

	end := strings.Index(rest, suffix)
	if end < 0 {
		return "", &ParseError{
			Reason: fmt.Sprintf("suffix %q not found after %q", suffix, marker),
			Output: out,
		}
	}

	return rest[:end], nil
}
