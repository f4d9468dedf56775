// Copyright 2026 gorse Project Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package dataset

import (
	"bufio"
	"io"
	"os"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/goccy/go-json"
	"github.com/juju/errors"
)

const (
	FormatCSV  = "csv"
	FormatJSON = "json"
)

// LoadFile loads a rating matrix from a CSV or JSON file.
func LoadFile(path, format, sep string, header bool) (*RatingMatrix, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Trace(err)
	}
	defer file.Close()
	switch format {
	case FormatCSV:
		ratings, err := LoadCSV(file, sep, header)
		if err != nil {
			return nil, errors.Annotatef(err, "load %s", path)
		}
		return FromTriples(ratings), nil
	case FormatJSON:
		ratings, err := LoadJSON(file)
		if err != nil {
			return nil, errors.Annotatef(err, "load %s", path)
		}
		return NewRatingMatrix(ratings), nil
	default:
		return nil, errors.NotSupportedf("dataset format %q", format)
	}
}

// LoadCSV reads user<sep>item<sep>rating lines. The separator is a single character.
// Fields may be quoted. Extra fields after the rating are ignored.
func LoadCSV(r io.Reader, sep string, header bool) ([]Rating, error) {
	if utf8.RuneCountInString(sep) != 1 {
		return nil, errors.NotValidf("separator %q: expected a single character", sep)
	}
	var (
		ratings []Rating
		lineErr error
	)
	sc := bufio.NewScanner(r)
	err := readLines(sc, sep, func(line int, fields []string) bool {
		if header && line == 0 {
			return true
		}
		if len(fields) == 1 && strings.TrimSpace(fields[0]) == "" {
			// skip blank lines
			return true
		}
		if len(fields) < 3 {
			lineErr = errors.NotValidf("line %d: expected 3 fields but got %d", line+1, len(fields))
			return false
		}
		value, err := strconv.ParseFloat(strings.TrimSpace(fields[2]), 64)
		if err != nil {
			lineErr = errors.NotValidf("line %d: rating %q", line+1, fields[2])
			return false
		}
		ratings = append(ratings, Rating{
			UserId: strings.TrimSpace(fields[0]),
			ItemId: strings.TrimSpace(fields[1]),
			Value:  value,
		})
		return true
	})
	if err != nil {
		return nil, errors.Trace(err)
	}
	if lineErr != nil {
		return nil, lineErr
	}
	return ratings, nil
}

// LoadJSON reads ratings in the nested form {"user": {"item": rating}}.
func LoadJSON(r io.Reader) (map[string]map[string]float64, error) {
	var ratings map[string]map[string]float64
	if err := json.NewDecoder(r).Decode(&ratings); err != nil {
		return nil, errors.Trace(err)
	}
	return ratings, nil
}

// readLines parses fields of each line for csv file. Quoted fields may contain the
// separator, escaped quotes ("") or line breaks.
func readLines(sc *bufio.Scanner, sep string, handler func(int, []string) bool) error {
	lineCount := 0               // line number of current position
	fields := make([]string, 0)  // fields for current line
	builder := strings.Builder{} // string builder for current field
	quoted := false              // whether current position in quote
	for sc.Scan() {
		line := []rune(sc.Text())
		if quoted {
			builder.WriteString("\r\n")
		}
		for i := 0; i < len(line); i++ {
			if string(line[i]) == sep && !quoted {
				// end of field
				fields = append(fields, builder.String())
				builder.Reset()
			} else if line[i] == '"' {
				if quoted {
					if i+1 >= len(line) || line[i+1] != '"' {
						quoted = false
					} else {
						i++
						builder.WriteRune('"')
					}
				} else {
					quoted = true
				}
			} else {
				builder.WriteRune(line[i])
			}
		}
		// end of line
		if !quoted {
			fields = append(fields, builder.String())
			builder.Reset()
			if !handler(lineCount, fields) {
				return nil
			}
			fields = []string{}
		}
		lineCount++
	}
	return sc.Err()
}
