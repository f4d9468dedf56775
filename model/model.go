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

package model

import (
	"strings"

	"github.com/gorse-io/itemcf/dataset"
)

const (
	SlopeOneMetric = "slopeone"
	CosineMetric   = "cosine"
)

const (
	DefaultMinRating = 1.0
	DefaultMaxRating = 5.0
)

// Score is a predicted rating of an item.
type Score struct {
	Id    string  `json:"item_id"`
	Score float64 `json:"rating"`
}

// Predictor predicts ratings of the items a user has not rated. Scores are listed in
// ascending item order. Items without any supporting statistics are left out.
type Predictor interface {
	Predict(userId string) []Score
	Metric() string
}

// Options of model fitting.
type Options struct {
	MinRating float64 // lower bound of the rating scale
	MaxRating float64 // upper bound of the rating scale
	Jobs      int     // number of goroutines computing item-item rows
}

func NewOptions() Options {
	return Options{
		MinRating: DefaultMinRating,
		MaxRating: DefaultMaxRating,
		Jobs:      1,
	}
}

// ParseMetric normalizes a metric name. Unknown names fall back to slope one, ok is
// false in that case.
func ParseMetric(name string) (metric string, ok bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case CosineMetric:
		return CosineMetric, true
	case SlopeOneMetric:
		return SlopeOneMetric, true
	default:
		return SlopeOneMetric, false
	}
}

// New fits the model of a metric. Unknown metrics fit slope one.
func New(metric string, matrix *dataset.RatingMatrix, opts Options) Predictor {
	if metric, _ = ParseMetric(metric); metric == CosineMetric {
		return NewAdjustedCosine(matrix, opts)
	}
	return NewSlopeOne(matrix, opts)
}

// itemRow is a sparse row of an item-item matrix, sorted by column.
type itemRow struct {
	dataset.SparseVector
	Counts []int32
}

func (row *itemRow) append(col int32, value float64, count int32) {
	row.Indices = append(row.Indices, col)
	row.Values = append(row.Values, value)
	row.Counts = append(row.Counts, count)
}

func lookup(rows []itemRow, x, y int32) (float64, int32, bool) {
	if x < 0 || int(x) >= len(rows) {
		return 0, 0, false
	}
	row := &rows[x]
	if i, ok := row.Find(y); ok {
		return row.Values[i], row.Counts[i], true
	}
	return 0, 0, false
}
