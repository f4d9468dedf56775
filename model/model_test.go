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
	"sync"
	"testing"

	"github.com/gorse-io/itemcf/dataset"
	"github.com/stretchr/testify/assert"
)

// ratings from "A Programmer's Guide to Data Mining", chapter 3
var musicRatings = map[string]map[string]float64{
	"David": {"Imagine Dragons": 3, "Daft Punk": 5, "Lorde": 4, "Fall Out Boy": 1},
	"Matt":  {"Imagine Dragons": 3, "Daft Punk": 4, "Lorde": 4, "Fall Out Boy": 1},
	"Ben":   {"Kacey Musgraves": 4, "Imagine Dragons": 3, "Lorde": 3, "Fall Out Boy": 1},
	"Chris": {"Kacey Musgraves": 4, "Imagine Dragons": 4, "Daft Punk": 4, "Lorde": 3, "Fall Out Boy": 1},
	"Tori":  {"Kacey Musgraves": 5, "Imagine Dragons": 4, "Daft Punk": 5, "Fall Out Boy": 3},
}

var smallRatings = map[string]map[string]float64{
	"A": {"X": 3, "Y": 4},
	"B": {"X": 4, "Y": 2, "Z": 5},
	"C": {"Y": 5, "Z": 3},
}

func TestParseMetric(t *testing.T) {
	metric, ok := ParseMetric("cosine")
	assert.True(t, ok)
	assert.Equal(t, CosineMetric, metric)
	metric, ok = ParseMetric("SlopeOne")
	assert.True(t, ok)
	assert.Equal(t, SlopeOneMetric, metric)
	metric, ok = ParseMetric("bogus")
	assert.False(t, ok)
	assert.Equal(t, SlopeOneMetric, metric)
	metric, ok = ParseMetric("")
	assert.False(t, ok)
	assert.Equal(t, SlopeOneMetric, metric)
}

func TestNew(t *testing.T) {
	matrix := dataset.NewRatingMatrix(smallRatings)
	assert.IsType(t, &AdjustedCosine{}, New("COSINE", matrix, NewOptions()))
	assert.IsType(t, &SlopeOne{}, New("slopeone", matrix, NewOptions()))
	assert.IsType(t, &SlopeOne{}, New("bogus", matrix, NewOptions()))
}

func TestPredictConcurrently(t *testing.T) {
	matrix := dataset.NewRatingMatrix(musicRatings)
	for _, predictor := range []Predictor{
		NewSlopeOne(matrix, NewOptions()),
		NewAdjustedCosine(matrix, NewOptions()),
	} {
		expected := make(map[string][]Score)
		for _, userId := range matrix.Users() {
			expected[userId] = predictor.Predict(userId)
		}
		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Go(func() {
				for _, userId := range matrix.Users() {
					assert.Equal(t, expected[userId], predictor.Predict(userId))
				}
			})
		}
		wg.Wait()
	}
}

func BenchmarkSlopeOne(b *testing.B) {
	matrix := benchmarkMatrix(200, 100)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		NewSlopeOne(matrix, NewOptions())
	}
}

func BenchmarkAdjustedCosine(b *testing.B) {
	matrix := benchmarkMatrix(200, 100)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		NewAdjustedCosine(matrix, NewOptions())
	}
}

func benchmarkMatrix(numUsers, numItems int) *dataset.RatingMatrix {
	var ratings []dataset.Rating
	for u := 0; u < numUsers; u++ {
		for i := 0; i < numItems; i++ {
			if (u*31+i*17)%5 < 2 {
				ratings = append(ratings, dataset.Rating{
					UserId: string(rune('a'+u%26)) + string(rune('0'+u/26)),
					ItemId: string(rune('A'+i%26)) + string(rune('0'+i/26)),
					Value:  float64((u+i)%5 + 1),
				})
			}
		}
	}
	return dataset.FromTriples(ratings)
}
