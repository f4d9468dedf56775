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
	"time"

	"github.com/gorse-io/itemcf/common/log"
	"github.com/gorse-io/itemcf/common/parallel"
	"github.com/gorse-io/itemcf/common/util"
	"github.com/gorse-io/itemcf/dataset"
	"go.uber.org/zap"
)

// SlopeOne is the weighted Slope One predictor[1].
//
// [1] Lemire, Daniel, and Anna Maclachlan. "Slope one predictors
// for online rating-based collaborative filtering." Proceedings
// of the 2005 SIAM International Conference on Data Mining.
// Society for Industrial and Applied Mathematics, 2005.
type SlopeOne struct {
	matrix *dataset.RatingMatrix
	opts   Options
	// dev[x] holds the average difference between ratings of x and those of each
	// co-rated item, counts hold the number of users behind each difference.
	dev []itemRow
}

// NewSlopeOne computes deviation and frequency matrices of all item pairs.
func NewSlopeOne(matrix *dataset.RatingMatrix, opts Options) *SlopeOne {
	start := time.Now()
	so := &SlopeOne{
		matrix: matrix,
		opts:   opts,
		dev:    make([]itemRow, matrix.CountItems()),
	}
	parallel.For(matrix.CountItems(), opts.Jobs, func(x int) {
		so.dev[x] = so.deviationRow(int32(x))
	})
	pairs := 0
	for i := range so.dev {
		pairs += so.dev[i].Len()
	}
	log.Logger().Debug("fit slope one",
		zap.Int("n_items", matrix.CountItems()),
		zap.Int("n_pairs", pairs),
		zap.Duration("duration", time.Since(start)))
	return so
}

func (so *SlopeOne) deviationRow(x int32) itemRow {
	var row itemRow
	ratingsX := so.matrix.ItemVector(x)
	for y := int32(0); int(y) < so.matrix.CountItems(); y++ {
		if x == y {
			continue
		}
		sum, count := 0.0, int32(0)
		ratingsX.ForIntersection(so.matrix.ItemVector(y), func(_ int32, a, b float64) {
			sum += a - b
			count++
		})
		if count > 0 {
			row.append(y, util.Round(sum/float64(count), 2), count)
		}
	}
	return row
}

func (so *SlopeOne) Metric() string {
	return SlopeOneMetric
}

// Deviation returns the average rating difference between items x and y.
func (so *SlopeOne) Deviation(x, y string) (float64, bool) {
	dev, _, ok := so.pair(x, y)
	return dev, ok
}

// Frequency returns the number of users who rated both x and y.
func (so *SlopeOne) Frequency(x, y string) (int, bool) {
	_, count, ok := so.pair(x, y)
	return int(count), ok
}

func (so *SlopeOne) pair(x, y string) (float64, int32, bool) {
	xIdx, ok := so.matrix.ItemIndex(x)
	if !ok {
		return 0, 0, false
	}
	yIdx, ok := so.matrix.ItemIndex(y)
	if !ok {
		return 0, 0, false
	}
	return lookup(so.dev, xIdx, yIdx)
}

// Predict ratings of unrated items for a user:
//
//	pred(k) = Σ_j (dev[k][j] + r(j)) × freq[k][j] / Σ_j freq[k][j]
//
// over items j rated by the user. Predictions above the rating scale are clamped to
// its upper bound. Unknown users get no predictions.
func (so *SlopeOne) Predict(userId string) []Score {
	userIdx, ok := so.matrix.UserIndex(userId)
	if !ok {
		return nil
	}
	userRatings := so.matrix.UserVector(userIdx)
	items := so.matrix.Items()
	scores := make([]Score, 0, len(items)-userRatings.Len())
	for k := range items {
		if _, rated := userRatings.Find(int32(k)); rated {
			continue
		}
		row := &so.dev[k]
		num, den := 0.0, 0.0
		row.Intersect(userRatings, func(_ int32, i, j int) {
			freq := float64(row.Counts[i])
			num += (row.Values[i] + userRatings.Values[j]) * freq
			den += freq
		})
		if den == 0 {
			continue
		}
		prediction := util.Round(num/den, 3)
		if prediction > so.opts.MaxRating {
			prediction = so.opts.MaxRating
		}
		scores = append(scores, Score{Id: items[k], Score: prediction})
	}
	return scores
}
