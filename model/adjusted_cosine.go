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
	"math"
	"time"

	"github.com/gorse-io/itemcf/common/log"
	"github.com/gorse-io/itemcf/common/parallel"
	"github.com/gorse-io/itemcf/common/util"
	"github.com/gorse-io/itemcf/dataset"
	"go.uber.org/zap"
)

// AdjustedCosine predicts ratings from adjusted cosine similarities between items.
// Ratings are centered on the mean rating of each user rather than each item.
type AdjustedCosine struct {
	matrix    *dataset.RatingMatrix
	opts      Options
	userMeans []float64
	sim       []itemRow
}

// NewAdjustedCosine computes user means and the similarity matrix of all item pairs.
func NewAdjustedCosine(matrix *dataset.RatingMatrix, opts Options) *AdjustedCosine {
	start := time.Now()
	ac := &AdjustedCosine{
		matrix:    matrix,
		opts:      opts,
		userMeans: make([]float64, matrix.CountUsers()),
		sim:       make([]itemRow, matrix.CountItems()),
	}
	for u := range ac.userMeans {
		ac.userMeans[u] = util.Round(matrix.UserVector(int32(u)).Mean(), 2)
	}
	parallel.For(matrix.CountItems(), opts.Jobs, func(x int) {
		ac.sim[x] = ac.similarityRow(int32(x))
	})
	pairs := 0
	for i := range ac.sim {
		pairs += ac.sim[i].Len()
	}
	log.Logger().Debug("fit adjusted cosine",
		zap.Int("n_users", matrix.CountUsers()),
		zap.Int("n_items", matrix.CountItems()),
		zap.Int("n_pairs", pairs),
		zap.Duration("duration", time.Since(start)))
	return ac
}

func (ac *AdjustedCosine) similarityRow(x int32) itemRow {
	var row itemRow
	ratingsX := ac.matrix.ItemVector(x)
	for y := int32(0); int(y) < ac.matrix.CountItems(); y++ {
		if x == y {
			continue
		}
		num, den1, den2, count := 0.0, 0.0, 0.0, int32(0)
		ratingsX.ForIntersection(ac.matrix.ItemVector(y), func(u int32, a, b float64) {
			mean := ac.userMeans[u]
			num += (a - mean) * (b - mean)
			den1 += (a - mean) * (a - mean)
			den2 += (b - mean) * (b - mean)
			count++
		})
		if den1 != 0 && den2 != 0 {
			row.append(y, util.Round(num/(math.Sqrt(den1)*math.Sqrt(den2)), 2), count)
		}
	}
	return row
}

func (ac *AdjustedCosine) Metric() string {
	return CosineMetric
}

// Similarity returns the adjusted cosine similarity between items x and y.
func (ac *AdjustedCosine) Similarity(x, y string) (float64, bool) {
	xIdx, ok := ac.matrix.ItemIndex(x)
	if !ok {
		return 0, false
	}
	yIdx, ok := ac.matrix.ItemIndex(y)
	if !ok {
		return 0, false
	}
	sim, _, ok := lookup(ac.sim, xIdx, yIdx)
	return sim, ok
}

// UserMean returns the mean rating of a user, rounded to 2 decimals.
func (ac *AdjustedCosine) UserMean(userId string) (float64, bool) {
	userIdx, ok := ac.matrix.UserIndex(userId)
	if !ok {
		return 0, false
	}
	return ac.userMeans[userIdx], true
}

// normalize maps a rating from [MinRating, MaxRating] to [-1, 1].
func (ac *AdjustedCosine) normalize(rating float64) float64 {
	span := ac.opts.MaxRating - ac.opts.MinRating
	return (2*(rating-ac.opts.MinRating) - span) / span
}

// denormalize maps a value from [-1, 1] back to the rating scale.
func (ac *AdjustedCosine) denormalize(value float64) float64 {
	span := ac.opts.MaxRating - ac.opts.MinRating
	return util.Round(0.5*((value+1)*span)+ac.opts.MinRating, 3)
}

// Predict ratings of unrated items for a user:
//
//	pred(k) = Σ_j sim[j][k] × norm(j) / Σ_j |sim[j][k]|
//
// over items j rated by the user, where norm maps ratings to [-1, 1]. The result
// is mapped back to the rating scale. Unknown users get no predictions.
func (ac *AdjustedCosine) Predict(userId string) []Score {
	userIdx, ok := ac.matrix.UserIndex(userId)
	if !ok {
		return nil
	}
	userRatings := ac.matrix.UserVector(userIdx)
	normalized := make([]float64, userRatings.Len())
	for i, rating := range userRatings.Values {
		normalized[i] = ac.normalize(rating)
	}
	items := ac.matrix.Items()
	scores := make([]Score, 0, len(items)-userRatings.Len())
	for k := range items {
		if _, rated := userRatings.Find(int32(k)); rated {
			continue
		}
		// the similarity matrix is symmetric, so row k serves as column k
		row := &ac.sim[k]
		num, den := 0.0, 0.0
		row.Intersect(userRatings, func(_ int32, i, j int) {
			num += row.Values[i] * normalized[j]
			den += math.Abs(row.Values[i])
		})
		if den == 0 {
			continue
		}
		scores = append(scores, Score{Id: items[k], Score: ac.denormalize(util.Round(num/den, 3))})
	}
	return scores
}
