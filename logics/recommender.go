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

package logics

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/gorse-io/itemcf/common/log"
	"github.com/gorse-io/itemcf/common/parallel"
	"github.com/gorse-io/itemcf/common/util"
	"github.com/gorse-io/itemcf/dataset"
	"github.com/gorse-io/itemcf/model"
	"github.com/juju/errors"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

const DefaultTopK = 50

// UnknownUserError is returned when recommendations are requested for a user
// that is absent from the rating matrix.
type UnknownUserError struct {
	UserId string
}

func (e *UnknownUserError) Error() string {
	return fmt.Sprintf("user %q not found", e.UserId)
}

// Unwrap makes errors.Is(err, errors.NotFound) hold for unknown users.
func (e *UnknownUserError) Unwrap() error {
	return errors.NotFound
}

// Options of the recommender.
type Options struct {
	Metric    string  // "slopeone" or "cosine"
	TopK      int     // maximum number of recommendations
	MinRating float64 // lower bound of the rating scale
	MaxRating float64 // upper bound of the rating scale
	Jobs      int     // number of goroutines used for precomputation
}

func NewOptions() Options {
	return Options{
		Metric:    model.SlopeOneMetric,
		TopK:      DefaultTopK,
		MinRating: model.DefaultMinRating,
		MaxRating: model.DefaultMaxRating,
		Jobs:      1,
	}
}

// Recommender recommends unrated items to users of a rating matrix.
type Recommender struct {
	matrix    *dataset.RatingMatrix
	predictor model.Predictor
	topK      int
}

// NewRecommender fits the model selected by opts.Metric. An unknown metric falls back
// to slope one and a non-positive TopK falls back to DefaultTopK. The rating scale
// must satisfy MinRating < MaxRating.
func NewRecommender(matrix *dataset.RatingMatrix, opts Options) (*Recommender, error) {
	if matrix == nil {
		return nil, errors.NotValidf("nil rating matrix")
	}
	if !(opts.MinRating < opts.MaxRating) {
		return nil, errors.NotValidf("rating scale [%v, %v]", opts.MinRating, opts.MaxRating)
	}
	metric, ok := model.ParseMetric(opts.Metric)
	if !ok {
		log.Logger().Warn("unknown metric, fall back to slope one",
			zap.String("metric", opts.Metric))
	}
	topK := opts.TopK
	if topK <= 0 {
		log.Logger().Warn("top k must be positive, fall back to default",
			zap.Int("top_k", opts.TopK), zap.Int("default", DefaultTopK))
		topK = DefaultTopK
	}
	start := time.Now()
	predictor := model.New(metric, matrix, model.Options{
		MinRating: opts.MinRating,
		MaxRating: opts.MaxRating,
		Jobs:      opts.Jobs,
	})
	log.Logger().Info("recommender ready",
		zap.String("metric", metric),
		zap.Int("n_users", matrix.CountUsers()),
		zap.Int("n_items", matrix.CountItems()),
		zap.Int("n_ratings", matrix.CountRatings()),
		zap.Duration("fit_time", time.Since(start)))
	return &Recommender{
		matrix:    matrix,
		predictor: predictor,
		topK:      topK,
	}, nil
}

// Metric returns the metric in effect after fallback.
func (r *Recommender) Metric() string {
	return r.predictor.Metric()
}

// TopK returns the result cap in effect after fallback.
func (r *Recommender) TopK() int {
	return r.topK
}

// Recommend returns at most TopK unrated items ordered by predicted rating
// descending. Ties keep ascending item order. Ratings are rounded to 2 decimals.
func (r *Recommender) Recommend(userId string) ([]model.Score, error) {
	if _, exist := r.matrix.GetUserRatings(userId); !exist {
		return nil, errors.Trace(&UnknownUserError{UserId: userId})
	}
	// round before sorting so that ties are judged on the reported ratings
	scores := lo.Map(r.predictor.Predict(userId), func(s model.Score, _ int) model.Score {
		return model.Score{Id: s.Id, Score: util.Round(s.Score, 2)}
	})
	// predictions come in ascending item order, a stable sort keeps it among ties
	slices.SortStableFunc(scores, func(a, b model.Score) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		default:
			return 0
		}
	})
	if len(scores) > r.topK {
		scores = scores[:r.topK]
	}
	return scores, nil
}

// RecommendBatch recommends items to many users over jobs goroutines. It fails on the
// first unknown user.
func (r *Recommender) RecommendBatch(ctx context.Context, userIds []string, jobs int) (map[string][]model.Score, error) {
	var mu sync.Mutex
	results := make(map[string][]model.Score, len(userIds))
	err := parallel.Parallel(ctx, len(userIds), jobs, func(_, jobId int) error {
		scores, err := r.Recommend(userIds[jobId])
		if err != nil {
			return errors.Trace(err)
		}
		mu.Lock()
		results[userIds[jobId]] = scores
		mu.Unlock()
		return nil
	})
	if err != nil {
		return nil, errors.Trace(err)
	}
	return results, nil
}
