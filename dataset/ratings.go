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
	"slices"

	"github.com/samber/lo"
)

// Rating is a single (user, item, rating) observation.
type Rating struct {
	UserId string  `json:"user_id"`
	ItemId string  `json:"item_id"`
	Value  float64 `json:"rating"`
}

// RatingMatrix holds sparse user→item→rating observations together with the
// transposed item→user→rating view. Users and items are mapped to dense indices
// in ascending lexicographic order, so every iteration over the matrix is
// deterministic. A RatingMatrix is never modified after construction and is
// safe for concurrent reads.
type RatingMatrix struct {
	userRatings map[string]map[string]float64
	itemRatings map[string]map[string]float64
	users       []string
	items       []string
	userIndex   map[string]int32
	itemIndex   map[string]int32
	userVectors []SparseVector // item indices rated by each user
	itemVectors []SparseVector // user indices who rated each item
	numRatings  int
}

// NewRatingMatrix builds a matrix from nested user→item→rating maps. The input is
// copied, later changes to it are not observed.
func NewRatingMatrix(ratings map[string]map[string]float64) *RatingMatrix {
	m := &RatingMatrix{
		userRatings: make(map[string]map[string]float64, len(ratings)),
		itemRatings: make(map[string]map[string]float64),
	}
	for userId, itemRatings := range ratings {
		row := make(map[string]float64, len(itemRatings))
		for itemId, rating := range itemRatings {
			row[itemId] = rating
			if _, exist := m.itemRatings[itemId]; !exist {
				m.itemRatings[itemId] = make(map[string]float64)
			}
			m.itemRatings[itemId][userId] = rating
			m.numRatings++
		}
		m.userRatings[userId] = row
	}
	m.users = lo.Keys(m.userRatings)
	slices.Sort(m.users)
	m.items = lo.Keys(m.itemRatings)
	slices.Sort(m.items)
	m.userIndex = indexOf(m.users)
	m.itemIndex = indexOf(m.items)

	// build sparse rows in index order
	m.userVectors = make([]SparseVector, len(m.users))
	m.itemVectors = make([]SparseVector, len(m.items))
	for userIdx, userId := range m.users {
		row := m.userRatings[userId]
		vec := &m.userVectors[userIdx]
		vec.Indices = make([]int32, 0, len(row))
		vec.Values = make([]float64, 0, len(row))
		itemIds := lo.Keys(row)
		slices.Sort(itemIds)
		for _, itemId := range itemIds {
			itemIdx, rating := m.itemIndex[itemId], row[itemId]
			vec.Indices = append(vec.Indices, itemIdx)
			vec.Values = append(vec.Values, rating)
			m.itemVectors[itemIdx].Indices = append(m.itemVectors[itemIdx].Indices, int32(userIdx))
			m.itemVectors[itemIdx].Values = append(m.itemVectors[itemIdx].Values, rating)
		}
	}
	return m
}

// FromTriples builds a matrix from a flat list of ratings. If a (user, item) pair
// appears more than once, the last rating wins.
func FromTriples(ratings []Rating) *RatingMatrix {
	nested := make(map[string]map[string]float64)
	for _, r := range ratings {
		if _, exist := nested[r.UserId]; !exist {
			nested[r.UserId] = make(map[string]float64)
		}
		nested[r.UserId][r.ItemId] = r.Value
	}
	return NewRatingMatrix(nested)
}

func indexOf(ids []string) map[string]int32 {
	index := make(map[string]int32, len(ids))
	for i, id := range ids {
		index[id] = int32(i)
	}
	return index
}

// UserRatings returns the user→item→rating view. The result must not be modified.
func (m *RatingMatrix) UserRatings() map[string]map[string]float64 {
	return m.userRatings
}

// ItemRatings returns the transposed item→user→rating view. The result must not be modified.
func (m *RatingMatrix) ItemRatings() map[string]map[string]float64 {
	return m.itemRatings
}

// Users returns user ids in ascending order.
func (m *RatingMatrix) Users() []string {
	return m.users
}

// Items returns the sorted, deduplicated item ids.
func (m *RatingMatrix) Items() []string {
	return m.items
}

func (m *RatingMatrix) CountUsers() int {
	return len(m.users)
}

func (m *RatingMatrix) CountItems() int {
	return len(m.items)
}

func (m *RatingMatrix) CountRatings() int {
	return m.numRatings
}

// UserIndex returns the dense index of a user.
func (m *RatingMatrix) UserIndex(userId string) (int32, bool) {
	idx, ok := m.userIndex[userId]
	return idx, ok
}

// ItemIndex returns the dense index of an item.
func (m *RatingMatrix) ItemIndex(itemId string) (int32, bool) {
	idx, ok := m.itemIndex[itemId]
	return idx, ok
}

// UserVector returns the ratings of a user keyed by item index.
func (m *RatingMatrix) UserVector(userIdx int32) *SparseVector {
	return &m.userVectors[userIdx]
}

// ItemVector returns the ratings of an item keyed by user index.
func (m *RatingMatrix) ItemVector(itemIdx int32) *SparseVector {
	return &m.itemVectors[itemIdx]
}

// GetUserRatings returns the ratings of a user. The result must not be modified.
func (m *RatingMatrix) GetUserRatings(userId string) (map[string]float64, bool) {
	ratings, ok := m.userRatings[userId]
	return ratings, ok
}

// GetItemRatings returns the ratings of an item. The result must not be modified.
func (m *RatingMatrix) GetItemRatings(itemId string) (map[string]float64, bool) {
	ratings, ok := m.itemRatings[itemId]
	return ratings, ok
}

func (m *RatingMatrix) GetRating(userId, itemId string) (float64, bool) {
	rating, ok := m.userRatings[userId][itemId]
	return rating, ok
}

// triples lists all ratings ordered by user then item.
func (m *RatingMatrix) triples() []Rating {
	ratings := make([]Rating, 0, m.numRatings)
	for userIdx, userId := range m.users {
		m.userVectors[userIdx].ForEach(func(_ int, itemIdx int32, value float64) {
			ratings = append(ratings, Rating{UserId: userId, ItemId: m.items[itemIdx], Value: value})
		})
	}
	return ratings
}
