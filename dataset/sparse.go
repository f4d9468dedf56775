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

// SparseVector is a sparse row of (index, value) pairs kept sorted by index.
type SparseVector struct {
	Indices []int32
	Values  []float64
}

// Len returns the number of stored values.
func (vec *SparseVector) Len() int {
	return len(vec.Values)
}

// ForEach iterates values in ascending index order.
func (vec *SparseVector) ForEach(f func(i int, index int32, value float64)) {
	for i := range vec.Indices {
		f(i, vec.Indices[i], vec.Values[i])
	}
}

// Sum returns the sum of values, accumulated in index order.
func (vec *SparseVector) Sum() float64 {
	sum := 0.0
	for _, v := range vec.Values {
		sum += v
	}
	return sum
}

// Mean returns the mean of values, or zero for an empty vector.
func (vec *SparseVector) Mean() float64 {
	if vec.Len() == 0 {
		return 0
	}
	return vec.Sum() / float64(vec.Len())
}

// Get returns the value stored at index.
func (vec *SparseVector) Get(index int32) (float64, bool) {
	if i, ok := vec.Find(index); ok {
		return vec.Values[i], true
	}
	return 0, false
}

// Find returns the position of index by binary search.
func (vec *SparseVector) Find(index int32) (int, bool) {
	i, j := 0, len(vec.Indices)
	for i < j {
		h := int(uint(i+j) >> 1)
		if vec.Indices[h] < index {
			i = h + 1
		} else {
			j = h
		}
	}
	return i, i < len(vec.Indices) && vec.Indices[i] == index
}

// ForIntersection iterates common indices of two vectors in ascending order. Both
// vectors are sorted, so common indices are found in linear time.
func (vec *SparseVector) ForIntersection(other *SparseVector, f func(index int32, a, b float64)) {
	i, j := 0, 0
	for i < vec.Len() && j < other.Len() {
		if vec.Indices[i] == other.Indices[j] {
			f(vec.Indices[i], vec.Values[i], other.Values[j])
			i++
			j++
		} else if vec.Indices[i] < other.Indices[j] {
			i++
		} else {
			j++
		}
	}
}

// Intersect is ForIntersection reporting positions instead of values: f receives the
// common index and its position in each vector.
func (vec *SparseVector) Intersect(other *SparseVector, f func(index int32, i, j int)) {
	i, j := 0, 0
	for i < vec.Len() && j < other.Len() {
		if vec.Indices[i] == other.Indices[j] {
			f(vec.Indices[i], i, j)
			i++
			j++
		} else if vec.Indices[i] < other.Indices[j] {
			i++
		} else {
			j++
		}
	}
}
