/*

Package model provides item-based collaborative filtering models for rating prediction.

Both models precompute item-item statistics once from a rating matrix and then predict
ratings of unrated items for a single user:

	* SlopeOne: weighted Slope One over a deviation matrix and a frequency (support) matrix.
	* AdjustedCosine: adjusted cosine similarity, centered on each user's own mean rating.

Precomputed statistics are read-only after construction, so Predict may be called from
multiple goroutines.

*/
package model
