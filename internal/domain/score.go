package domain

// ScoreCodec translates between true cosine similarity and the raw score
// scale of a particular engine. Some engines require the scoring function
// to be non-negative, which forces an offset onto the wire; the codec keeps
// that quirk out of the search logic.
type ScoreCodec interface {
	// Encode maps a cosine similarity in [-1, 1] to the engine's raw scale.
	Encode(similarity float64) float64
	// Decode maps a raw engine score back to cosine similarity.
	Decode(raw float64) float64
}

// OffsetCodec implements raw = similarity + 1.0, the scheme used by engines
// whose scoring function must return a non-negative value. Raw range [0, 2].
type OffsetCodec struct{}

// Encode maps similarity to the non-negative raw scale.
func (OffsetCodec) Encode(similarity float64) float64 { return similarity + 1.0 }

// Decode recovers the cosine similarity from a raw score.
func (OffsetCodec) Decode(raw float64) float64 { return raw - 1.0 }

// IdentityCodec passes scores through unchanged, for engines with native
// signed cosine scoring.
type IdentityCodec struct{}

// Encode returns the similarity unchanged.
func (IdentityCodec) Encode(similarity float64) float64 { return similarity }

// Decode returns the raw score unchanged.
func (IdentityCodec) Decode(raw float64) float64 { return raw }
