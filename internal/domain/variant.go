package domain

// Preferred qualities for normal playback, best first
var primaryQualities = []Quality{Quality720, Quality480, Quality360, Quality240}

// Qualities kept out of normal rotation but usable as a last resort
var fallbackQualities = []Quality{Quality1080, QualityHLS}

// ResolveVariant picks the URL to play from a record's variants.
//
// The primary list is tried in full before any fallback quality is considered.
// ok is false when no variant has a URL; callers treat that as "unplayable",
// not as a failure.
func ResolveVariant(variants []Variant) (url string, ok bool) {
	if url, ok := firstAvailable(variants, primaryQualities); ok {
		return url, true
	}
	return firstAvailable(variants, fallbackQualities)
}

func firstAvailable(variants []Variant, order []Quality) (string, bool) {
	for _, q := range order {
		for _, v := range variants {
			if v.Quality == q && v.Available() {
				return v.URL, true
			}
		}
	}
	return "", false
}
