package scoring

// band maps a minimum score to a category label. Bands are listed highest
// threshold first; the first match wins.
type band struct {
	min   int
	label string
}

func categorize(score int, bands []band, fallback string) string {
	for _, b := range bands {
		if score >= b.min {
			return b.label
		}
	}
	return fallback
}
