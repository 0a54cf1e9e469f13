package app

import "meiras_yachting/internal/domain"

// Project flattens rec into a single-language view. Pair-shaped fields yield
// the requested key, legacy scalars pass through, and a missing key leaves the
// field out of the view instead of failing.
func Project(rec domain.Record, lang domain.Lang) domain.FlatRecord {
	return domain.FlatRecord{
		Name:     pickStr(rec.Name, lang),
		Type:     pickStr(rec.Type, lang),
		Length:   rec.Length,
		People:   rec.People,
		Cabin:    rec.Cabin,
		Location: pickStr(rec.Location, lang),
		Features: pickList(rec.Features, lang),
		Images:   rec.Images,
	}
}

func ProjectAll(recs []domain.Record, lang domain.Lang) []domain.FlatRecord {
	out := make([]domain.FlatRecord, 0, len(recs))
	for _, r := range recs {
		out = append(out, Project(r, lang))
	}
	return out
}

func pickStr(v domain.Localized[string], lang domain.Lang) *string {
	s, ok := v.Pick(lang)
	if !ok {
		return nil
	}
	return &s
}

func pickList(v domain.Localized[[]string], lang domain.Lang) []string {
	l, ok := v.Pick(lang)
	if !ok {
		return nil
	}
	return l
}
