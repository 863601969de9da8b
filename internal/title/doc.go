// Package title normalizes media titles for comparison, generates search
// variants for catalogs with unreliable search, and scores candidate titles
// against an expected title.
//
// Normalization strips diacritics and punctuation so that localized titles
// ("A Lista de Schindler" vs "A Lista De Schindler") compare equal. Scoring
// favors containment between normalized forms and falls back to an
// edit-distance ratio for everything else.
package title
