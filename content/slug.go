package content

import (
	"crypto/sha1"
	"encoding/hex"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	maxSlugLength = 80

	// MaxSlugAttempts bounds the base, base-2, base-3 ... sequence before falling back to a hash suffix.
	MaxSlugAttempts = 50
)

// Slugify turns a title into a lowercase, dash separated, ASCII-only slug.
// Diacritics are folded ("Daur Ulang Kertas Bekas!" -> "daur-ulang-kertas-bekas").
// A title without any latin letters or digits maps to "article-<hash>".
func Slugify(title string) string {
	folded, _, err := transform.String(transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), title)
	if err != nil {
		folded = title
	}
	folded = strings.ToLower(folded)

	var b strings.Builder
	dash := true
	for _, r := range folded {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash {
			b.WriteByte('-')
			dash = true
		}
	}

	slug := strings.Trim(b.String(), "-")
	if len(slug) > maxSlugLength {
		slug = slug[:maxSlugLength]
		if i := strings.LastIndexByte(slug, '-'); i > maxSlugLength/2 {
			slug = slug[:i]
		}
		slug = strings.Trim(slug, "-")
	}
	if slug == "" {
		return "article-" + shortHash(title)
	}
	return slug
}

// SlugCandidate returns the slug to try on the given 1-based attempt:
// base, base-2, base-3, ... and, past MaxSlugAttempts, base-<hash of seed>.
func SlugCandidate(base string, attempt int, seed string) string {
	switch {
	case attempt <= 1:
		return base
	case attempt <= MaxSlugAttempts:
		return base + "-" + strconv.Itoa(attempt)
	default:
		return base + "-" + shortHash(seed+"#"+strconv.Itoa(attempt))
	}
}

func shortHash(s string) string {
	sum := sha1.Sum([]byte(s))
	return hex.EncodeToString(sum[:4])
}
