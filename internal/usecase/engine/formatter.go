package engine

import (
	"strings"

	"github.com/nii-geonlp/geonlp-go/internal/entity"
)

// DefaultGeowordFormatter renders toks the way MeCab's default output
// format does, extended with the place-name feature tuple:
// "surface\tpos,sub1,sub2,sub3,conj-form,conj-type,lemma,yomi,pronunciation\n",
// a bare newline for BOS and "EOS\n" for EOS.
func DefaultGeowordFormatter(toks []entity.Token) string {
	var b strings.Builder
	for _, t := range toks {
		switch t.Kind {
		case entity.TokenBOS:
			b.WriteString("\n")
		case entity.TokenEOS:
			b.WriteString("EOS\n")
		default:
			b.WriteString(t.Surface)
			b.WriteByte('\t')
			b.WriteString(t.Feature.String())
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// ChasenGeowordFormatter renders toks in ChaSen's column layout:
// "surface\tyomi\tlemma\tpos-sub1-sub2-sub3\tconj-form\tconj-type\n",
// an empty line for BOS and "EOS\n" for EOS.
func ChasenGeowordFormatter(toks []entity.Token) string {
	var b strings.Builder
	for _, t := range toks {
		switch t.Kind {
		case entity.TokenBOS:
			b.WriteString("\n")
		case entity.TokenEOS:
			b.WriteString("EOS\n")
		default:
			f := t.Feature
			pos := strings.Join([]string{f.POS, f.Subclass1, f.Subclass2, f.Subclass3}, "-")
			b.WriteString(t.Surface)
			b.WriteByte('\t')
			b.WriteString(f.Yomi)
			b.WriteByte('\t')
			b.WriteString(f.Lemma)
			b.WriteByte('\t')
			b.WriteString(pos)
			b.WriteByte('\t')
			b.WriteString(f.ConjForm)
			b.WriteByte('\t')
			b.WriteString(f.ConjType)
			b.WriteByte('\n')
		}
	}
	return b.String()
}
