// Package analyzer adapts github.com/shogo82148/go-mecab's tagger into
// the flat entity.Token stream the classifier and resolver consume,
// grounded on the tagger/model lifecycle (NewModel with a dicdir,
// NewMeCab, Destroy on both) used to drive MeCab for place-name
// extraction.
package analyzer

import (
	"fmt"

	"github.com/shogo82148/go-mecab"

	"github.com/nii-geonlp/geonlp-go/internal/entity"
)

// Analyzer wraps one MeCab model+tagger pair. It is not safe for
// concurrent use; the engine that owns it is itself single-threaded
// per instance.
type Analyzer struct {
	model  mecab.Model
	tagger mecab.MeCab
}

// New loads a MeCab model from dicDir (the profile's system_dic_dir)
// and an optional userDicPath (mecabusr.dic; ignored if empty).
func New(dicDir, userDicPath string) (*Analyzer, error) {
	opts := map[string]string{
		"dicdir":             dicDir,
		"output-format-type": "chasen",
	}
	if userDicPath != "" {
		opts["userdic"] = userDicPath
	}

	model, err := mecab.NewModel(opts)
	if err != nil {
		return nil, entity.NewAnalyzerError("load mecab model", err)
	}

	tagger, err := model.NewMeCab()
	if err != nil {
		model.Destroy()
		return nil, entity.NewAnalyzerError("create mecab tagger", err)
	}

	return &Analyzer{model: model, tagger: tagger}, nil
}

// Destroy releases the tagger and model.
func (a *Analyzer) Destroy() {
	if a == nil {
		return
	}
	a.tagger.Destroy()
	a.model.Destroy()
}

// Tokenize runs the tagger over text and returns the flat morpheme
// stream, BOS and EOS sentinels included.
func (a *Analyzer) Tokenize(text string) ([]entity.Token, error) {
	if a == nil {
		return nil, entity.ErrAnalyzerUninitialized
	}

	node, err := a.tagger.ParseToNode(text)
	if err != nil {
		return nil, entity.NewAnalyzerError(fmt.Sprintf("parse %q", text), err)
	}

	var tokens []entity.Token
	for n := node; !n.IsZero(); n, err = n.Next() {
		if err != nil {
			return nil, entity.NewAnalyzerError("walk mecab node chain", err)
		}
		switch n.Stat() {
		case mecab.NorNode:
			tokens = append(tokens, entity.Token{
				Kind:    entity.TokenNormal,
				Surface: n.Surface(),
				Feature: entity.ParseFeature(n.Feature()),
			})
		case mecab.BosNode:
			tokens = append(tokens, entity.Token{Kind: entity.TokenBOS})
		case mecab.EosNode:
			tokens = append(tokens, entity.Token{Kind: entity.TokenEOS})
		}
	}
	return tokens, nil
}
