/*
Copyright © 2025 Ambor <saltbo@foxmail.com>

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in
all copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
THE SOFTWARE.
*/
package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nii-geonlp/geonlp-go/internal/adapter/repository"
	"github.com/nii-geonlp/geonlp-go/internal/infrastructure/config"
	"github.com/nii-geonlp/geonlp-go/internal/usecase/engine"
)

var filterCmd = &cobra.Command{
	Use:   "filter",
	Short: "セッションのアクティブ辞書・NEクラスフィルタを確認する",
}

var addDicts, removeDicts []string
var addClasses, removeClasses []string
var resetDicts, resetClasses bool

var filterShowCmd = &cobra.Command{
	Use:   "show",
	Short: "プロファイルの既定フィルタに、与えられた add/remove を適用した結果を表示する",
	RunE: func(cmd *cobra.Command, args []string) error {
		profile, err := loadProfile()
		if err != nil {
			return err
		}

		db, err := engine.OpenStorage(profile)
		if err != nil {
			return fmt.Errorf("open storage: %w", err)
		}
		defer db.Close()

		store := repository.New(db, profile.DataFile(config.TrieFile))
		eng, err := engine.Open(cmd.Context(), profilePath, store)
		if err != nil {
			return fmt.Errorf("open engine: %w", err)
		}
		defer eng.Close()

		if resetDicts {
			if err := eng.ResetActiveDictionaries(cmd.Context()); err != nil {
				return fmt.Errorf("reset active dictionaries: %w", err)
			}
		}
		if resetClasses {
			if err := eng.ResetActiveClasses(); err != nil {
				return fmt.Errorf("reset active classes: %w", err)
			}
		}

		for _, raw := range addDicts {
			id, err := strconv.Atoi(strings.TrimSpace(raw))
			if err != nil {
				return fmt.Errorf("invalid dictionary id %q: %w", raw, err)
			}
			eng.AddActiveDictionary(id)
		}
		for _, raw := range removeDicts {
			id, err := strconv.Atoi(strings.TrimSpace(raw))
			if err != nil {
				return fmt.Errorf("invalid dictionary id %q: %w", raw, err)
			}
			eng.RemoveActiveDictionary(id)
		}
		for _, pattern := range addClasses {
			if err := eng.AddActiveClass(pattern); err != nil {
				return fmt.Errorf("invalid class pattern %q: %w", pattern, err)
			}
		}
		for _, pattern := range removeClasses {
			eng.RemoveActiveClass(pattern)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "active dictionaries: %v\n", eng.GetActiveDictionaries())
		fmt.Fprintf(out, "active classes: %v\n", eng.GetActiveClasses())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(filterCmd)
	filterCmd.AddCommand(filterShowCmd)
	filterShowCmd.Flags().StringSliceVar(&addDicts, "add-dictionary", nil, "アクティブ辞書IDを追加する (繰り返し可)")
	filterShowCmd.Flags().StringSliceVar(&removeDicts, "remove-dictionary", nil, "アクティブ辞書IDを除外する (繰り返し可)")
	filterShowCmd.Flags().StringSliceVar(&addClasses, "add-class", nil, "アクティブNEクラス正規表現を追加する (繰り返し可)")
	filterShowCmd.Flags().StringSliceVar(&removeClasses, "remove-class", nil, "アクティブNEクラス正規表現を除外する (繰り返し可)")
	filterShowCmd.Flags().BoolVar(&resetDicts, "reset-dictionaries", false, "アクティブ辞書をプロファイルの既定値に戻す")
	filterShowCmd.Flags().BoolVar(&resetClasses, "reset-classes", false, "アクティブNEクラスをプロファイルの既定値に戻す")
}
