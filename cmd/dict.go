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

	"github.com/spf13/cobra"

	"github.com/nii-geonlp/geonlp-go/internal/adapter/repository"
	"github.com/nii-geonlp/geonlp-go/internal/infrastructure/config"
	"github.com/nii-geonlp/geonlp-go/internal/usecase/engine"
)

var dictCmd = &cobra.Command{
	Use:   "dict",
	Short: "辞書の一覧・検索・削除を行う",
}

var dictFilter, dictOrderBy string

var dictListCmd = &cobra.Command{
	Use:   "list",
	Short: "登録済み辞書を一覧表示する",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, closeFn, err := openDictStore()
		if err != nil {
			return err
		}
		defer closeFn()

		dicts, err := store.ListDictionaries(cmd.Context(), dictFilter, dictOrderBy)
		if err != nil {
			return fmt.Errorf("list dictionaries: %w", err)
		}

		for _, d := range dicts {
			fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\t%s\n", d.InternalID, d.Identifier, d.Name)
		}
		return nil
	},
}

var dictGetCmd = &cobra.Command{
	Use:   "get <identifier>",
	Short: "辞書のメタデータを表示する",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, closeFn, err := openDictStore()
		if err != nil {
			return err
		}
		defer closeFn()

		d, err := store.GetDictionary(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("get dictionary: %w", err)
		}
		if !d.IsValid() {
			return fmt.Errorf("dictionary %q not found", args[0])
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\t%s\t%s\n", d.InternalID, d.Identifier, d.Name, d.Description)
		return nil
	},
}

var dictClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "辞書・地名語・単語リストをすべて消去する",
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
		if err := store.ClearGeowords(cmd.Context()); err != nil {
			return err
		}
		if err := store.ClearDictionaries(cmd.Context()); err != nil {
			return err
		}
		if err := store.ClearWordlists(cmd.Context()); err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), "database cleared")
		return nil
	},
}

// openDictStore opens storage for a read-only dict subcommand, returning
// a close function instead of the raw *database.DB to keep callers from
// needing to import the database package themselves.
func openDictStore() (*repository.Store, func() error, error) {
	profile, err := loadProfile()
	if err != nil {
		return nil, nil, err
	}
	db, err := engine.OpenStorage(profile)
	if err != nil {
		return nil, nil, fmt.Errorf("open storage: %w", err)
	}
	store := repository.New(db, profile.DataFile(config.TrieFile))
	return store, store.Close, nil
}

func init() {
	rootCmd.AddCommand(dictCmd)
	dictCmd.AddCommand(dictListCmd, dictGetCmd, dictClearCmd)
	dictListCmd.Flags().StringVar(&dictFilter, "filter", "", "CEL フィルタ式")
	dictListCmd.Flags().StringVar(&dictOrderBy, "order-by", "", "並び替えキー")
}
