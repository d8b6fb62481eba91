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

var importCmd = &cobra.Command{
	Use:   "import <metadata.json> <geowords.csv>",
	Short: "辞書を一件インポートする",
	Args:  cobra.ExactArgs(2),
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
		id, err := store.AddDictionary(cmd.Context(), args[0], args[1])
		if err != nil {
			return fmt.Errorf("import dictionary: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "imported dictionary id=%d\n", id)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(importCmd)
}
