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
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nii-geonlp/geonlp-go/internal/adapter/repository"
	"github.com/nii-geonlp/geonlp-go/internal/infrastructure/config"
	"github.com/nii-geonlp/geonlp-go/internal/usecase/engine"
)

var parseCmd = &cobra.Command{
	Use:   "parse [sentence]",
	Short: "文を解析して地名語を認識する",
	Long:  "引数に文を渡さなければ標準入力から一行ずつ読み込む。",
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

		ctx := cmd.Context()
		out := cmd.OutOrStdout()

		if len(args) > 0 {
			text, err := eng.Parse(ctx, strings.Join(args, " "))
			if err != nil {
				return err
			}
			fmt.Fprint(out, text)
			return nil
		}

		scanner := bufio.NewScanner(cmd.InOrStdin())
		for scanner.Scan() {
			text, err := eng.Parse(ctx, scanner.Text())
			if err != nil {
				return err
			}
			fmt.Fprint(out, text)
		}
		if err := scanner.Err(); err != nil && err != io.EOF {
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(parseCmd)
}
