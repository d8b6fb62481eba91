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
	"os"

	"github.com/spf13/cobra"

	"github.com/nii-geonlp/geonlp-go/internal/usecase/engine"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "データディレクトリと空の辞書ストアを作成する",
	RunE: func(cmd *cobra.Command, args []string) error {
		profile, err := loadProfile()
		if err != nil {
			return err
		}

		if err := os.MkdirAll(profile.DataDir, 0o755); err != nil {
			return fmt.Errorf("create data_dir: %w", err)
		}

		db, err := engine.OpenStorage(profile)
		if err != nil {
			return fmt.Errorf("open storage: %w", err)
		}
		defer db.Close()

		fmt.Fprintf(cmd.OutOrStdout(), "initialized %s\n", profile.DataDir)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
