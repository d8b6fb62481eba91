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

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/nii-geonlp/geonlp-go/internal/infrastructure/config"
	"github.com/nii-geonlp/geonlp-go/internal/infrastructure/logging"
)

var profilePath string

// logger starts out as logrus's bare defaults, since no profile (and so
// no log_level/log_format) is available until --profile is parsed.
// loadProfile reconfigures it once the profile loads successfully.
var logger = logrus.New()

var rootCmd = &cobra.Command{
	Use:   "geonlp",
	Short: "日本語地名認識エンジンのコマンドラインツール",
	Long:  "辞書の構築・索引更新・文のパースを行う geonlp エンジンの CLI。",
}

// Execute runs the root command, exiting the process on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		logger.WithError(err).Error("command failed")
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&profilePath, "profile", "", "プロファイルファイルのパス (必須)")
}

// loadProfile loads the profile named by --profile, failing early with a
// consistent error if the flag was not set. On success it reconfigures
// logger from the profile's log_level/log_format keys, so every
// subsequent failure (trie load, analyzer model, storage open) logs at
// the level and format the operator configured.
func loadProfile() (*config.Profile, error) {
	if profilePath == "" {
		return nil, fmt.Errorf("--profile is required")
	}
	p, err := config.Load(profilePath)
	if err != nil {
		logger.WithError(err).Error("profile load failed")
		return nil, err
	}
	if l, lerr := logging.New(p); lerr == nil {
		logger = l
	}
	return p, nil
}
