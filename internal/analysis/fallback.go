package analysis

import (
	"bytes"
	"strings"

	"github.com/nao1215/markdown"
)

type articleTitles struct {
	main           string
	intro          string
	sections       map[Key]string
	conclusion     string
	conclusionText string
	noResult       string
}

func titlesFor(repo, lang string) articleTitles {
	if tierOf(lang) == tierPrimary {
		return articleTitles{
			main:  repo + " の分析レポート",
			intro: "このドキュメントは、GitHubリポジトリ `" + repo + "` を自動分析した結果をまとめたものです。",
			sections: map[Key]string{
				Usage:        "使い方 (Usage)",
				Installation: "インストール方法 (Installation)",
				Structure:    "リポジトリ構造 (Repository Structure)",
				Logic:        "コードロジック (Code Logic)",
			},
			conclusion:     "まとめ",
			conclusionText: "以上が `" + repo + "` の自動分析結果です。",
			noResult:       "分析結果を取得できませんでした。",
		}
	}
	return articleTitles{
		main:  "Analysis Report for " + repo,
		intro: "This document summarizes the results of an automated analysis of the GitHub repository `" + repo + "`.",
		sections: map[Key]string{
			Usage:        "Usage",
			Installation: "Installation",
			Structure:    "Repository Structure",
			Logic:        "Code Logic",
		},
		conclusion:     "Conclusion",
		conclusionText: "This concludes the automated analysis of `" + repo + "`.",
		noResult:       "Analysis result not available.",
	}
}

// FallbackArticle concatenates the perspective texts under fixed headings.
// It is deterministic and never returns an empty string.
func FallbackArticle(repo string, result Result, lang string) string {
	t := titlesFor(repo, lang)

	var buf bytes.Buffer
	md := markdown.NewMarkdown(&buf)
	md.H1(t.main)
	md.PlainText("")
	md.PlainText(t.intro)
	md.PlainText("")

	for _, p := range perspectives {
		md.H2(t.sections[p.Key])
		out := result[p.Key]
		if out.Failed() {
			md.PlainText(t.noResult)
		} else {
			md.PlainText(strings.TrimSpace(out.Text))
		}
		md.PlainText("")
	}

	md.H2(t.conclusion)
	md.PlainText(t.conclusionText)

	return strings.TrimSpace(md.String())
}
