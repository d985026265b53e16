package analysis

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
)

// task is the perspective-specific part of a prompt.
type task struct {
	Ask       string
	Checklist []string
}

// phrasing holds one language tier's fixed prompt text.
type phrasing struct {
	Role         string
	Structure    string
	Respond      string
	ContentLabel string
	Tasks        map[Key]task
}

var japanese = phrasing{
	Role:         "あなたは経験豊富なソフトウェアエンジニアであり、技術記事の執筆者です。",
	Structure:    "見出し（##, ###）と箇条書きを使って構成し、必要に応じて具体的なコード例やコマンド例を示してください。",
	Respond:      "日本語で回答してください。",
	ContentLabel: "(リポジトリのMarkdown内容)",
	Tasks: map[Key]task{
		Usage: {
			Ask: "以下のMarkdown化されたリポジトリの内容を確認し、このリポジトリの「%s」を説明してください。",
			Checklist: []string{
				"想定できるユースケース",
				"典型的な利用の流れ",
				"具体的な実行例やコード例",
			},
		},
		Installation: {
			Ask: "以下のMarkdown化されたリポジトリの内容を読み、このリポジトリの「%s」を説明してください。",
			Checklist: []string{
				"必要な前提ソフトウェアとバージョン",
				"インストール手順",
				"環境変数や設定ファイルなどの環境設定",
			},
		},
		Structure: {
			Ask: "以下のMarkdown化されたリポジトリの内容を読み、このリポジトリの「%s」を説明してください。",
			Checklist: []string{
				"主要なディレクトリの構成",
				"重要ファイルの役割",
				"モジュール間の関係",
			},
		},
		Logic: {
			Ask: "以下のMarkdown化されたリポジトリの内容から、主要な「%s」やアルゴリズムについて要点をまとめて説明してください。",
			Checklist: []string{
				"中心となる処理の流れ",
				"重要な関数や型の動作",
				"実際のコード断片",
			},
		},
	},
}

var english = phrasing{
	Role:         "You are an experienced software engineer and technical writer.",
	Structure:    "Organize the answer with headings (##, ###) and bullet points, and include concrete code or command examples where they help.",
	Respond:      "Respond in English.",
	ContentLabel: "(Repository Markdown content)",
	Tasks: map[Key]task{
		Usage: {
			Ask: "Please review the following repository content (provided in Markdown), and describe the \"%s\" of this repository.",
			Checklist: []string{
				"Possible use cases",
				"A typical workflow",
				"Worked examples of running or calling it",
			},
		},
		Installation: {
			Ask: "Please read the following Markdown repository content and explain the \"%s\" process.",
			Checklist: []string{
				"Prerequisites and required versions",
				"Step-by-step setup",
				"Environment variables and configuration files",
			},
		},
		Structure: {
			Ask: "Please review the following Markdown repository content and describe the \"%s\".",
			Checklist: []string{
				"A breakdown of the main directories",
				"The role of important files",
				"How the modules relate to each other",
			},
		},
		Logic: {
			Ask: "Based on the following Markdown repository content, please summarize the main \"%s\" or algorithms in the repository.",
			Checklist: []string{
				"The central control flow",
				"Key functions and types and what they do",
				"Relevant code snippets",
			},
		},
	},
}

var perspectiveTmpl = template.Must(template.New("perspective").Parse(
	`{{.Role}}

{{.Ask}}
{{.Structure}}

{{range .Checklist}}- {{.}}
{{end}}
{{.Respond}}

{{.ContentLabel}}
{{.Markdown}}`))

var unifyTmpl = template.Must(template.New("unify").Parse(
	`{{.Role}}

{{.Instruction}}

{{range .Sections}}### {{.Label}}
{{.Text}}

{{end}}{{.Respond}}`))

func phrasingFor(lang string) phrasing {
	if tierOf(lang) == tierPrimary {
		return japanese
	}
	return english
}

// respondLine returns the language instruction for lang. The generic tier
// replaces the English instruction with an explicit target-language request.
func respondLine(ph phrasing, lang string) string {
	if tierOf(lang) == tierGeneric {
		return fmt.Sprintf("Finally, please provide the answer in %s.", LanguageName(lang))
	}
	return ph.Respond
}

// BuildPrompt returns the instruction for one perspective with the snapshot
// appended verbatim. Unknown keys get the raw Markdown with no wrapper.
func BuildPrompt(k Key, markdown, lang string) string {
	p, ok := LookupPerspective(k)
	if !ok {
		return markdown
	}
	ph := phrasingFor(lang)
	t := ph.Tasks[k]

	var buf bytes.Buffer
	err := perspectiveTmpl.Execute(&buf, struct {
		Role         string
		Ask          string
		Structure    string
		Checklist    []string
		Respond      string
		ContentLabel string
		Markdown     string
	}{
		Role:         ph.Role,
		Ask:          fmt.Sprintf(t.Ask, p.Label(lang)),
		Structure:    ph.Structure,
		Checklist:    t.Checklist,
		Respond:      respondLine(ph, lang),
		ContentLabel: ph.ContentLabel,
		Markdown:     markdown,
	})
	if err != nil {
		return markdown
	}
	return buf.String()
}

type unifySection struct {
	Label string
	Text  string
}

// BuildUnifyPrompt returns the single merge instruction embedding every
// perspective's text in fixed order.
func BuildUnifyPrompt(repo string, result Result, lang string) string {
	ph := phrasingFor(lang)

	sections := make([]unifySection, 0, len(perspectives))
	labels := make([]string, 0, len(perspectives))
	for _, p := range perspectives {
		label := p.Label(lang)
		labels = append(labels, label)
		sections = append(sections, unifySection{Label: label, Text: result[p.Key].Text})
	}

	var instruction string
	if tierOf(lang) == tierPrimary {
		instruction = fmt.Sprintf("以下はGitHubリポジトリ `%s` を4つの観点から分析した結果です。"+
			"これらを1つの読みやすい技術記事に統合してください。"+
			"最初にリポジトリの概要をまとめ、その後 %s の順で各セクションを見出し付きで示してください。"+
			"重複する内容は1か所にまとめ、最後に短いまとめで締めくくってください。",
			repo, strings.Join(labels, " → "))
	} else {
		instruction = fmt.Sprintf("Below are analyses of the GitHub repository `%s` from four perspectives. "+
			"Merge them into one coherent technical article. "+
			"Start with a short overview of the repository, then present the sections in this order with headings: %s. "+
			"Remove duplicated content and close with a brief summary.",
			repo, strings.Join(labels, " → "))
	}

	var buf bytes.Buffer
	err := unifyTmpl.Execute(&buf, struct {
		Role        string
		Instruction string
		Sections    []unifySection
		Respond     string
	}{
		Role:        ph.Role,
		Instruction: instruction,
		Sections:    sections,
		Respond:     respondLine(ph, lang),
	})
	if err != nil {
		return instruction
	}
	return buf.String()
}
