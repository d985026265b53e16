package chat

import (
	"fmt"
	"strings"

	"github.com/julianshen/gitnote/internal/analysis"
)

const (
	refusalJA = "申し訳ありませんが、その質問には記事の内容からはお答えできません。"
	refusalEN = "I'm sorry, but I can't answer that question based on the article."
)

func isJapanese(lang string) bool {
	base, _, _ := strings.Cut(strings.ToLower(strings.TrimSpace(lang)), "-")
	return base == "ja"
}

func isEnglish(lang string) bool {
	base, _, _ := strings.Cut(strings.ToLower(strings.TrimSpace(lang)), "-")
	return base == "en" || base == ""
}

// RefusalSentence is the fixed reply for questions the article cannot answer.
func RefusalSentence(lang string) string {
	if isJapanese(lang) {
		return refusalJA
	}
	return refusalEN
}

// SystemPrompt builds the instruction for one turn: the article in full, the
// conversation so far, and the rule to answer from the article only.
func SystemPrompt(article string, history []Message, lang string) string {
	var b strings.Builder
	if isJapanese(lang) {
		b.WriteString("あなたは、提供された記事の内容についてユーザーからの質問に答えるAIアシスタントです。\n")
		b.WriteString("以下の記事をよく読んで、ユーザーの質問に分かりやすく答えてください。\n")
		b.WriteString("回答は記事に書かれている内容だけに基づいてください。")
		fmt.Fprintf(&b, "記事の内容から答えられない質問には、次の文だけをそのまま返してください: %s\n\n", refusalJA)
		b.WriteString("# 記事内容:\n")
		b.WriteString(article)
		b.WriteString("\n\n# これまでの会話:\n")
		writeHistory(&b, history, "ユーザー", "AI")
		return b.String()
	}

	b.WriteString("You are an AI assistant answering questions about the article provided below.\n")
	b.WriteString("Read the article carefully and answer the user's questions clearly.\n")
	b.WriteString("Answer only from the content of the article. ")
	fmt.Fprintf(&b, "If a question cannot be answered from the article, reply with exactly this sentence and nothing else: %s\n", refusalEN)
	if !isEnglish(lang) {
		fmt.Fprintf(&b, "Please answer in %s.\n", analysis.LanguageName(lang))
	}
	b.WriteString("\n# Article:\n")
	b.WriteString(article)
	b.WriteString("\n\n# Conversation so far:\n")
	writeHistory(&b, history, "User", "AI")
	return b.String()
}

func writeHistory(b *strings.Builder, history []Message, userLabel, aiLabel string) {
	for _, m := range history {
		label := aiLabel
		if m.Sender == SenderUser {
			label = userLabel
		}
		fmt.Fprintf(b, "%s: %s\n", label, m.Text)
	}
}
