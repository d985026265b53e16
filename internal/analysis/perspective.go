// Package analysis turns a repository snapshot into a multi-perspective
// article: one generation call per perspective, joined and merged into a
// single document.
package analysis

// Key identifies a perspective.
type Key string

// The closed set of perspectives, in presentation order.
const (
	Usage        Key = "usage"
	Installation Key = "installation"
	Structure    Key = "structure"
	Logic        Key = "logic"
)

// Perspective is one angle from which a repository is described.
type Perspective struct {
	Key Key
	JA  string
	EN  string
}

var perspectives = []Perspective{
	{Key: Usage, JA: "使い方", EN: "Usage"},
	{Key: Installation, JA: "インストール方法", EN: "Installation"},
	{Key: Structure, JA: "リポジトリ構造", EN: "Repository Structure"},
	{Key: Logic, JA: "コードロジック", EN: "Code Logic"},
}

// Perspectives returns the perspectives in their fixed order.
func Perspectives() []Perspective {
	out := make([]Perspective, len(perspectives))
	copy(out, perspectives)
	return out
}

// LookupPerspective finds the perspective for k.
func LookupPerspective(k Key) (Perspective, bool) {
	for _, p := range perspectives {
		if p.Key == k {
			return p, true
		}
	}
	return Perspective{}, false
}

// Label returns the display label for lang. Only Japanese has its own
// labels; every other language uses the English ones.
func (p Perspective) Label(lang string) string {
	if tierOf(lang) == tierPrimary {
		return p.JA
	}
	return p.EN
}
