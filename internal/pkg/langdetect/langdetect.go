package langdetect

import (
	"path/filepath"

	"github.com/src-d/enry/v2"
)

// Classifier 根据文件路径识别语言
type Classifier interface {
	Classify(path string) (string, bool)
}

// preferred 扩展名对应多种语言时的优先顺序，靠前的先选
// 只有路径没有文件内容，enry 的内容分类器在这里不可靠
var preferred = []string{
	"C#", "PHP", "TypeScript", "TSX", "JavaScript", "C", "C++", "Objective-C",
	"Python", "Java", "Go", "Rust", "Ruby", "Perl", "Kotlin", "Swift", "Scala", "SQL",
	"Shell", "HTML", "CSS", "Markdown",
}

// aliases 合并到已有标签的语言
var aliases = map[string]string{
	"TSX": "TypeScript",
}

type enryClassifier struct {
	rank map[string]int
}

// New 返回基于 enry 的识别器，仅依据文件名和扩展名
func New() Classifier {
	rank := make(map[string]int, len(preferred))
	for i, lang := range preferred {
		rank[lang] = i
	}
	return enryClassifier{rank: rank}
}

func (c enryClassifier) Classify(path string) (string, bool) {
	if path == "" || enry.IsVendor(path) {
		return "", false
	}
	base := filepath.Base(path)

	lang := ""
	if byName, ok := enry.GetLanguageByFilename(base); ok {
		lang = byName
	} else if candidates := enry.GetLanguagesByExtension(base, nil, nil); len(candidates) == 1 {
		lang = candidates[0]
	} else if len(candidates) > 1 {
		lang = c.pick(candidates)
	}
	if lang == "" {
		lang = enry.GetLanguage(base, nil)
	}
	if lang == "" {
		return "", false
	}
	if alias, ok := aliases[lang]; ok {
		lang = alias
	}
	return lang, true
}

// pick 在候选语言中选优先级最高的，都不在列表中时返回空
func (c enryClassifier) pick(candidates []string) string {
	best, bestRank := "", len(preferred)
	for _, lang := range candidates {
		if r, ok := c.rank[lang]; ok && r < bestRank {
			best, bestRank = lang, r
		}
	}
	return best
}

// ClassifierFunc 便于在测试中替换识别逻辑
type ClassifierFunc func(path string) (string, bool)

func (f ClassifierFunc) Classify(path string) (string, bool) {
	return f(path)
}
