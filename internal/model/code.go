package model

const (
	CodeTypeLanguage  = "language"
	CodeTypeFramework = "framework"
	CodeTypeJob       = "job"
)

// Code 技能标签，语言类标签的 Name 与语言识别结果一致
type Code struct {
	ID   int64  `gorm:"primaryKey" json:"id"`
	Name string `gorm:"size:100;uniqueIndex;not null" json:"name"`
	Type string `gorm:"size:20;not null;index" json:"type"`
}

func (Code) TableName() string {
	return "codes"
}

// DefaultCodes 初始化时写入的标签
func DefaultCodes() []*Code {
	languages := []string{
		"Go", "Python", "Java", "JavaScript", "TypeScript", "C", "C++", "C#",
		"Kotlin", "Swift", "Rust", "Ruby", "PHP", "Scala", "Dart", "Shell",
		"HTML", "CSS", "SCSS", "Vue", "Objective-C", "SQL",
	}
	frameworks := []string{
		"Spring", "Django", "Flask", "FastAPI", "React", "Next.js", "Angular",
		"Express", "NestJS", "Gin", "Rails", "Laravel", "Flutter",
	}
	jobs := []string{"Backend", "Frontend", "Fullstack", "Mobile", "DevOps", "Data", "AI"}

	codes := make([]*Code, 0, len(languages)+len(frameworks)+len(jobs))
	for _, n := range languages {
		codes = append(codes, &Code{Name: n, Type: CodeTypeLanguage})
	}
	for _, n := range frameworks {
		codes = append(codes, &Code{Name: n, Type: CodeTypeFramework})
	}
	for _, n := range jobs {
		codes = append(codes, &Code{Name: n, Type: CodeTypeJob})
	}
	return codes
}
