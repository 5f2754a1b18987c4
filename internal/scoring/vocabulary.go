package scoring

import (
	"regexp"
	"strings"
)

// Skill is one entry in the controlled vocabulary: a canonical name plus the
// spellings it is recognized under.
type Skill struct {
	Name    string
	Aliases []string
}

// DefaultVocabulary is the built-in skill vocabulary, grouped by rough
// category. Multi-word and symbol-bearing names (C++, C#, scikit-learn) are
// matched through aliases rather than tokenization.
func DefaultVocabulary() []Skill {
	return []Skill{
		// Programming languages
		{Name: "Python", Aliases: []string{"python"}},
		{Name: "Java", Aliases: []string{"java"}},
		{Name: "JavaScript", Aliases: []string{"javascript", "js"}},
		{Name: "TypeScript", Aliases: []string{"typescript", "ts"}},
		{Name: "C++", Aliases: []string{"c++", "cpp"}},
		{Name: "C#", Aliases: []string{"c#", "csharp"}},
		{Name: "Ruby", Aliases: []string{"ruby"}},
		{Name: "Go", Aliases: []string{"golang", "go"}},
		{Name: "Rust", Aliases: []string{"rust"}},
		{Name: "PHP", Aliases: []string{"php"}},
		{Name: "Swift", Aliases: []string{"swift"}},
		{Name: "Kotlin", Aliases: []string{"kotlin"}},

		// Databases
		{Name: "MySQL", Aliases: []string{"mysql"}},
		{Name: "PostgreSQL", Aliases: []string{"postgresql", "postgres"}},
		{Name: "MongoDB", Aliases: []string{"mongodb", "mongo"}},
		{Name: "Redis", Aliases: []string{"redis"}},
		{Name: "Elasticsearch", Aliases: []string{"elasticsearch"}},
		{Name: "SQLite", Aliases: []string{"sqlite"}},
		{Name: "SQL", Aliases: []string{"sql"}},

		// Frameworks
		{Name: "Django", Aliases: []string{"django"}},
		{Name: "Flask", Aliases: []string{"flask"}},
		{Name: "React", Aliases: []string{"react", "react.js", "reactjs"}},
		{Name: "Angular", Aliases: []string{"angular"}},
		{Name: "Vue", Aliases: []string{"vue", "vue.js", "vuejs"}},
		{Name: "Spring", Aliases: []string{"spring", "spring boot"}},
		{Name: "Express", Aliases: []string{"express", "express.js"}},
		{Name: "Node.js", Aliases: []string{"node.js", "nodejs", "node"}},
		{Name: "Rails", Aliases: []string{"rails", "ruby on rails"}},

		// Cloud and infrastructure
		{Name: "AWS", Aliases: []string{"aws", "amazon web services"}},
		{Name: "Azure", Aliases: []string{"azure"}},
		{Name: "GCP", Aliases: []string{"gcp", "google cloud"}},
		{Name: "Docker", Aliases: []string{"docker"}},
		{Name: "Kubernetes", Aliases: []string{"kubernetes", "k8s"}},
		{Name: "Terraform", Aliases: []string{"terraform"}},
		{Name: "Jenkins", Aliases: []string{"jenkins"}},
		{Name: "Ansible", Aliases: []string{"ansible"}},
		{Name: "CI/CD", Aliases: []string{"ci/cd", "cicd", "continuous integration"}},

		// ML / data
		{Name: "TensorFlow", Aliases: []string{"tensorflow"}},
		{Name: "PyTorch", Aliases: []string{"pytorch"}},
		{Name: "scikit-learn", Aliases: []string{"scikit-learn", "sklearn"}},
		{Name: "Pandas", Aliases: []string{"pandas"}},
		{Name: "NumPy", Aliases: []string{"numpy"}},
		{Name: "Spark", Aliases: []string{"spark", "apache spark"}},

		// Messaging and tooling
		{Name: "Kafka", Aliases: []string{"kafka", "apache kafka"}},
		{Name: "RabbitMQ", Aliases: []string{"rabbitmq"}},
		{Name: "gRPC", Aliases: []string{"grpc"}},
		{Name: "GraphQL", Aliases: []string{"graphql"}},
		{Name: "REST", Aliases: []string{"rest api", "restful"}},
		{Name: "Git", Aliases: []string{"git"}},
		{Name: "Linux", Aliases: []string{"linux"}},
	}
}

// skillMatcher precompiles one regexp per skill so Score stays cheap on bulk
// runs. Aliases match case-insensitively on boundaries that treat +, # and .
// as part of the name.
type skillMatcher struct {
	skill Skill
	re    *regexp.Regexp
}

func compileVocabulary(vocabulary []Skill) []skillMatcher {
	matchers := make([]skillMatcher, 0, len(vocabulary))
	for _, skill := range vocabulary {
		parts := make([]string, 0, len(skill.Aliases))
		for _, alias := range skill.Aliases {
			parts = append(parts, regexp.QuoteMeta(strings.ToLower(alias)))
		}
		pattern := `(?i)(?:^|[^a-z0-9+#.])(?:` + strings.Join(parts, "|") + `)(?:[^a-z0-9+#]|$)`
		matchers = append(matchers, skillMatcher{
			skill: skill,
			re:    regexp.MustCompile(pattern),
		})
	}
	return matchers
}

func (m skillMatcher) matches(text string) bool {
	return m.re.MatchString(text)
}
