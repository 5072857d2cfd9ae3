package skills

import "github.com/Adithya-Monish-Kumar-K/resume-screener/internal/matcher/tokenizer"

// DefaultEntries is the taxonomy used when no taxonomy file is configured.
var DefaultEntries = []Entry{
	{Name: "Python"},
	{Name: "Java"},
	{Name: "JavaScript"},
	{Name: "TypeScript"},
	{Name: "Go", Variants: []string{"golang"}},
	{Name: "Rust"},
	{Name: "C"},
	{Name: "C++", Variants: []string{"cpp"}},
	{Name: "C#", Variants: []string{"csharp"}},
	{Name: "Ruby"},
	{Name: "PHP"},
	{Name: "Kotlin"},
	{Name: "Swift"},
	{Name: "Scala"},
	{Name: "R"},
	{Name: "SQL"},
	{Name: "PostgreSQL", Variants: []string{"postgres"}},
	{Name: "MySQL"},
	{Name: "MongoDB", Variants: []string{"mongo"}},
	{Name: "Redis"},
	{Name: "Kafka", Variants: []string{"apache kafka"}},
	{Name: "Docker"},
	{Name: "Kubernetes", Variants: []string{"k8s"}},
	{Name: "Terraform"},
	{Name: "AWS", Variants: []string{"amazon web services"}},
	{Name: "Azure"},
	{Name: "GCP", Variants: []string{"google cloud platform", "google cloud"}},
	{Name: "Linux"},
	{Name: "Git"},
	{Name: "React", Variants: []string{"react.js", "reactjs"}},
	{Name: "Angular"},
	{Name: "Vue", Variants: []string{"vue.js", "vuejs"}},
	{Name: "Node.js", Variants: []string{"nodejs"}},
	{Name: "Django"},
	{Name: "Flask"},
	{Name: "Spring", Variants: []string{"spring boot"}},
	{Name: "HTML"},
	{Name: "CSS"},
	{Name: "REST", Variants: []string{"restful"}},
	{Name: "GraphQL"},
	{Name: "gRPC"},
	{Name: "Machine Learning", Variants: []string{"ml"}},
	{Name: "Deep Learning"},
	{Name: "Natural Language Processing", Variants: []string{"nlp"}},
	{Name: "Data Analysis"},
	{Name: "Excel"},
	{Name: "Tableau"},
	{Name: "Spark", Variants: []string{"apache spark", "pyspark"}},
	{Name: "Hadoop"},
	{Name: "TensorFlow"},
	{Name: "PyTorch"},
	{Name: "Pandas"},
	{Name: "NumPy"},
	{Name: "CI/CD", Variants: []string{"continuous integration"}},
	{Name: "Microservices"},
	{Name: "Agile"},
	{Name: "Scrum"},
	{Name: "Project Management"},
	{Name: "Communication"},
	{Name: "Leadership"},
}

// Builtin builds DefaultEntries with n.
func Builtin(n *tokenizer.Normalizer) (*Taxonomy, error) {
	return NewTaxonomy(DefaultEntries, n)
}
