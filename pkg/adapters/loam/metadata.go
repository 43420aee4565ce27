package loam

// FlowMetadata is the frontmatter of a flow document stored in Loam.
// The cards keep their flat definition layout.
type FlowMetadata struct {
	ID    string           `json:"id" yaml:"id" mapstructure:"id"`
	Title string           `json:"title,omitempty" yaml:"title,omitempty" mapstructure:"title"`
	Cards []map[string]any `json:"cards" yaml:"cards" mapstructure:"cards"`
}
