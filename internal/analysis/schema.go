// internal/analysis/schema.go
package analysis

// Schema is the subset of the OpenAPI schema object understood by the
// structured-output endpoints.
type Schema struct {
	Type             string             `json:"type"`
	Description      string             `json:"description,omitempty"`
	Properties       map[string]*Schema `json:"properties,omitempty"`
	Items            *Schema            `json:"items,omitempty"`
	Required         []string           `json:"required,omitempty"`
	PropertyOrdering []string           `json:"propertyOrdering,omitempty"`
	MinItems         int                `json:"minItems,omitempty"`
	MaxItems         int                `json:"maxItems,omitempty"`
}

const (
	TypeObject = "OBJECT"
	TypeArray  = "ARRAY"
	TypeString = "STRING"
)

func titledItem(titleDesc, descDesc string) *Schema {
	return &Schema{
		Type: TypeObject,
		Properties: map[string]*Schema{
			"title":       {Type: TypeString, Description: titleDesc},
			"description": {Type: TypeString, Description: descDesc},
		},
		Required:         []string{"title", "description"},
		PropertyOrdering: []string{"title", "description"},
	}
}

// ResponseSchema is the output contract declared with every analysis request.
func ResponseSchema() *Schema {
	return &Schema{
		Type: TypeObject,
		Properties: map[string]*Schema{
			"summary": {
				Type:        TypeString,
				Description: "A comprehensive 3-4 sentence summary of the repository's purpose, main functionality, and key characteristics based on all available information including README, configuration files, and project structure",
			},
			"keyFeatures": {
				Type:        TypeArray,
				Items:       titledItem("Feature name or title", "Brief description of the feature"),
				MinItems:    MaxFeatures,
				MaxItems:    MaxFeatures,
				Description: "List of exactly 4 main features or capabilities",
			},
			"technologies": {
				Type:        TypeArray,
				Items:       &Schema{Type: TypeString},
				Description: "List of main technologies, frameworks, and tools used based on configuration files and project structure",
			},
			"useCases": {
				Type:        TypeArray,
				Items:       titledItem("Use case title", "Description of the use case"),
				MinItems:    MaxUseCases,
				MaxItems:    MaxUseCases,
				Description: "List of exactly 4 potential real-world use cases",
			},
		},
		Required:         []string{"summary", "keyFeatures", "technologies", "useCases"},
		PropertyOrdering: []string{"summary", "keyFeatures", "technologies", "useCases"},
	}
}
