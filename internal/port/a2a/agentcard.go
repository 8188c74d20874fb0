package a2a

// BuildAgentCard returns the static AgentCard served at
// /.well-known/agent.json.
func BuildAgentCard(baseURL, version string) AgentCard {
	return AgentCard{
		Name:        "taskchat",
		Description: "Natural-language todo list management",
		URL:         baseURL,
		Version:     version,
		Skills: []Skill{
			{
				ID:          "manage-tasks",
				Name:        "Manage Tasks",
				Description: "Add, list, complete, update, and delete todo tasks through conversation",
				InputModes:  []string{"text"},
				OutputModes: []string{"text"},
			},
		},
		Capabilities: struct {
			Streaming bool `json:"streaming"`
		}{Streaming: false},
	}
}
