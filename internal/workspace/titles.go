package workspace

var nodeTitles = map[string]string{
	"init":            "Initialize",
	"rule_node":       "Rule check",
	"team_router":     "Router",
	"team_lead":       "Team lead",
	"seo_expert":      "SEO expert",
	"product_manager": "Product manager",
	"architect":       "Architect",
	"task_view":       "Task view",
	"engineer":        "Engineer",
	"engineer_solo":   "Engineer",
	"data_analyst":    "Data analyst",
	"deep_researcher": "Deep researcher",
	"team_finalize":   "Summary",
}

// NodeTitle returns the human title of a workflow node, unknown nodes use their ID.
func NodeTitle(node string) string {
	if t, ok := nodeTitles[node]; ok {
		return t
	}
	return node
}
