package agent

import (
	"github.com/mohammad-safakhou/agentd/provider"
)

const (
	ToolWebSearch = "web_search"
	ToolFetchURL  = "fetch_url"
)

// InternetTools returns the tool definitions advertised to the model when
// the caller allows internet access.
func InternetTools() []provider.Tool {
	return []provider.Tool{
		{
			Type: "function",
			Function: provider.ToolFunction{
				Name:        ToolWebSearch,
				Description: "Search the web for current information. Use this for any question about recent events, live data, prices, weather, news, or anything that may have changed after your training data.",
				Parameters: map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"query": map[string]interface{}{
							"type":        "string",
							"description": "The search query.",
						},
					},
					"required": []string{"query"},
				},
			},
		},
		{
			Type: "function",
			Function: provider.ToolFunction{
				Name:        ToolFetchURL,
				Description: "Fetch a web page and return its readable text. Use this to read a specific page found via web_search or given by the user.",
				Parameters: map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"url": map[string]interface{}{
							"type":        "string",
							"description": "The absolute http(s) URL to fetch.",
						},
					},
					"required": []string{"url"},
				},
			},
		},
	}
}
