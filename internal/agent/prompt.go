package agent

import "fmt"

// systemPrompt builds the instruction prepended to conversations that do not
// already start with a system message.
func systemPrompt(language string, hasTools bool) string {
	if language == "" {
		language = "English"
	}
	base := fmt.Sprintf("You are a helpful assistant on a personal dashboard. Always answer in %s. Be concise and factual.", language)
	if !hasTools {
		return base
	}
	return base + " You have live internet access through the web_search and fetch_url tools. " +
		"For any question about current events, weather, prices, news, or other time-sensitive information you MUST use these tools instead of claiming you have no internet access or that your knowledge is outdated. " +
		"Search first, fetch pages when you need details, then answer based on what you found."
}
