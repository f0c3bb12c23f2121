package digest

// Categories a subscriber can enable, in display order.
var Categories = []string{"llm", "image", "robotics", "infrastructure"}

// CategoryKeywords maps each category to its fixed keyword list. An article
// belongs to a category when its title or summary contains any keyword,
// case-insensitively.
var CategoryKeywords = map[string][]string{
	"llm": {
		"llm", "gpt", "claude", "gemini", "chatgpt", "openai", "anthropic",
		"language model", "大規模言語モデル", "生成ai",
	},
	"image": {
		"image generation", "diffusion", "stable diffusion", "midjourney",
		"dall-e", "text-to-image", "画像生成",
	},
	"robotics": {
		"robot", "robotics", "humanoid", "autonomous", "drone", "ロボット", "自動運転",
	},
	"infrastructure": {
		"gpu", "cuda", "inference", "training", "datacenter", "data center",
		"nvidia", "tpu", "チップ", "半導体",
	},
}

// DefaultCategories returns a fresh copy of the full category set, used when
// a subscriber has no stored preference or the stored value is unreadable.
func DefaultCategories() []string {
	categories := make([]string, len(Categories))
	copy(categories, Categories)
	return categories
}
