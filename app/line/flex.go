package line

import (
	"fmt"

	"github.com/yknsg/ainews-digest/app/collector"
	"github.com/yknsg/ainews-digest/app/database"
	"github.com/yknsg/ainews-digest/app/scoring"
)

const maxFavoritesShown = 10

// NewsCarousel builds the digest carousel: one bubble per article with its
// rank, source, title, score row, a read link and a save-to-favorites
// postback.
func NewsCarousel(articles []scoring.ScoredArticle) map[string]any {
	bubbles := make([]map[string]any, 0, len(articles))

	for i, article := range articles {
		bubble := map[string]any{
			"type": "bubble",
			"size": "kilo",
			"header": map[string]any{
				"type":   "box",
				"layout": "vertical",
				"contents": []map[string]any{
					{
						"type":   "box",
						"layout": "horizontal",
						"contents": []map[string]any{
							{
								"type":   "text",
								"text":   fmt.Sprintf("#%d", i+1),
								"size":   "sm",
								"weight": "bold",
								"color":  "#FFFFFF",
							},
							{
								"type":  "text",
								"text":  truncateRunes(article.Source, 15, ""),
								"size":  "xs",
								"color": "#FFFFFF",
								"align": "end",
							},
						},
					},
				},
				"backgroundColor": "#4A90D9",
				"paddingAll":      "10px",
			},
			"body": map[string]any{
				"type":   "box",
				"layout": "vertical",
				"contents": []map[string]any{
					{
						"type":     "text",
						"text":     truncateRunes(article.Title, 60, "..."),
						"weight":   "bold",
						"size":     "sm",
						"wrap":     true,
						"maxLines": 3,
					},
					{
						"type":   "box",
						"layout": "horizontal",
						"contents": []map[string]any{
							{
								"type":   "text",
								"text":   fmt.Sprintf("Score: %d", article.PopularityScore),
								"size":   "xs",
								"color":  "#FF5551",
								"weight": "bold",
							},
							{
								"type":  "text",
								"text":  fmt.Sprintf("HB:%d", article.HatenaCount),
								"size":  "xxs",
								"color": "#888888",
								"align": "end",
							},
						},
						"margin": "md",
					},
				},
				"spacing":    "sm",
				"paddingAll": "12px",
			},
			"footer": map[string]any{
				"type":   "box",
				"layout": "horizontal",
				"contents": []map[string]any{
					{
						"type": "button",
						"action": map[string]any{
							"type":  "uri",
							"label": "読む",
							"uri":   article.URL,
						},
						"style":  "primary",
						"height": "sm",
						"flex":   2,
					},
					{
						"type": "button",
						"action": map[string]any{
							"type":  "postback",
							"label": "保存",
							"data":  fmt.Sprintf("action=favorite&article_id=%s", collector.ArticleID(article.URL)),
						},
						"style":  "secondary",
						"height": "sm",
						"flex":   1,
						"margin": "sm",
					},
				},
				"paddingAll": "10px",
			},
		}
		bubbles = append(bubbles, bubble)
	}

	return map[string]any{
		"type":     "carousel",
		"contents": bubbles,
	}
}

// FavoritesList builds the saved-articles carousel, capped at ten bubbles,
// each with a read link and a remove postback.
func FavoritesList(articles []database.Article) map[string]any {
	if len(articles) == 0 {
		return map[string]any{
			"type": "bubble",
			"body": map[string]any{
				"type":   "box",
				"layout": "vertical",
				"contents": []map[string]any{
					{
						"type":  "text",
						"text":  "お気に入りはまだありません",
						"align": "center",
						"color": "#888888",
					},
				},
			},
		}
	}

	if len(articles) > maxFavoritesShown {
		articles = articles[:maxFavoritesShown]
	}

	bubbles := make([]map[string]any, 0, len(articles))
	for _, article := range articles {
		source := article.Source
		if source == "" {
			source = "Unknown"
		}

		bubble := map[string]any{
			"type": "bubble",
			"size": "kilo",
			"body": map[string]any{
				"type":   "box",
				"layout": "vertical",
				"contents": []map[string]any{
					{
						"type":     "text",
						"text":     truncateRunes(article.Title, 50, "..."),
						"weight":   "bold",
						"size":     "sm",
						"wrap":     true,
						"maxLines": 2,
					},
					{
						"type":   "text",
						"text":   source,
						"size":   "xs",
						"color":  "#888888",
						"margin": "sm",
					},
				},
				"paddingAll": "12px",
			},
			"footer": map[string]any{
				"type":   "box",
				"layout": "horizontal",
				"contents": []map[string]any{
					{
						"type": "button",
						"action": map[string]any{
							"type":  "uri",
							"label": "読む",
							"uri":   article.URL,
						},
						"style":  "primary",
						"height": "sm",
						"flex":   2,
					},
					{
						"type": "button",
						"action": map[string]any{
							"type":  "postback",
							"label": "削除",
							"data":  fmt.Sprintf("action=unfavorite&article_id=%s", article.ID),
						},
						"style":  "secondary",
						"height": "sm",
						"flex":   1,
						"margin": "sm",
					},
				},
				"paddingAll": "10px",
			},
		}
		bubbles = append(bubbles, bubble)
	}

	return map[string]any{
		"type":     "carousel",
		"contents": bubbles,
	}
}

func truncateRunes(s string, max int, ellipsis string) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + ellipsis
}
