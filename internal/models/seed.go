package models

import "time"

// DefaultDictionaries returns the built-in taxonomy seed used on first run
// and as the in-memory fallback when the store cannot be opened.
func DefaultDictionaries() *Dictionaries {
	return &Dictionaries{
		Topics: []DictionaryItem{
			{ID: "topic1", Code: "ai-ml", Label: "AI/ML", SortOrder: 0, IsEnabled: true},
			{ID: "topic2", Code: "web-development", Label: "Web Development", SortOrder: 1, IsEnabled: true},
			{ID: "topic3", Code: "design", Label: "Design", SortOrder: 2, IsEnabled: true},
			{ID: "topic4", Code: "productivity", Label: "Productivity", SortOrder: 3, IsEnabled: true},
			{ID: "topic5", Code: "career", Label: "Career", SortOrder: 4, IsEnabled: true},
			{ID: "topic6", Code: "other", Label: "Other", SortOrder: 5, IsEnabled: true},
		},
		Priorities: []DictionaryItem{
			{ID: "prio1", Code: "high", Label: "High", SortOrder: 0, IsEnabled: true},
			{ID: "prio2", Code: "medium", Label: "Medium", SortOrder: 1, IsEnabled: true},
			{ID: "prio3", Code: "low", Label: "Low", SortOrder: 2, IsEnabled: true},
		},
		Statuses: []DictionaryItem{
			{ID: "stat1", Code: "to-read", Label: "To Read", SortOrder: 0, IsEnabled: true},
			{ID: "stat2", Code: "in-progress", Label: "In Progress", SortOrder: 1, IsEnabled: true},
			{ID: "stat3", Code: "completed", Label: "Completed", SortOrder: 2, IsEnabled: true},
		},
	}
}

// SeedLinks returns a few starter links written on first-ever store creation
// so a fresh install has something to show.
func SeedLinks(now time.Time) []Link {
	iso := func(t time.Time) string { return t.UTC().Format(time.RFC3339) }
	return []Link{
		{
			ID:             "link1",
			URL:            "https://www.google.com",
			Title:          "Google",
			Description:    "The world's most popular search engine.",
			Topic:          "productivity",
			Priority:       "medium",
			Status:         "to-read",
			CreatedAt:      iso(now.Add(-48 * time.Hour)),
			RelatedLinkIDs: []string{},
			Attachments:    []Attachment{},
		},
		{
			ID:             "link2",
			URL:            "https://react.dev",
			Title:          "React Documentation",
			Description:    "Official docs for React.",
			Topic:          "web-development",
			Priority:       "high",
			Status:         "in-progress",
			CreatedAt:      iso(now.Add(-24 * time.Hour)),
			RelatedLinkIDs: []string{},
			Attachments:    []Attachment{},
		},
		{
			ID:             "link3",
			URL:            "https://figma.com",
			Title:          "Figma",
			Description:    "A collaborative design tool.",
			Topic:          "design",
			Priority:       "low",
			Status:         "completed",
			CreatedAt:      iso(now),
			RelatedLinkIDs: []string{},
			Attachments:    []Attachment{},
		},
	}
}
