package core

import (
	"time"
)

var day0 = time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)

func at(days int) time.Time {
	return day0.Add(time.Duration(days) * 24 * time.Hour)
}

// scenarioCatalog is A(day 0), B(day 2), C(day 5), newest first like the real catalog
func scenarioCatalog() []Item {
	return []Item{
		{ID: "C", SenderEmail: "news@acme.io", SenderName: "Acme", Subject: "Last chance: 20% off", Category: "promo", Timestamp: at(5)},
		{ID: "B", SenderEmail: "news@acme.io", SenderName: "Acme News", Subject: "Getting started guide", Category: "onboarding", Timestamp: at(2)},
		{ID: "A", SenderEmail: "hello@globex.com", Subject: "Welcome to Globex", Category: "onboarding", Timestamp: at(0)},
	}
}
