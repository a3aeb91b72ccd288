package main

import (
	"fmt"
	"log"
	"strings"

	"github.com/dancancer/chargraph"
	"github.com/dancancer/chargraph/model"
)

const sampleContent = `林冲走进酒店，店小二连忙迎了上来。
"客官要些什么？"店小二问道。
林冲道："先打两角酒来。"
不多时，鲁智深也到了。老林见了他，起身相迎。
鲁智深笑道："兄弟，多日不见！"他拍了拍林冲的肩膀。
林娘子在家中等候，她听说林教头今日晚归。`

func main() {
	cfg := model.DefaultConfig()
	cfg.MinMentions = 1

	// Rules and string similarity only, no models are downloaded
	r, err := chargraph.NewRecognizer(cfg)
	if err != nil {
		log.Fatalf("Failed to create recognizer: %v", err)
	}
	defer r.Close()

	result, err := r.Recognize(sampleContent, model.DefaultRecognitionOptions())
	if err != nil {
		log.Fatalf("Failed to recognize characters: %v", err)
	}

	fmt.Printf("\nFound %d characters in %d sentences:\n", len(result.Characters), result.Statistics.SentenceCount)
	for _, c := range result.Characters {
		fmt.Printf("\n--- %s (%s) ---\n", c.CanonicalName, c.ID)
		fmt.Printf("Aliases: %s\n", strings.Join(c.Aliases, ", "))
		fmt.Printf("Mentions: %d, quotes: %d, gender: %s\n", c.MentionCount, c.QuoteCount, c.Gender)
	}

	fmt.Println("\nRelations:")
	for _, rel := range result.Relations {
		fmt.Printf("  %s - %s (%d)\n", rel.MemberA, rel.MemberB, rel.Weight)
	}

	fmt.Println("\nDialogue:")
	for _, d := range result.Dialogues {
		fmt.Printf("  %s: %s\n", d.Speaker, d.Quote)
	}

	fmt.Println("\nBasic example completed successfully!")
}
