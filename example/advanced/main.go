package main

import (
	"context"
	"fmt"
	"log"

	"github.com/dancancer/chargraph"
	"github.com/dancancer/chargraph/helper"
	"github.com/dancancer/chargraph/model"
)

const chapterOne = `林冲走进酒店，店小二连忙迎了上来。
"客官要些什么？"店小二问道。
林冲道："先打两角酒来。"
不多时，鲁智深也到了。他拍了拍林冲的肩膀，两人对坐饮酒。`

const chapterTwo = `次日清早，林冲提了花枪出门。
鲁智深在菜园里等他，见他来了，大笑道："兄弟来得好！"
林冲道："师兄，小弟今日特来辞行。"`

func main() {
	// Start a test PostgreSQL container
	teardown, dbPort, err := helper.MustStartPostgresContainer()
	if err != nil {
		log.Fatalf("Failed to start PostgreSQL container: %v", err)
	}
	defer teardown(context.Background())

	// Create database configuration
	dbConfig := &helper.DatabaseConfiguration{
		Host:     "localhost",
		Port:     dbPort,
		Database: "database",
		Username: "user",
		Password: "password",
		Schema:   "public",
		SSLMode:  "disable",
	}

	r, err := chargraph.NewRecognizer(model.DefaultConfig())
	if err != nil {
		log.Fatalf("Failed to create recognizer: %v", err)
	}
	defer r.Close()

	if err := r.ConnectDatabase(dbConfig); err != nil {
		log.Fatalf("Failed to connect database: %v", err)
	}

	// Set up the default pipeline (hugot name detection + embeddings)
	r.UseDefaultPipeline()

	opts := model.DefaultRecognitionOptions()
	opts.MinMentions = 1
	opts.EmbedProfiles = true

	fmt.Println("=== Recognizing Chapters ===")
	var runs []*model.Run
	for i, text := range []string{chapterOne, chapterTwo} {
		result, err := r.Recognize(text, opts)
		if err != nil {
			log.Fatalf("Failed to recognize chapter %d: %v", i+1, err)
		}
		run, err := r.Store(fmt.Sprintf("第%d回", i+1), result)
		if err != nil {
			log.Fatalf("Failed to store chapter %d: %v", i+1, err)
		}
		runs = append(runs, run)
		fmt.Printf("Chapter %d (RID: %s): %d characters, merge %s\n", i+1, run.RID, len(result.Characters), run.MergeStrategy)
	}

	ctx := context.Background()

	// 1. Relations around a character
	fmt.Println("\n=== 1. Explore ===")
	traversal, err := r.Explore(ctx, runs[0].RID, "林冲", 2, 1)
	if err != nil {
		log.Fatalf("Explore failed: %v", err)
	}
	for _, t := range traversal {
		fmt.Printf("  %s (hops %d, weight %d)\n", t.Character.CanonicalName, t.Distance, t.Weight)
	}

	// 2. The same character in another chapter
	fmt.Println("\n=== 2. Similar Characters ===")
	similar, err := r.SimilarCharacters(runs[0].RID, "林冲", 3, 0.5)
	if err != nil {
		log.Printf("Similar characters failed: %v", err)
	}
	for _, record := range similar {
		fmt.Printf("  %s in run %s (similarity %.4f)\n", record.Character.CanonicalName, record.RunRID, record.Similarity)
	}

	// 3. Search by description with each strategy
	queryText := "在酒店里喝酒的教头"
	for _, strategy := range []string{model.StrategyVector, model.StrategyMultiHop, model.StrategyHybrid} {
		fmt.Printf("\n=== 3. Search (%s) ===\n", strategy)
		config := model.DefaultQueryConfig()
		config.Strategy = strategy
		config.SimilarityThreshold = 0.0
		results, err := r.SearchCharacters(ctx, queryText, config)
		if err != nil {
			log.Fatalf("Search failed: %v", err)
		}
		printResults(results)
	}

	fmt.Println("\nAdvanced example completed successfully!")
}

func printResults(results []*model.SearchResult) {
	fmt.Printf("Found %d results:\n", len(results))
	for i, result := range results {
		fmt.Printf("  %d. %s score %.4f (similarity %.4f, hops %d, method %s)\n",
			i+1,
			result.Record.Character.CanonicalName,
			result.Score,
			result.SimilarityScore,
			result.GraphDistance,
			result.RetrievalMethod,
		)
	}
}
