package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dancancer/chargraph/core/graph"
	"github.com/dancancer/chargraph/model"
)

var (
	colorAccent = lipgloss.AdaptiveColor{Light: "#0969DA", Dark: "#58A6FF"}
	colorMuted  = lipgloss.AdaptiveColor{Light: "#6E7781", Dark: "#8B949E"}

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorAccent)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorAccent).
			Padding(0, 1)

	cellStyle = lipgloss.NewStyle().
			Padding(0, 1)

	hintStyle = lipgloss.NewStyle().
			Foreground(colorMuted)
)

// newTable creates a rounded table with the shared header styling
func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorMuted)).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
}

// renderResult renders the statistics, characters and relations of a result
func renderResult(result *model.RecognitionResult) string {
	stats := result.Statistics
	sections := []string{
		titleStyle.Render(fmt.Sprintf("Run %s", result.RunID)),
		hintStyle.Render(fmt.Sprintf("%d characters, %d mentions, %d sentences, %d dialogues, %d pronouns, merge %s, %s",
			stats.TotalCharacters, stats.TotalMentions, stats.SentenceCount,
			stats.TotalDialogues, stats.ResolvedPronouns, stats.MergeStrategy, stats.ProcessingTime)),
		"",
		renderCharacters(result.Characters),
	}

	if len(result.Relations) > 0 {
		sections = append(sections, "", renderRelations(result.Relations))
	}

	return strings.Join(sections, "\n")
}

func renderCharacters(characters []*model.Character) string {
	if len(characters) == 0 {
		return hintStyle.Render("No characters found")
	}

	rows := make([][]string, 0, len(characters))
	for _, c := range characters {
		rows = append(rows, []string{
			c.ID,
			c.CanonicalName,
			strings.Join(c.Aliases, ", "),
			fmt.Sprintf("%d", c.MentionCount),
			fmt.Sprintf("%d", c.QuoteCount),
			string(c.Gender),
			fmt.Sprintf("%d", c.FirstAppearanceOffset),
		})
	}

	return newTable("ID", "Name", "Aliases", "Mentions", "Quotes", "Gender", "First").
		Rows(rows...).
		String()
}

func renderRelations(relations []model.Relation) string {
	rows := make([][]string, 0, len(relations))
	for _, rel := range relations {
		rows = append(rows, []string{rel.MemberA, rel.MemberB, string(rel.Kind), fmt.Sprintf("%d", rel.Weight)})
	}

	return newTable("A", "B", "Kind", "Weight").
		Rows(rows...).
		String()
}

func renderRuns(runs []*model.Run) string {
	if len(runs) == 0 {
		return hintStyle.Render("No runs stored")
	}

	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		characters, _ := run.Statistics.Int("total_characters")
		rows = append(rows, []string{
			run.RID.String(),
			run.Title,
			fmt.Sprintf("%d", characters),
			fmt.Sprintf("%d", run.TextLength),
			string(run.MergeStrategy),
			run.CreatedAt.Format("2006-01-02 15:04"),
		})
	}

	return newTable("Run", "Title", "Characters", "Length", "Merge", "Created").
		Rows(rows...).
		String()
}

// renderTraversal renders traversal results with the path that reached each character
func renderTraversal(source string, results []*graph.TraversalResult) string {
	if len(results) == 0 {
		return hintStyle.Render(fmt.Sprintf("No character named %q", source))
	}

	rows := make([][]string, 0, len(results))
	for _, r := range results {
		rows = append(rows, []string{
			r.Character.CanonicalName,
			fmt.Sprintf("%d", r.Distance),
			fmt.Sprintf("%d", r.Weight),
			strings.Join(r.Path, " → "),
		})
	}

	return titleStyle.Render(fmt.Sprintf("Relations of %s", source)) + "\n" +
		newTable("Name", "Hops", "Weight", "Path").
			Rows(rows...).
			String()
}

func renderSimilar(name string, records []*model.CharacterRecord) string {
	if len(records) == 0 {
		return hintStyle.Render(fmt.Sprintf("No character similar to %s", name))
	}

	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, []string{
			r.Character.CanonicalName,
			strings.Join(r.Character.Aliases, ", "),
			r.RunRID.String(),
			fmt.Sprintf("%.3f", r.Similarity),
		})
	}

	return titleStyle.Render(fmt.Sprintf("Similar to %s", name)) + "\n" +
		newTable("Name", "Aliases", "Run", "Similarity").
			Rows(rows...).
			String()
}

func renderSearch(query string, results []*model.SearchResult) string {
	if len(results) == 0 {
		return hintStyle.Render(fmt.Sprintf("Nothing found for %q", query))
	}

	rows := make([][]string, 0, len(results))
	for _, r := range results {
		via := r.Via
		if via == "" {
			via = "-"
		}
		rows = append(rows, []string{
			r.Record.Character.CanonicalName,
			r.Record.RunRID.String(),
			fmt.Sprintf("%.3f", r.Score),
			fmt.Sprintf("%.3f", r.SimilarityScore),
			fmt.Sprintf("%d", r.GraphDistance),
			via,
		})
	}

	return titleStyle.Render(fmt.Sprintf("Search: %s", query)) + "\n" +
		newTable("Name", "Run", "Score", "Similarity", "Hops", "Via").
			Rows(rows...).
			String()
}
