package cli

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/campuslink/beacon/internal/domain/model"
	"github.com/campuslink/beacon/internal/domain/types"
)

func printJSON(cfg *Config, v any) error {
	enc := json.NewEncoder(cfg.out())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printEvents(cfg *Config, events []model.Event) error {
	if cfg.JSON {
		return printJSON(cfg, events)
	}
	tw := tabwriter.NewWriter(cfg.out(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCATEGORY\tTITLE\tDATE\tTEAM\tSKILLS")
	for _, e := range events {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\n",
			e.ID, e.Category, e.Title, e.Date, e.MaxTeamSize, strings.Join(e.Skills, ", "))
	}
	return tw.Flush()
}

func printPosts(cfg *Config, posts []types.PostView) error {
	if cfg.JSON {
		return printJSON(cfg, posts)
	}
	if len(posts) == 0 {
		_, err := fmt.Fprintln(cfg.out(), "No team posts found.")
		return err
	}
	tw := tabwriter.NewWriter(cfg.out(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tEVENT\tAUTHOR\tTEAM\tSTATUS")
	for i := range posts {
		p := &posts[i]
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", p.ID, p.EventName, p.Author.Name, teamSize(p), p.Remaining.Display)
	}
	return tw.Flush()
}

func printPost(cfg *Config, p types.PostView) error { //nolint:gocritic // hugeParam: printed once
	if cfg.JSON {
		return printJSON(cfg, p)
	}
	tw := tabwriter.NewWriter(cfg.out(), 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "ID:\t%s\n", p.ID)
	fmt.Fprintf(tw, "Title:\t%s\n", p.Title)
	fmt.Fprintf(tw, "Author:\t%s (%s, %s)\n", p.Author.Name, p.Author.College, p.Author.Year)
	fmt.Fprintf(tw, "Description:\t%s\n", p.Description)
	fmt.Fprintf(tw, "Skills:\t%s\n", strings.Join(p.RequiredSkills, ", "))
	fmt.Fprintf(tw, "Team:\t%s\n", teamSize(&p))
	fmt.Fprintf(tw, "Status:\t%s\n", p.Remaining.Display)
	for _, a := range p.Applicants {
		fmt.Fprintf(tw, "Applicant:\t%s %q %s\n", a.ApplicantID, a.Message, strings.Join(a.RelevantSkills, ", "))
	}
	return tw.Flush()
}

func teamSize(p *types.PostView) string {
	s := fmt.Sprintf("%d/%d", p.CurrentTeamSize, p.MaxTeamSize)
	if p.Full {
		s += " full"
	}
	return s
}
